// Package action defines the external dispatch collaborators invoked to
// realize recommendations, and a registry keyed by recommendation type.
package action

import (
	"context"
	"fmt"

	"github.com/copperline/triage/internal/model"
)

// Collaborator is an external action system. Execute reports success or
// failure only; responses are not interpreted further. Implementations must
// honor ctx cancellation and deadlines.
type Collaborator interface {
	Execute(ctx context.Context, caseID string) error
}

// Func adapts a plain function to a Collaborator.
type Func func(ctx context.Context, caseID string) error

func (f Func) Execute(ctx context.Context, caseID string) error {
	return f(ctx, caseID)
}

// labels maps recommendation types to the action label recorded on success.
var labels = map[model.RecommendationType]string{
	model.RecDispatchAmbulance:    "ambulance_dispatched",
	model.RecAlertHospital:        "hospital_alerted",
	model.RecNotifyPolice:         "police_notified",
	model.RecRequestRoadClearance: "road_clearance_requested",
	model.RecAskForMoreData:       "more_data_requested",
	model.RecEscalate:             "escalated",
}

// Label returns the actions-taken label for a recommendation type.
func Label(t model.RecommendationType) string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// Registry maps recommendation types to their collaborators.
type Registry struct {
	collaborators map[model.RecommendationType]Collaborator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{collaborators: map[model.RecommendationType]Collaborator{}}
}

// Register binds a collaborator to a recommendation type. Registering the
// same type twice replaces the earlier binding.
func (r *Registry) Register(t model.RecommendationType, c Collaborator) {
	r.collaborators[t] = c
}

// Get returns the collaborator for a recommendation type.
func (r *Registry) Get(t model.RecommendationType) (Collaborator, error) {
	c, ok := r.collaborators[t]
	if !ok {
		return nil, fmt.Errorf("action: no collaborator registered for %s", t)
	}
	return c, nil
}

// Types returns the registered recommendation types.
func (r *Registry) Types() []model.RecommendationType {
	types := make([]model.RecommendationType, 0, len(r.collaborators))
	for t := range r.collaborators {
		types = append(types, t)
	}
	return types
}
