package action

import (
	"context"
	"fmt"
	"time"

	"github.com/copperline/triage/internal/config"
	"github.com/copperline/triage/internal/httpclient"
	"github.com/copperline/triage/internal/model"
)

// dispatchRequest is the payload posted to every collaborator endpoint.
type dispatchRequest struct {
	CaseID string `json:"case_id"`
}

// REST posts the case id to an external dispatch endpoint. Calls are
// single-shot: action systems own their retry semantics, a timeout here is
// a failure.
type REST struct {
	name   string
	client *httpclient.Client
}

// NewREST creates a collaborator for one endpoint. The full URL is used as
// given; timeout bounds the whole call.
func NewREST(name, endpoint, apiKey string, timeout time.Duration) *REST {
	return &REST{
		name:   name,
		client: httpclient.New(endpoint, apiKey, httpclient.WithTimeout(timeout)),
	}
}

func (r *REST) Execute(ctx context.Context, caseID string) error {
	if err := r.client.PostJSON(ctx, "", dispatchRequest{CaseID: caseID}, nil); err != nil {
		return fmt.Errorf("action %s: %w", r.name, err)
	}
	return nil
}

// RegistryFromConfig builds a registry from the configured endpoints. An
// empty URL leaves that collaborator unregistered, which surfaces as a
// no_handler outcome at decision time.
func RegistryFromConfig(cfg config.ActionsConfig) *Registry {
	endpoints := map[model.RecommendationType]string{
		model.RecDispatchAmbulance:    cfg.AmbulanceURL,
		model.RecAlertHospital:        cfg.HospitalURL,
		model.RecNotifyPolice:         cfg.PoliceURL,
		model.RecRequestRoadClearance: cfg.RoadClearanceURL,
	}

	reg := NewRegistry()
	for t, url := range endpoints {
		if url == "" {
			continue
		}
		reg.Register(t, NewREST(string(t), url, cfg.APIKey, cfg.Timeout))
	}
	return reg
}
