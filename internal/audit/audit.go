// Package audit defines the decision-trail record and the sink interface
// its destinations implement.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/copperline/triage/internal/model"
)

// Record is one persisted decision-trail entry. Records are written after
// action execution, so outcomes reflect what actually happened.
type Record struct {
	ID              string                 `json:"audit_id"`
	CaseID          string                 `json:"case_id"`
	Timestamp       time.Time              `json:"timestamp"`
	Summary         string                 `json:"case_summary,omitempty"`
	SeverityLevel   model.SeverityLevel    `json:"severity_level,omitempty"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Confidence      float64                `json:"confidence"`
	Reasoning       string                 `json:"reasoning"`
	ActionsTaken    []string               `json:"actions_taken"`
	Outcomes        []model.ActionOutcome  `json:"action_outcomes"`
}

// NewRecord builds a Record from a decision result. The id is a fresh UUID;
// the timestamp is stamped here so sinks never have to.
func NewRecord(res model.DecisionResult, summary string, level model.SeverityLevel) Record {
	return Record{
		ID:              uuid.NewString(),
		CaseID:          res.CaseID,
		Timestamp:       time.Now().UTC(),
		Summary:         summary,
		SeverityLevel:   level,
		Recommendations: res.Recommendations,
		Confidence:      res.Confidence,
		Reasoning:       res.Reasoning,
		ActionsTaken:    res.ActionsTaken,
		Outcomes:        res.Outcomes,
	}
}

// Sink is a decision-trail destination.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}
