// Package decide evaluates the dispatch rule table against a triaged case
// and executes the matching actions through registered collaborators.
package decide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/copperline/triage/internal/action"
	"github.com/copperline/triage/internal/casestore"
	"github.com/copperline/triage/internal/model"
)

// ErrInvalidInput marks requests the decider cannot act on, such as a
// missing case id. Unlike collaborator failures it is surfaced to the
// caller.
var ErrInvalidInput = errors.New("decide: invalid input")

const defaultActionTimeout = 10 * time.Second

// Context is the enriched input for one decision cycle. Severity and
// EmergencyType drive rule matching; the remaining fields are advisory
// context available to rule reasoning and audit.
type Context struct {
	Case          model.CaseContext
	Severity      model.SeverityLevel
	EmergencyType model.EmergencyType
	Location      string

	Features       *model.FeatureSet
	SeverityResult *model.SeverityResult
	Similar        *model.SimilarityResult
}

// Decider runs rule evaluation and concurrent action execution.
type Decider struct {
	store   casestore.Store
	actions *action.Registry
	rules   []Rule
	ledger  *Ledger
	timeout time.Duration
}

// Option configures a Decider.
type Option func(*Decider)

// WithRules replaces the default rule table.
func WithRules(rules []Rule) Option {
	return func(d *Decider) { d.rules = rules }
}

// WithLedger enables re-dispatch suppression.
func WithLedger(l *Ledger) Option {
	return func(d *Decider) { d.ledger = l }
}

// WithActionTimeout bounds each collaborator call.
func WithActionTimeout(t time.Duration) Option {
	return func(d *Decider) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// New creates a Decider over the given store and collaborator registry.
// A nil registry leaves every recommendation unexecuted.
func New(store casestore.Store, actions *action.Registry, opts ...Option) *Decider {
	d := &Decider{
		store:   store,
		actions: actions,
		rules:   DefaultRules(),
		timeout: defaultActionTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decide fetches the case and runs a full decision cycle. A missing case is
// a normal outcome: the result carries "Case not found" with zero
// confidence and no error.
func (d *Decider) Decide(ctx context.Context, caseID string) (model.DecisionResult, error) {
	if caseID == "" {
		return model.DecisionResult{}, fmt.Errorf("%w: empty case id", ErrInvalidInput)
	}

	c, ok, err := d.store.Get(ctx, caseID)
	if err != nil {
		return model.DecisionResult{}, fmt.Errorf("decide: fetch case %s: %w", caseID, err)
	}
	if !ok {
		return model.DecisionResult{
			CaseID:          caseID,
			Recommendations: []model.Recommendation{},
			Confidence:      0.0,
			Reasoning:       "Case not found",
			ActionsTaken:    []string{},
			Outcomes:        []model.ActionOutcome{},
		}, nil
	}

	return d.DecideWith(ctx, Context{
		Case:          c,
		Severity:      c.SeverityLevel,
		EmergencyType: c.EmergencyType,
		Location:      c.Location,
	})
}

// DecideWith runs a decision cycle over an already-enriched context. The
// pipeline uses this entry point after scoring so rules see the freshly
// computed severity rather than whatever the store holds.
func (d *Decider) DecideWith(ctx context.Context, dctx Context) (model.DecisionResult, error) {
	if dctx.Case.ID == "" {
		return model.DecisionResult{}, fmt.Errorf("%w: empty case id", ErrInvalidInput)
	}

	recs := d.evaluate(dctx)
	outcomes := d.execute(ctx, dctx.Case.ID, recs)

	taken := []string{}
	for _, o := range outcomes {
		if o.Status == model.ActionSucceeded {
			taken = append(taken, o.Label)
		}
	}

	result := model.DecisionResult{
		CaseID:          dctx.Case.ID,
		Recommendations: recs,
		Confidence:      meanConfidence(recs),
		Reasoning:       joinReasoning(recs),
		ActionsTaken:    taken,
		Outcomes:        outcomes,
	}
	slog.Info("decision complete",
		"case_id", dctx.Case.ID,
		"recommendations", len(recs),
		"actions_taken", len(taken),
		"confidence", result.Confidence)
	return result, nil
}

// evaluate walks the rule table in order and emits one recommendation per
// matching rule.
func (d *Decider) evaluate(dctx Context) []model.Recommendation {
	recs := []model.Recommendation{}
	for _, r := range d.rules {
		if !r.Matches(dctx) {
			continue
		}
		rec := model.Recommendation{
			Type:       r.Type,
			Priority:   r.Priority,
			Confidence: r.Confidence,
		}
		if r.Reason != nil {
			rec.Reasoning = r.Reason(dctx)
		}
		recs = append(recs, rec)
	}
	return recs
}

// execute runs every recommendation's collaborator concurrently. Failures
// are isolated: each goroutine records its outcome in a pre-assigned slot
// and returns nil so siblings are never cancelled. Outcome order matches
// recommendation order regardless of completion order.
func (d *Decider) execute(ctx context.Context, caseID string, recs []model.Recommendation) []model.ActionOutcome {
	outcomes := make([]model.ActionOutcome, len(recs))
	g, ctx := errgroup.WithContext(ctx)

	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			outcomes[i] = d.executeOne(ctx, caseID, rec)
			return nil
		})
	}
	g.Wait()
	return outcomes
}

func (d *Decider) executeOne(ctx context.Context, caseID string, rec model.Recommendation) model.ActionOutcome {
	out := model.ActionOutcome{
		Type:  rec.Type,
		Label: action.Label(rec.Type),
	}

	if d.ledger.Suppressed(caseID, rec.Type) {
		out.Status = model.ActionSkippedDuplicate
		slog.Info("action suppressed as duplicate", "case_id", caseID, "type", rec.Type)
		return out
	}

	var collab action.Collaborator
	if d.actions != nil {
		collab, _ = d.actions.Get(rec.Type)
	}
	if collab == nil {
		out.Status = model.ActionSkippedNoHandler
		slog.Warn("no collaborator registered", "case_id", caseID, "type", rec.Type)
		return out
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := collab.Execute(callCtx, caseID); err != nil {
		out.Status = model.ActionFailed
		out.Error = err.Error()
		slog.Error("action failed", "case_id", caseID, "type", rec.Type, "error", err)
		return out
	}

	out.Status = model.ActionSucceeded
	d.ledger.Record(caseID, rec.Type)
	return out
}

func meanConfidence(recs []model.Recommendation) float64 {
	if len(recs) == 0 {
		return 0.0
	}
	var sum float64
	for _, r := range recs {
		sum += r.Confidence
	}
	return sum / float64(len(recs))
}

func joinReasoning(recs []model.Recommendation) string {
	if len(recs) == 0 {
		return "No recommendations generated"
	}
	out := ""
	for i, r := range recs {
		if i > 0 {
			out += " | "
		}
		out += r.Reasoning
	}
	return out
}
