// Package pipeline wires the triage stages into one decision flow: fetch,
// feature extraction, severity scoring, similarity search, rule decision,
// action execution, audit.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/copperline/triage/internal/audit"
	"github.com/copperline/triage/internal/casestore"
	"github.com/copperline/triage/internal/decide"
	"github.com/copperline/triage/internal/model"
	"github.com/copperline/triage/internal/triage/cluster"
	"github.com/copperline/triage/internal/triage/extract"
	"github.com/copperline/triage/internal/triage/narrative"
	"github.com/copperline/triage/internal/triage/severity"
)

const defaultHistoryLimit = 200

// Report bundles everything one triage cycle produced.
type Report struct {
	Case     model.CaseContext      `json:"case"`
	Features model.FeatureSet       `json:"features"`
	Severity model.SeverityResult   `json:"severity"`
	Similar  model.SimilarityResult `json:"similarity"`
	Decision model.DecisionResult   `json:"decision"`
}

// Pipeline composes the triage stages. All capability fields are required
// except the clusterer, which may run in degraded mode, and the sink, which
// may be nil to disable the audit trail.
type Pipeline struct {
	store        casestore.Store
	extractor    *extract.Extractor
	scorer       *severity.Scorer
	clusterer    *cluster.Clusterer
	decider      *decide.Decider
	sink         audit.Sink
	historyLimit int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAuditSink enables the decision trail.
func WithAuditSink(s audit.Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// WithHistoryLimit caps the historical corpus fed to similarity search.
func WithHistoryLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.historyLimit = n
		}
	}
}

// New creates a Pipeline from its stages.
func New(store casestore.Store, ex *extract.Extractor, sc *severity.Scorer,
	cl *cluster.Clusterer, d *decide.Decider, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:        store,
		extractor:    ex,
		scorer:       sc,
		clusterer:    cl,
		decider:      d,
		historyLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes a full triage cycle for one case. A missing case yields the
// not-found decision without error; only invalid input and store failures
// surface.
func (p *Pipeline) Run(ctx context.Context, caseID string) (Report, error) {
	if caseID == "" {
		return Report{}, fmt.Errorf("%w: empty case id", decide.ErrInvalidInput)
	}

	c, ok, err := p.store.Get(ctx, caseID)
	if err != nil {
		return Report{}, fmt.Errorf("pipeline: fetch case %s: %w", caseID, err)
	}
	if !ok {
		report := Report{
			Case: model.CaseContext{ID: caseID},
			Decision: model.DecisionResult{
				CaseID:          caseID,
				Recommendations: []model.Recommendation{},
				Confidence:      0.0,
				Reasoning:       "Case not found",
				ActionsTaken:    []string{},
				Outcomes:        []model.ActionOutcome{},
			},
		}
		p.record(ctx, report)
		return report, nil
	}

	features := p.extractor.Extract(c.Description)

	sev, err := p.scorer.Score(c.ID, severityContext(c, features))
	if err != nil {
		return Report{}, fmt.Errorf("pipeline: score case %s: %w", caseID, err)
	}

	similar := p.findSimilar(ctx, c)

	location := c.Location
	if location == "" {
		location, _ = features.Location()
	}

	decision, err := p.decider.DecideWith(ctx, decide.Context{
		Case:           c,
		Severity:       sev.Level,
		EmergencyType:  c.EmergencyType,
		Location:       location,
		Features:       &features,
		SeverityResult: &sev,
		Similar:        &similar,
	})
	if err != nil {
		return Report{}, fmt.Errorf("pipeline: decide case %s: %w", caseID, err)
	}

	report := Report{
		Case:     c,
		Features: features,
		Severity: sev,
		Similar:  similar,
		Decision: decision,
	}
	p.record(ctx, report)
	return report, nil
}

// Severity scores a single case without deciding or acting on it.
func (p *Pipeline) Severity(ctx context.Context, caseID string) (model.SeverityResult, bool, error) {
	c, ok, err := p.store.Get(ctx, caseID)
	if err != nil || !ok {
		return model.SeverityResult{}, ok, err
	}
	features := p.extractor.Extract(c.Description)
	sev, err := p.scorer.Score(c.ID, severityContext(c, features))
	if err != nil {
		return model.SeverityResult{}, true, err
	}
	return sev, true, nil
}

// Similar finds cases related to the given one.
func (p *Pipeline) Similar(ctx context.Context, caseID string) (model.SimilarityResult, bool, error) {
	c, ok, err := p.store.Get(ctx, caseID)
	if err != nil || !ok {
		return model.SimilarityResult{}, ok, err
	}
	return p.findSimilar(ctx, c), true, nil
}

// Analyze runs feature extraction over free text without touching the store.
func (p *Pipeline) Analyze(text string) model.FeatureSet {
	return p.extractor.Extract(text)
}

// Cluster groups the recent case corpus.
func (p *Pipeline) Cluster(ctx context.Context) (model.ClusterResult, error) {
	historical, err := p.store.Recent(ctx, p.historyLimit)
	if err != nil {
		return model.ClusterResult{}, fmt.Errorf("pipeline: load corpus: %w", err)
	}
	return p.clusterer.ClusterAll(historical), nil
}

// Ingest stores a new case.
func (p *Pipeline) Ingest(ctx context.Context, c model.CaseContext) error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty case id", decide.ErrInvalidInput)
	}
	if err := p.store.Put(ctx, c); err != nil {
		return fmt.Errorf("pipeline: ingest case %s: %w", c.ID, err)
	}
	return nil
}

// Get exposes case lookup to callers composing their own flows.
func (p *Pipeline) Get(ctx context.Context, caseID string) (model.CaseContext, bool, error) {
	return p.store.Get(ctx, caseID)
}

// EmbeddingsAvailable reports whether similarity search runs with a live
// model or in degraded mode.
func (p *Pipeline) EmbeddingsAvailable() bool {
	return p.clusterer.Available()
}

// Close flushes and closes the audit sink.
func (p *Pipeline) Close() error {
	if p.sink == nil {
		return nil
	}
	return p.sink.Close()
}

func (p *Pipeline) findSimilar(ctx context.Context, c model.CaseContext) model.SimilarityResult {
	empty := model.SimilarityResult{
		RelatedCases:     []string{},
		SimilarityScores: map[string]float64{},
	}
	if !p.clusterer.Available() {
		return empty
	}
	historical, err := p.store.Recent(ctx, p.historyLimit)
	if err != nil {
		slog.Warn("similarity corpus unavailable", "case_id", c.ID, "error", err)
		return empty
	}
	return p.clusterer.FindSimilar(c.ID, narrative.ForEmbedding(c), historical)
}

// record appends the cycle to the audit trail. Trail failures never fail
// the decision.
func (p *Pipeline) record(ctx context.Context, r Report) {
	if p.sink == nil {
		return
	}
	rec := audit.NewRecord(r.Decision, narrative.Summary(r.Case), r.Severity.Level)
	if err := p.sink.Write(ctx, rec); err != nil {
		slog.Warn("audit write failed", "case_id", r.Decision.CaseID, "error", err)
	}
}

// severityContext maps case fields and extracted features onto the scorer's
// optional inputs. Structured case fields win over extracted hints.
func severityContext(c model.CaseContext, features model.FeatureSet) severity.Context {
	sctx := severity.Context{
		EmergencyType: c.EmergencyType,
		Description:   c.Description,
		CallDuration:  c.CallDuration,
	}

	if c.UrgencyScore != nil {
		sctx.UrgencyScore = c.UrgencyScore
	} else if features.UrgencyScore > 0 {
		u := features.UrgencyScore
		sctx.UrgencyScore = &u
	}

	if c.PeopleInvolved > 0 {
		people := c.PeopleInvolved
		sctx.PeopleInvolved = &people
	} else if n, ok := features.PeopleCount(); ok {
		sctx.PeopleInvolved = &n
	}

	if c.InjuriesReported > 0 {
		injuries := c.InjuriesReported
		sctx.InjuriesReported = &injuries
	}
	return sctx
}
