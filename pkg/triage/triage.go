package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copperline/triage/internal/casestore"
	"github.com/copperline/triage/internal/decide"
	"github.com/copperline/triage/internal/nlp/embedder"
	"github.com/copperline/triage/internal/nlp/entities"
	"github.com/copperline/triage/internal/nlp/intent"
	"github.com/copperline/triage/internal/pipeline"
	"github.com/copperline/triage/internal/triage/cluster"
	"github.com/copperline/triage/internal/triage/extract"
	"github.com/copperline/triage/internal/triage/severity"
)

// Triage is an embeddable case triage engine. Safe for concurrent use.
type Triage struct {
	pipe *pipeline.Pipeline
	emb  embedder.Embedder
}

// New creates a Triage instance. When model files are configured, loading
// them is expensive (~100-300ms); create once, reuse across requests. A
// model that fails to load degrades the NLP capabilities instead of
// failing construction.
func New(opts ...Option) (*Triage, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var emb embedder.Embedder
	if !o.noModel {
		modelPath, vocabPath, projPath := resolvePaths(o)
		onnx, err := embedder.New(modelPath, vocabPath, projPath)
		if err != nil {
			slog.Warn("model unavailable, running degraded", "error", err)
		} else {
			emb = onnx
		}
	}

	var intents extract.IntentClassifier
	if emb != nil {
		cls, err := intent.New(emb, o.intentThreshold, intent.DefaultLabels())
		if err != nil {
			slog.Warn("intent classifier unavailable, running degraded", "error", err)
		} else {
			intents = cls
		}
	}

	store := o.store
	if store == nil {
		store = casestore.NewMemory()
	}

	deciderOpts := []decide.Option{}
	if o.dedupWindow > 0 {
		deciderOpts = append(deciderOpts, decide.WithLedger(decide.NewLedger(o.dedupWindow)))
	}

	pipe := pipeline.New(store,
		extract.New(intents, entities.NewPattern()),
		severity.New(o.severityConfidence),
		cluster.New(emb, o.similarityThreshold),
		decide.New(store, o.actions, deciderOpts...),
		pipelineOptions(o)...)

	return &Triage{pipe: pipe, emb: emb}, nil
}

func pipelineOptions(o options) []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithHistoryLimit(o.historyLimit)}
	if o.sink != nil {
		opts = append(opts, pipeline.WithAuditSink(o.sink))
	}
	return opts
}

// AddCase stores a case for later triage. Missing type defaults to "other";
// a missing report time is stamped now.
func (t *Triage) AddCase(ctx context.Context, c Case) error {
	if c.EmergencyType == "" {
		c.EmergencyType = "other"
	}
	if c.ReportedAt.IsZero() {
		c.ReportedAt = time.Now().UTC()
	}
	return t.pipe.Ingest(ctx, caseToModel(c))
}

// Triage runs the full decision cycle for one case: extract, score, find
// similar cases, decide, act, audit.
func (t *Triage) Triage(ctx context.Context, caseID string) (Report, error) {
	report, err := t.pipe.Run(ctx, caseID)
	if err != nil {
		return Report{}, fmt.Errorf("triage: %w", err)
	}
	return reportFromPipeline(report), nil
}

// Severity scores one case without acting on it. The bool reports whether
// the case exists.
func (t *Triage) Severity(ctx context.Context, caseID string) (Severity, bool, error) {
	sev, ok, err := t.pipe.Severity(ctx, caseID)
	if err != nil {
		return Severity{}, ok, fmt.Errorf("triage: %w", err)
	}
	return severityFromModel(sev), ok, nil
}

// Similar finds cases related to the given one.
func (t *Triage) Similar(ctx context.Context, caseID string) (Similarity, bool, error) {
	res, ok, err := t.pipe.Similar(ctx, caseID)
	if err != nil {
		return Similarity{}, ok, fmt.Errorf("triage: %w", err)
	}
	return similarityFromModel(res), ok, nil
}

// Analyze extracts features from free text without touching the store.
func (t *Triage) Analyze(text string) Features {
	return featuresFromModel(t.pipe.Analyze(text))
}

// ClusterAll groups the stored case corpus by narrative similarity.
func (t *Triage) ClusterAll(ctx context.Context) (Clusters, error) {
	res, err := t.pipe.Cluster(ctx)
	if err != nil {
		return Clusters{}, fmt.Errorf("triage: %w", err)
	}
	return clustersFromModel(res), nil
}

// Close releases model resources and flushes the audit trail.
func (t *Triage) Close() error {
	err := t.pipe.Close()
	if t.emb != nil {
		if cerr := t.emb.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
