package triage

import (
	"path/filepath"
	"time"

	"github.com/copperline/triage/internal/action"
	"github.com/copperline/triage/internal/audit"
	"github.com/copperline/triage/internal/casestore"
)

type options struct {
	modelDir            string
	modelPath           string
	vocabPath           string
	projectionPath      string
	intentThreshold     float64
	similarityThreshold float64
	severityConfidence  float64
	dedupWindow         time.Duration
	historyLimit        int
	store               casestore.Store
	actions             *action.Registry
	sink                audit.Sink
	noModel             bool
}

// Option configures a Triage instance.
type Option func(*options)

// WithModelDir sets the directory containing model files.
// Expects: model_quantized.onnx, vocab.txt, 2_Dense/model.safetensors.
func WithModelDir(dir string) Option {
	return func(o *options) {
		o.modelDir = dir
	}
}

// WithModelPaths sets explicit paths for each model file.
// Use this when model files aren't in the default directory layout.
func WithModelPaths(model, vocab, projection string) Option {
	return func(o *options) {
		o.modelPath = model
		o.vocabPath = vocab
		o.projectionPath = projection
	}
}

// WithoutModel skips model loading entirely. Intent classification and
// similarity search run degraded.
func WithoutModel() Option {
	return func(o *options) {
		o.noModel = true
	}
}

// WithIntentThreshold sets the minimum cosine similarity for an intent
// label. Below it, intent is "unknown". Default: 0.35.
func WithIntentThreshold(t float64) Option {
	return func(o *options) {
		o.intentThreshold = t
	}
}

// WithSimilarityThreshold sets the floor for relating two cases.
// Default: 0.75.
func WithSimilarityThreshold(t float64) Option {
	return func(o *options) {
		o.similarityThreshold = t
	}
}

// WithSeverityConfidence sets the confidence reported on severity results.
// Default: 0.85.
func WithSeverityConfidence(c float64) Option {
	return func(o *options) {
		o.severityConfidence = c
	}
}

// WithDedupWindow suppresses re-dispatch of the same action for the same
// case within the window. Default: disabled.
func WithDedupWindow(d time.Duration) Option {
	return func(o *options) {
		o.dedupWindow = d
	}
}

// WithHistoryLimit caps the historical corpus fed to similarity search.
// Default: 200.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyLimit = n
	}
}

// WithStore replaces the default in-memory case store.
func WithStore(s casestore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithActions sets the collaborator registry. Without one, every
// recommendation ends as a no_handler outcome.
func WithActions(reg *action.Registry) Option {
	return func(o *options) {
		o.actions = reg
	}
}

// WithAuditSink enables the decision trail.
func WithAuditSink(s audit.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

func defaultOptions() options {
	return options{
		intentThreshold:     0.35,
		similarityThreshold: 0.75,
		severityConfidence:  0.85,
		historyLimit:        200,
	}
}

// resolvePaths determines the model, vocab, and projection file paths.
// Explicit paths take precedence over modelDir.
func resolvePaths(o options) (model, vocab, projection string) {
	if o.modelPath != "" {
		return o.modelPath, o.vocabPath, o.projectionPath
	}
	dir := o.modelDir
	if dir == "" {
		dir = "models"
	}
	return filepath.Join(dir, "model_quantized.onnx"),
		filepath.Join(dir, "vocab.txt"),
		filepath.Join(dir, "2_Dense", "model.safetensors")
}
