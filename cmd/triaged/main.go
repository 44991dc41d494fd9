package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/copperline/triage/internal/action"
	"github.com/copperline/triage/internal/audit"
	auditasync "github.com/copperline/triage/internal/audit/async"
	auditfile "github.com/copperline/triage/internal/audit/file"
	auditmulti "github.com/copperline/triage/internal/audit/multi"
	auditsqlite "github.com/copperline/triage/internal/audit/sqlite"
	auditstdout "github.com/copperline/triage/internal/audit/stdout"
	auditwebhook "github.com/copperline/triage/internal/audit/webhook"
	"github.com/copperline/triage/internal/casestore"
	"github.com/copperline/triage/internal/config"
	"github.com/copperline/triage/internal/decide"
	"github.com/copperline/triage/internal/logging"
	"github.com/copperline/triage/internal/nlp/embedder"
	"github.com/copperline/triage/internal/nlp/entities"
	"github.com/copperline/triage/internal/nlp/intent"
	"github.com/copperline/triage/internal/pipeline"
	"github.com/copperline/triage/internal/server"
	"github.com/copperline/triage/internal/triage/cluster"
	"github.com/copperline/triage/internal/triage/extract"
	"github.com/copperline/triage/internal/triage/severity"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.Audit.Sink == "stdout", logging.ParseLevel(cfg.LogLevel))

	// Load the embedding model. Failure degrades intent classification and
	// similarity search instead of aborting startup.
	var emb embedder.Embedder
	onnx, err := embedder.New(cfg.NLP.ModelPath, cfg.NLP.VocabPath, cfg.NLP.ProjectionPath)
	if err != nil {
		slog.Warn("model unavailable, running degraded", "error", err)
	} else {
		emb = onnx
		defer onnx.Close()
	}

	var intents extract.IntentClassifier
	if emb != nil {
		cls, err := intent.New(emb, cfg.NLP.IntentThreshold, intent.DefaultLabels())
		if err != nil {
			slog.Warn("intent classifier unavailable, running degraded", "error", err)
		} else {
			intents = cls
		}
	}

	store, err := casestore.Open(cfg.Store)
	if err != nil {
		log.Fatalf("failed to open case store: %v", err)
	}

	sink, err := buildSink(cfg.Audit)
	if err != nil {
		log.Fatalf("failed to build audit sink: %v", err)
	}

	deciderOpts := []decide.Option{decide.WithActionTimeout(cfg.Actions.Timeout)}
	if cfg.Triage.DispatchDedupWindow > 0 {
		deciderOpts = append(deciderOpts,
			decide.WithLedger(decide.NewLedger(cfg.Triage.DispatchDedupWindow)))
	}

	pipe := pipeline.New(store,
		extract.New(intents, entities.NewPattern()),
		severity.New(cfg.Triage.SeverityConfidence),
		cluster.New(emb, cfg.Triage.SimilarityThreshold),
		decide.New(store, action.RegistryFromConfig(cfg.Actions), deciderOpts...),
		pipeline.WithAuditSink(sink),
		pipeline.WithHistoryLimit(cfg.Triage.HistoryLimit))
	defer pipe.Close()

	srv := server.New(cfg.Server, pipe)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// buildSink constructs the configured audit destination. A comma-separated
// list fans out to every named sink; the async wrapper goes around the
// whole arrangement.
func buildSink(cfg config.AuditConfig) (audit.Sink, error) {
	names := strings.Split(cfg.Sink, ",")
	var sinks []audit.Sink
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == "none" {
			continue
		}
		s, err := buildOneSink(name, cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	var sink audit.Sink
	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		sink = sinks[0]
	default:
		sink = auditmulti.New(sinks...)
	}

	if cfg.Async {
		sink = auditasync.New(sink)
	}
	return sink, nil
}

func buildOneSink(name string, cfg config.AuditConfig) (audit.Sink, error) {
	switch name {
	case "stdout":
		return auditstdout.New(cfg.Pretty), nil
	case "file":
		return auditfile.New(cfg.FilePath)
	case "webhook":
		return auditwebhook.New(cfg.WebhookURL), nil
	case "sqlite":
		return auditsqlite.New(cfg.SQLite)
	default:
		return nil, errors.New("unknown audit sink " + name)
	}
}
