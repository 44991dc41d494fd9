// Package casestore provides access to emergency case records. Backends:
// in-memory (tests, embedding), SQLite (single-node deployments), and REST
// (an upstream case-management service).
package casestore

import (
	"context"
	"fmt"

	"github.com/copperline/triage/internal/config"
	"github.com/copperline/triage/internal/model"
)

// Store is the case lookup capability injected into the pipeline.
//
// Get reports absence via the bool, not an error: a missing case is a normal
// outcome, errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, id string) (model.CaseContext, bool, error)
	Put(ctx context.Context, c model.CaseContext) error
	// Recent returns up to limit cases, most recently reported first.
	Recent(ctx context.Context, limit int) ([]model.CaseContext, error)
}

// Open constructs the store selected by cfg.Backend.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(cfg.SQLite)
	case "rest":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("casestore: rest backend requires an endpoint")
		}
		return NewREST(cfg.Endpoint, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("casestore: unknown backend %q", cfg.Backend)
	}
}
