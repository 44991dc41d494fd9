// Package sqlite persists audit records to a local database so past
// decisions stay queryable after process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/copperline/triage/internal/audit"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	audit_id       TEXT PRIMARY KEY,
	case_id        TEXT NOT NULL,
	timestamp      TEXT NOT NULL,
	severity_level TEXT NOT NULL DEFAULT '',
	confidence     REAL NOT NULL,
	reasoning      TEXT NOT NULL,
	record         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_case_id ON decisions(case_id);
`

// Sink writes one row per decision. Common query fields are stored as
// columns; the full record is kept as JSON alongside them.
type Sink struct {
	db *sql.DB
}

// New opens (creating if necessary) the audit database at path.
func New(path string) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite sink: create schema: %w", err)
	}
	return &Sink{db: db}, nil
}

func (s *Sink) Write(ctx context.Context, rec audit.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sqlite sink: marshal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (audit_id, case_id, timestamp, severity_level,
			confidence, reasoning, record)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CaseID, rec.Timestamp.UTC().Format(time.RFC3339Nano),
		string(rec.SeverityLevel), rec.Confidence, rec.Reasoning, string(blob))
	if err != nil {
		return fmt.Errorf("sqlite sink: insert: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}

// ByCase returns the stored records for one case, oldest first.
func (s *Sink) ByCase(ctx context.Context, caseID string) ([]audit.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM decisions WHERE case_id = ? ORDER BY timestamp ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: query: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("sqlite sink: scan: %w", err)
		}
		var rec audit.Record
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("sqlite sink: unmarshal: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
