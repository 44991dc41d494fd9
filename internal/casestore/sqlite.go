package casestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/copperline/triage/internal/model"
)

const casesSchema = `
CREATE TABLE IF NOT EXISTS cases (
	id                TEXT PRIMARY KEY,
	description       TEXT NOT NULL,
	emergency_type    TEXT NOT NULL,
	severity_level    TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	people_involved   INTEGER NOT NULL DEFAULT 0,
	injuries_reported INTEGER NOT NULL DEFAULT 0,
	urgency_score     REAL,
	call_duration_ms  INTEGER NOT NULL DEFAULT 0,
	reported_at       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cases_reported_at ON cases(reported_at DESC);
`

// SQLite stores cases in a local database file. The driver is pure Go, so
// no cgo toolchain is needed.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the case database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("casestore: open %s: %w", path, err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(casesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("casestore: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(ctx context.Context, id string) (model.CaseContext, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, emergency_type, severity_level, location,
		       people_involved, injuries_reported, urgency_score,
		       call_duration_ms, reported_at
		FROM cases WHERE id = ?`, id)

	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return model.CaseContext{}, false, nil
	}
	if err != nil {
		return model.CaseContext{}, false, fmt.Errorf("casestore: get %s: %w", id, err)
	}
	return c, true, nil
}

func (s *SQLite) Put(ctx context.Context, c model.CaseContext) error {
	var urgency any
	if c.UrgencyScore != nil {
		urgency = *c.UrgencyScore
	}
	var reported string
	if !c.ReportedAt.IsZero() {
		reported = c.ReportedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (id, description, emergency_type, severity_level,
			location, people_involved, injuries_reported, urgency_score,
			call_duration_ms, reported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description       = excluded.description,
			emergency_type    = excluded.emergency_type,
			severity_level    = excluded.severity_level,
			location          = excluded.location,
			people_involved   = excluded.people_involved,
			injuries_reported = excluded.injuries_reported,
			urgency_score     = excluded.urgency_score,
			call_duration_ms  = excluded.call_duration_ms,
			reported_at       = excluded.reported_at`,
		c.ID, c.Description, string(c.EmergencyType), string(c.SeverityLevel),
		c.Location, c.PeopleInvolved, c.InjuriesReported, urgency,
		c.CallDuration.Milliseconds(), reported)
	if err != nil {
		return fmt.Errorf("casestore: put %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]model.CaseContext, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, emergency_type, severity_level, location,
		       people_involved, injuries_reported, urgency_score,
		       call_duration_ms, reported_at
		FROM cases ORDER BY reported_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("casestore: recent: %w", err)
	}
	defer rows.Close()

	var out []model.CaseContext
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("casestore: recent: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (model.CaseContext, error) {
	var (
		c          model.CaseContext
		etype      string
		level      string
		urgency    sql.NullFloat64
		durationMS int64
		reported   string
	)
	err := row.Scan(&c.ID, &c.Description, &etype, &level, &c.Location,
		&c.PeopleInvolved, &c.InjuriesReported, &urgency, &durationMS, &reported)
	if err != nil {
		return model.CaseContext{}, err
	}
	c.EmergencyType = model.EmergencyType(etype)
	c.SeverityLevel = model.SeverityLevel(level)
	if urgency.Valid {
		v := urgency.Float64
		c.UrgencyScore = &v
	}
	c.CallDuration = time.Duration(durationMS) * time.Millisecond
	if reported != "" {
		if ts, err := time.Parse(time.RFC3339Nano, reported); err == nil {
			c.ReportedAt = ts
		}
	}
	return c, nil
}
