package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/copperline/triage/internal/audit"
	"github.com/copperline/triage/internal/model"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteAndQueryByCase(t *testing.T) {
	s := newTestSink(t)
	ctx := context.Background()

	rec := audit.Record{
		ID:            "audit-1",
		CaseID:        "case-1",
		Timestamp:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		SeverityLevel: model.SeverityCritical,
		Confidence:    0.875,
		Reasoning:     "CRITICAL severity requires immediate ambulance dispatch",
		ActionsTaken:  []string{"ambulance_dispatched"},
		Recommendations: []model.Recommendation{
			{Type: model.RecDispatchAmbulance, Priority: 1, Confidence: 0.95},
		},
	}
	if err := s.Write(ctx, rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	s.Write(ctx, audit.Record{ID: "audit-2", CaseID: "other", Timestamp: time.Now()})

	got, err := s.ByCase(ctx, "case-1")
	if err != nil {
		t.Fatalf("by case: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].ID != "audit-1" || got[0].Confidence != 0.875 {
		t.Fatalf("round trip mismatch: %+v", got[0])
	}
	if len(got[0].Recommendations) != 1 || got[0].Recommendations[0].Type != model.RecDispatchAmbulance {
		t.Fatalf("recommendations lost: %+v", got[0].Recommendations)
	}
}

func TestByCaseOrdersByTimestamp(t *testing.T) {
	s := newTestSink(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	s.Write(ctx, audit.Record{ID: "later", CaseID: "c1", Timestamp: base.Add(time.Hour)})
	s.Write(ctx, audit.Record{ID: "earlier", CaseID: "c1", Timestamp: base})

	got, err := s.ByCase(ctx, "c1")
	if err != nil {
		t.Fatalf("by case: %v", err)
	}
	if len(got) != 2 || got[0].ID != "earlier" || got[1].ID != "later" {
		t.Fatalf("expected oldest first, got %+v", got)
	}
}

func TestByCaseEmpty(t *testing.T) {
	s := newTestSink(t)
	got, err := s.ByCase(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("by case: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}
