package casestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/copperline/triage/internal/model"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cases.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	urgency := 0.9
	want := model.CaseContext{
		ID:               "case-001",
		Description:      "apartment fire, third floor",
		EmergencyType:    model.TypeFire,
		SeverityLevel:    model.SeverityCritical,
		Location:         "14 Birch Road",
		PeopleInvolved:   6,
		InjuriesReported: 2,
		UrgencyScore:     &urgency,
		CallDuration:     95 * time.Second,
		ReportedAt:       time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
	}
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Get(ctx, "case-001")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Description != want.Description || got.EmergencyType != want.EmergencyType {
		t.Fatalf("mismatch: %+v", got)
	}
	if got.UrgencyScore == nil || *got.UrgencyScore != 0.9 {
		t.Fatalf("urgency lost: %+v", got.UrgencyScore)
	}
	if !got.ReportedAt.Equal(want.ReportedAt) {
		t.Fatalf("reported_at mismatch: %v", got.ReportedAt)
	}
	if got.CallDuration != want.CallDuration {
		t.Fatalf("call duration mismatch: %v", got.CallDuration)
	}
}

func TestSQLiteGetAbsent(t *testing.T) {
	s := openTestDB(t)
	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("absent case must not error: %v", err)
	}
	if ok {
		t.Fatal("expected absent")
	}
}

func TestSQLiteNilUrgencyStaysNil(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	s.Put(ctx, model.CaseContext{ID: "c1", Description: "d", EmergencyType: model.TypeOther})
	got, _, _ := s.Get(ctx, "c1")
	if got.UrgencyScore != nil {
		t.Fatalf("expected nil urgency, got %v", *got.UrgencyScore)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	s.Put(ctx, model.CaseContext{ID: "c1", Description: "initial", EmergencyType: model.TypeOther})
	s.Put(ctx, model.CaseContext{ID: "c1", Description: "updated", EmergencyType: model.TypeMedical})

	got, _, _ := s.Get(ctx, "c1")
	if got.Description != "updated" || got.EmergencyType != model.TypeMedical {
		t.Fatalf("upsert failed: %+v", got)
	}

	recent, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected single row after upsert, got %d", len(recent))
	}
}

func TestSQLiteRecentOrder(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		s.Put(ctx, model.CaseContext{
			ID: id, Description: "d", EmergencyType: model.TypeOther,
			ReportedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("expected [c b], got %+v", recent)
	}
}
