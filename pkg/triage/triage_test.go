package triage

import (
	"context"
	"testing"
	"time"

	"github.com/copperline/triage/internal/action"
	"github.com/copperline/triage/internal/model"
)

func newDegraded(t *testing.T, opts ...Option) *Triage {
	t.Helper()
	tr, err := New(append([]Option{WithoutModel()}, opts...)...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func registryAllOK() *action.Registry {
	reg := action.NewRegistry()
	for _, typ := range []model.RecommendationType{
		model.RecDispatchAmbulance, model.RecAlertHospital,
		model.RecNotifyPolice, model.RecRequestRoadClearance,
	} {
		reg.Register(typ, action.Func(func(context.Context, string) error { return nil }))
	}
	return reg
}

func TestTriageFullCycleDegraded(t *testing.T) {
	tr := newDegraded(t, WithActions(registryAllOK()))
	ctx := context.Background()

	urgency := 0.95
	err := tr.AddCase(ctx, Case{
		ID:               "fire-1",
		Description:      "Warehouse fire, workers trapped inside",
		EmergencyType:    "fire",
		PeopleInvolved:   4,
		InjuriesReported: 2,
		UrgencyScore:     &urgency,
	})
	if err != nil {
		t.Fatalf("add case: %v", err)
	}

	report, err := tr.Triage(ctx, "fire-1")
	if err != nil {
		t.Fatalf("triage: %v", err)
	}
	if report.Severity.Level != "critical" {
		t.Fatalf("expected critical, got %s (score %v)", report.Severity.Level, report.Severity.Score)
	}
	if len(report.Decision.ActionsTaken) != 4 {
		t.Fatalf("expected 4 actions, got %v", report.Decision.ActionsTaken)
	}
	// Degraded mode: no model means unknown intent and no similar cases.
	if report.Features.Intent != "unknown" {
		t.Fatalf("expected unknown intent without a model, got %q", report.Features.Intent)
	}
	if len(report.Similar.RelatedCases) != 0 {
		t.Fatalf("expected no related cases, got %v", report.Similar.RelatedCases)
	}
}

func TestTriageMissingCase(t *testing.T) {
	tr := newDegraded(t)
	report, err := tr.Triage(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("missing case must not error: %v", err)
	}
	if report.Decision.Reasoning != "Case not found" || report.Decision.Confidence != 0.0 {
		t.Fatalf("unexpected decision %+v", report.Decision)
	}
}

func TestTriageEmptyIDErrors(t *testing.T) {
	tr := newDegraded(t)
	if _, err := tr.Triage(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty case id")
	}
}

func TestAddCaseDefaults(t *testing.T) {
	tr := newDegraded(t)
	ctx := context.Background()

	if err := tr.AddCase(ctx, Case{ID: "c1", Description: "minor incident"}); err != nil {
		t.Fatalf("add case: %v", err)
	}
	report, err := tr.Triage(ctx, "c1")
	if err != nil {
		t.Fatalf("triage: %v", err)
	}
	if report.Case.EmergencyType != "other" {
		t.Fatalf("expected default type other, got %q", report.Case.EmergencyType)
	}
	if report.Case.ReportedAt.IsZero() {
		t.Fatal("expected report time to be stamped")
	}
}

func TestSeverityLookup(t *testing.T) {
	tr := newDegraded(t)
	ctx := context.Background()

	tr.AddCase(ctx, Case{ID: "med-1", Description: "patient unconscious", EmergencyType: "medical"})

	sev, ok, err := tr.Severity(ctx, "med-1")
	if err != nil || !ok {
		t.Fatalf("severity: ok=%v err=%v", ok, err)
	}
	if sev.Level == "" || sev.Confidence != 0.85 {
		t.Fatalf("unexpected severity %+v", sev)
	}

	if _, ok, _ := tr.Severity(ctx, "nope"); ok {
		t.Fatal("expected absent case")
	}
}

func TestAnalyzeText(t *testing.T) {
	tr := newDegraded(t)
	fs := tr.Analyze("urgent, 3 people hurt on Elm Street")
	if fs.UrgencyScore != 1.0 {
		t.Fatalf("expected urgency 1.0, got %v", fs.UrgencyScore)
	}
	if len(fs.Locations) != 1 || fs.Locations[0] != "Elm Street" {
		t.Fatalf("unexpected locations %v", fs.Locations)
	}
}

func TestClusterAllDegraded(t *testing.T) {
	tr := newDegraded(t)
	res, err := tr.ClusterAll(context.Background())
	if err != nil {
		t.Fatalf("cluster: %v", err)
	}
	if len(res.Clusters) != 0 {
		t.Fatalf("expected no clusters without a model, got %+v", res)
	}
}

func TestNoActionsMeansNoHandlers(t *testing.T) {
	tr := newDegraded(t)
	ctx := context.Background()

	urgency := 0.95
	tr.AddCase(ctx, Case{
		ID: "fire-2", Description: "house fire, severe bleeding",
		EmergencyType: "fire", PeopleInvolved: 3, InjuriesReported: 2,
		UrgencyScore: &urgency,
	})

	report, err := tr.Triage(ctx, "fire-2")
	if err != nil {
		t.Fatalf("triage: %v", err)
	}
	if len(report.Decision.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if len(report.Decision.ActionsTaken) != 0 {
		t.Fatalf("no registry means nothing executes, got %v", report.Decision.ActionsTaken)
	}
	for _, o := range report.Decision.Outcomes {
		if o.Status != "no_handler" {
			t.Fatalf("expected no_handler outcomes, got %+v", o)
		}
	}
}

func TestDedupWindowAcrossCycles(t *testing.T) {
	tr := newDegraded(t, WithActions(registryAllOK()), WithDedupWindow(time.Hour))
	ctx := context.Background()

	urgency := 0.95
	tr.AddCase(ctx, Case{
		ID: "fire-3", Description: "factory fire, workers trapped",
		EmergencyType: "fire", PeopleInvolved: 5, InjuriesReported: 3,
		UrgencyScore: &urgency,
	})

	first, err := tr.Triage(ctx, "fire-3")
	if err != nil {
		t.Fatalf("first triage: %v", err)
	}
	if len(first.Decision.ActionsTaken) == 0 {
		t.Fatal("first cycle must dispatch")
	}

	second, err := tr.Triage(ctx, "fire-3")
	if err != nil {
		t.Fatalf("second triage: %v", err)
	}
	if len(second.Decision.ActionsTaken) != 0 {
		t.Fatalf("second cycle must be suppressed, got %v", second.Decision.ActionsTaken)
	}
}
