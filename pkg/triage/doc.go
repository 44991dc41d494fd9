// Package triage provides an embeddable emergency-case triage engine: it
// extracts features from caller text, scores severity, finds related cases,
// and decides which dispatch actions to take.
//
// Quick start:
//
//	tr, err := triage.New(triage.WithModelDir("models/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Close()
//
//	tr.AddCase(ctx, triage.Case{
//	    ID:            "case-1",
//	    Description:   "warehouse fire, workers trapped",
//	    EmergencyType: "fire",
//	})
//	report, _ := tr.Triage(ctx, "case-1")
//	fmt.Println(report.Severity.Level, report.Decision.ActionsTaken)
//
// A Triage instance is safe for concurrent use. Model loading is expensive;
// create once, reuse across requests. Without model files the engine runs in
// degraded mode: intent falls back to "unknown" and similarity search
// returns empty results, while severity scoring and the rule table keep
// working.
package triage
