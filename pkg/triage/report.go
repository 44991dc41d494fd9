package triage

import (
	"time"

	"github.com/copperline/triage/internal/model"
	"github.com/copperline/triage/internal/pipeline"
)

// Case is one emergency case as callers of the public API see it.
type Case struct {
	ID               string        `json:"case_id"`
	Description      string        `json:"description"`
	EmergencyType    string        `json:"emergency_type"`
	SeverityLevel    string        `json:"severity_level,omitempty"`
	Location         string        `json:"location,omitempty"`
	PeopleInvolved   int           `json:"people_involved"`
	InjuriesReported int           `json:"injuries_reported"`
	UrgencyScore     *float64      `json:"urgency_score,omitempty"`
	CallDuration     time.Duration `json:"call_duration,omitempty"`
	ReportedAt       time.Time     `json:"reported_at,omitempty"`
}

// Features are the NLP-derived hints extracted from caller text.
type Features struct {
	Intent          string   `json:"intent"`
	IntentScore     float64  `json:"intent_score"`
	UrgencyScore    float64  `json:"urgency_score"`
	CriticalKeyword bool     `json:"critical_keyword"`
	Locations       []string `json:"locations,omitempty"`
	People          []string `json:"people,omitempty"`
	Organizations   []string `json:"organizations,omitempty"`
	Dates           []string `json:"dates,omitempty"`
	Numbers         []string `json:"numbers,omitempty"`
}

// Severity is the scored urgency of one case.
type Severity struct {
	Score      float64 `json:"severity_score"`
	Level      string  `json:"severity_level"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Similarity lists the cases related to one query case.
type Similarity struct {
	RelatedCases     []string           `json:"related_cases"`
	SimilarityScores map[string]float64 `json:"similarity_scores"`
	ClusterID        string             `json:"cluster_id,omitempty"`
}

// Recommendation is one proposed dispatch action.
type Recommendation struct {
	Type       string  `json:"type"`
	Priority   int     `json:"priority"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Outcome records how one recommendation's execution ended.
type Outcome struct {
	Type   string `json:"type"`
	Label  string `json:"label"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Decision is the aggregated result of one decision cycle.
type Decision struct {
	CaseID          string           `json:"case_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Confidence      float64          `json:"confidence"`
	Reasoning       string           `json:"reasoning"`
	ActionsTaken    []string         `json:"actions_taken"`
	Outcomes        []Outcome        `json:"action_outcomes"`
}

// Report bundles everything one triage cycle produced.
type Report struct {
	Case     Case       `json:"case"`
	Features Features   `json:"features"`
	Severity Severity   `json:"severity"`
	Similar  Similarity `json:"similarity"`
	Decision Decision   `json:"decision"`
}

// Cluster is a group of related cases.
type Cluster struct {
	ID      string   `json:"cluster_id"`
	CaseIDs []string `json:"case_ids"`
}

// Clusters is the output of batch clustering.
type Clusters struct {
	Clusters    []Cluster         `json:"clusters"`
	Assignments map[string]string `json:"cluster_assignments"`
}

func caseToModel(c Case) model.CaseContext {
	return model.CaseContext{
		ID:               c.ID,
		Description:      c.Description,
		EmergencyType:    model.EmergencyType(c.EmergencyType),
		SeverityLevel:    model.SeverityLevel(c.SeverityLevel),
		Location:         c.Location,
		PeopleInvolved:   c.PeopleInvolved,
		InjuriesReported: c.InjuriesReported,
		UrgencyScore:     c.UrgencyScore,
		CallDuration:     c.CallDuration,
		ReportedAt:       c.ReportedAt,
	}
}

func caseFromModel(c model.CaseContext) Case {
	return Case{
		ID:               c.ID,
		Description:      c.Description,
		EmergencyType:    string(c.EmergencyType),
		SeverityLevel:    string(c.SeverityLevel),
		Location:         c.Location,
		PeopleInvolved:   c.PeopleInvolved,
		InjuriesReported: c.InjuriesReported,
		UrgencyScore:     c.UrgencyScore,
		CallDuration:     c.CallDuration,
		ReportedAt:       c.ReportedAt,
	}
}

func featuresFromModel(fs model.FeatureSet) Features {
	return Features{
		Intent:          fs.Intent,
		IntentScore:     fs.IntentScore,
		UrgencyScore:    fs.UrgencyScore,
		CriticalKeyword: fs.CriticalKeyword,
		Locations:       fs.Entities.Locations,
		People:          fs.Entities.People,
		Organizations:   fs.Entities.Organizations,
		Dates:           fs.Entities.Dates,
		Numbers:         fs.Entities.Numbers,
	}
}

func severityFromModel(s model.SeverityResult) Severity {
	return Severity{
		Score:      s.Score,
		Level:      string(s.Level),
		Reasoning:  s.Reasoning,
		Confidence: s.Confidence,
	}
}

func similarityFromModel(s model.SimilarityResult) Similarity {
	return Similarity{
		RelatedCases:     s.RelatedCases,
		SimilarityScores: s.SimilarityScores,
		ClusterID:        s.ClusterID,
	}
}

func decisionFromModel(d model.DecisionResult) Decision {
	recs := make([]Recommendation, len(d.Recommendations))
	for i, r := range d.Recommendations {
		recs[i] = Recommendation{
			Type:       string(r.Type),
			Priority:   r.Priority,
			Confidence: r.Confidence,
			Reasoning:  r.Reasoning,
		}
	}
	outs := make([]Outcome, len(d.Outcomes))
	for i, o := range d.Outcomes {
		outs[i] = Outcome{
			Type:   string(o.Type),
			Label:  o.Label,
			Status: string(o.Status),
			Error:  o.Error,
		}
	}
	return Decision{
		CaseID:          d.CaseID,
		Recommendations: recs,
		Confidence:      d.Confidence,
		Reasoning:       d.Reasoning,
		ActionsTaken:    d.ActionsTaken,
		Outcomes:        outs,
	}
}

func reportFromPipeline(r pipeline.Report) Report {
	return Report{
		Case:     caseFromModel(r.Case),
		Features: featuresFromModel(r.Features),
		Severity: severityFromModel(r.Severity),
		Similar:  similarityFromModel(r.Similar),
		Decision: decisionFromModel(r.Decision),
	}
}

func clustersFromModel(c model.ClusterResult) Clusters {
	clusters := make([]Cluster, len(c.Clusters))
	for i, cl := range c.Clusters {
		clusters[i] = Cluster{ID: cl.ID, CaseIDs: cl.CaseIDs}
	}
	return Clusters{Clusters: clusters, Assignments: c.Assignments}
}
