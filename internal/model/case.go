package model

import "time"

// EmergencyType classifies a case at intake.
type EmergencyType string

const (
	TypeAccident        EmergencyType = "accident"
	TypeMedical         EmergencyType = "medical"
	TypeFire            EmergencyType = "fire"
	TypeCrime           EmergencyType = "crime"
	TypeNaturalDisaster EmergencyType = "natural_disaster"
	TypeOther           EmergencyType = "other"
)

// SeverityLevel is the discrete urgency classification derived from a
// continuous severity score.
type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "critical"
	SeverityHigh     SeverityLevel = "high"
	SeverityMedium   SeverityLevel = "medium"
	SeverityLow      SeverityLevel = "low"
)

// CaseContext is the immutable input bundle for one triage cycle.
// The pipeline never mutates it; the caller retains ownership.
type CaseContext struct {
	ID               string        `json:"case_id"`
	Description      string        `json:"description"`
	EmergencyType    EmergencyType `json:"emergency_type"`
	SeverityLevel    SeverityLevel `json:"severity_level,omitempty"`
	Location         string        `json:"location,omitempty"`
	PeopleInvolved   int           `json:"people_involved"`
	InjuriesReported int           `json:"injuries_reported"`
	UrgencyScore     *float64      `json:"urgency_score,omitempty"`
	CallDuration     time.Duration `json:"call_duration,omitempty"`
	ReportedAt       time.Time     `json:"reported_at,omitempty"`
}
