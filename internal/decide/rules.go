package decide

import (
	"fmt"
	"strings"

	"github.com/copperline/triage/internal/model"
)

// Rule declares when one recommendation fires. A rule matches when the case
// severity is in Severities or the case emergency type is in EmergencyTypes;
// an empty set never matches on its own. Rules are evaluated in slice order,
// which also fixes recommendation and outcome ordering.
type Rule struct {
	Type           model.RecommendationType
	Priority       int
	Confidence     float64
	Severities     []model.SeverityLevel
	EmergencyTypes []model.EmergencyType
	Reason         func(dctx Context) string
}

// Matches reports whether the rule fires for the given decision context.
func (r Rule) Matches(dctx Context) bool {
	for _, s := range r.Severities {
		if dctx.Severity == s {
			return true
		}
	}
	for _, t := range r.EmergencyTypes {
		if dctx.EmergencyType == t {
			return true
		}
	}
	return false
}

// DefaultRules returns the standing dispatch policy.
func DefaultRules() []Rule {
	return []Rule{
		{
			Type:       model.RecDispatchAmbulance,
			Priority:   1,
			Confidence: 0.95,
			Severities: []model.SeverityLevel{model.SeverityHigh, model.SeverityCritical},
			Reason: func(dctx Context) string {
				return fmt.Sprintf("%s severity requires immediate ambulance dispatch",
					strings.ToUpper(string(dctx.Severity)))
			},
		},
		{
			Type:           model.RecAlertHospital,
			Priority:       2,
			Confidence:     0.90,
			Severities:     []model.SeverityLevel{model.SeverityHigh, model.SeverityCritical},
			EmergencyTypes: []model.EmergencyType{model.TypeMedical},
			Reason: func(Context) string {
				return "Medical emergency requires hospital preparation"
			},
		},
		{
			Type:           model.RecNotifyPolice,
			Priority:       3,
			Confidence:     0.85,
			EmergencyTypes: []model.EmergencyType{model.TypeCrime, model.TypeFire, model.TypeAccident},
			Reason: func(dctx Context) string {
				return fmt.Sprintf("%s requires police presence", dctx.EmergencyType)
			},
		},
		{
			Type:       model.RecRequestRoadClearance,
			Priority:   4,
			Confidence: 0.80,
			Severities: []model.SeverityLevel{model.SeverityCritical},
			Reason: func(Context) string {
				return "Critical case may require traffic clearance"
			},
		},
	}
}
