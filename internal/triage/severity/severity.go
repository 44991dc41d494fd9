// Package severity converts extracted features and structured case fields
// into a severity score and discrete level.
package severity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/copperline/triage/internal/model"
)

// ErrInvalidInput is returned when the case identifier is missing. It is the
// only error this package produces; malformed optional fields degrade to
// defaults instead.
var ErrInvalidInput = errors.New("severity: missing case id")

// DefaultConfidence is used until a trained confidence model replaces the
// constant.
const DefaultConfidence = 0.85

// Fixed factor weights. Together with the type weight they sum to 1.0, but
// the final score is clamped anyway.
const (
	urgencyWeight  = 0.4
	peopleWeight   = 0.2
	injuriesWeight = 0.2
	keywordWeight  = 0.1
	typeWeight     = 0.1
)

// Level thresholds, inclusive lower bounds.
const (
	criticalFloor = 0.85
	highFloor     = 0.65
	mediumFloor   = 0.40
)

// typeWeights maps emergency types to their fixed contribution factor.
// Unknown types fall back to 0.5.
var typeWeights = map[model.EmergencyType]float64{
	model.TypeFire:            0.9,
	model.TypeNaturalDisaster: 0.85,
	model.TypeMedical:         0.8,
	model.TypeAccident:        0.7,
	model.TypeCrime:           0.6,
	model.TypeOther:           0.5,
}

// criticalKeywords are matched case-insensitively as substrings of the
// description.
var criticalKeywords = []string{
	"unconscious", "not breathing", "cardiac arrest",
	"severe bleeding", "fire", "explosion", "multiple injuries",
	"trapped", "critical condition",
}

// Context carries the loosely-structured inputs of the scorer as named
// optional fields. Nil pointers take the documented defaults: urgency 0.5,
// people involved 1, injuries 0, emergency type "other".
type Context struct {
	UrgencyScore     *float64
	PeopleInvolved   *int
	InjuriesReported *int
	EmergencyType    model.EmergencyType
	Description      string
	CallDuration     time.Duration
}

// Scorer computes severity results. The confidence value is fixed per
// instance pending a trained model.
type Scorer struct {
	confidence float64
}

// New creates a Scorer emitting the given confidence. Zero or negative
// confidence falls back to DefaultConfidence.
func New(confidence float64) *Scorer {
	if confidence <= 0 {
		confidence = DefaultConfidence
	}
	return &Scorer{confidence: confidence}
}

// Score computes the severity result for one case. It fails only when caseID
// is empty; every optional context field degrades to its default.
func (s *Scorer) Score(caseID string, ctx Context) (model.SeverityResult, error) {
	if caseID == "" {
		return model.SeverityResult{}, ErrInvalidInput
	}

	urgency := 0.5
	if ctx.UrgencyScore != nil {
		urgency = *ctx.UrgencyScore
	}
	people := 1
	if ctx.PeopleInvolved != nil {
		people = *ctx.PeopleInvolved
	}
	injuries := 0
	if ctx.InjuriesReported != nil {
		injuries = *ctx.InjuriesReported
	}
	emergencyType := ctx.EmergencyType
	if emergencyType == "" {
		emergencyType = model.TypeOther
	}
	hasKeywords := ContainsCriticalKeyword(ctx.Description)

	score := urgency * urgencyWeight
	score += clamp01(float64(people)/5.0) * peopleWeight
	score += clamp01(float64(injuries)/3.0) * injuriesWeight
	if hasKeywords {
		score += keywordWeight
	}
	tw, ok := typeWeights[emergencyType]
	if !ok {
		tw = 0.5
	}
	score += tw * typeWeight
	score = clamp01(score)

	level := LevelFor(score)

	return model.SeverityResult{
		Score:      score,
		Level:      level,
		Reasoning:  reasoning(level, urgency, people, injuries, hasKeywords),
		Confidence: s.confidence,
	}, nil
}

// LevelFor maps a score to its discrete severity level. Total and
// deterministic over all float inputs.
func LevelFor(score float64) model.SeverityLevel {
	switch {
	case score >= criticalFloor:
		return model.SeverityCritical
	case score >= highFloor:
		return model.SeverityHigh
	case score >= mediumFloor:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// ContainsCriticalKeyword reports whether the text carries any critical
// phrase. Empty text never matches.
func ContainsCriticalKeyword(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// reasoning appends one clause per triggered factor, in fixed order.
func reasoning(level model.SeverityLevel, urgency float64, people, injuries int, hasKeywords bool) string {
	var reasons []string
	if urgency > 0.8 {
		reasons = append(reasons, "High urgency reported")
	}
	if people > 1 {
		reasons = append(reasons, fmt.Sprintf("%d people involved", people))
	}
	if injuries > 0 {
		reasons = append(reasons, fmt.Sprintf("%d injuries reported", injuries))
	}
	if hasKeywords {
		reasons = append(reasons, "Critical keywords detected")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Standard emergency case")
	}
	return strings.ToUpper(string(level)) + " severity: " + strings.Join(reasons, ", ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
