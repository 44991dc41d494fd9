// Package extract derives intent, entities, and urgency hints from raw
// caller text. Missing NLP capabilities degrade the output, never the call.
package extract

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/copperline/triage/internal/model"
	"github.com/copperline/triage/internal/nlp/entities"
	"github.com/copperline/triage/internal/triage/severity"
)

// baseUrgency is the floor applied to any non-empty text: no live case is
// ever scored below baseline urgency.
const baseUrgency = 0.5

// urgencyKeywords maps urgency-indicating phrases to scores. The final
// urgency is the maximum matched score.
var urgencyKeywords = map[string]float64{
	"critical":      1.0,
	"urgent":        0.9,
	"emergency":     0.9,
	"immediate":     0.85,
	"serious":       0.8,
	"severe":        0.8,
	"bleeding":      0.75,
	"unconscious":   0.9,
	"not breathing": 0.95,
	"fire":          0.85,
	"explosion":     0.9,
	"accident":      0.7,
}

// IntentClassifier is the zero-shot classification capability. A failure
// degrades intent to "unknown"; it never propagates.
type IntentClassifier interface {
	Top(text string) (name string, score float64, err error)
}

// Extractor derives a FeatureSet from free text. Either capability may be
// nil: intent degrades to "unknown", entities to empty buckets.
type Extractor struct {
	intents IntentClassifier
	ner     entities.Recognizer
}

// New creates an Extractor with the given capabilities.
func New(intents IntentClassifier, ner entities.Recognizer) *Extractor {
	return &Extractor{intents: intents, ner: ner}
}

// Extract analyzes text for intent, entities, and urgency. Empty text yields
// the zero-value FeatureSet with intent "unknown" and urgency 0.0.
func (e *Extractor) Extract(text string) model.FeatureSet {
	if text == "" {
		return model.FeatureSet{Intent: "unknown"}
	}

	intent := "unknown"
	var intentScore float64
	if e.intents != nil {
		name, score, err := e.intents.Top(text)
		if err != nil {
			slog.Debug("intent classification degraded", "error", err)
		} else {
			intent = name
			intentScore = score
		}
	}

	var ents model.EntitySet
	if e.ner != nil {
		set, err := e.ner.Recognize(text)
		if err != nil {
			slog.Debug("entity recognition degraded", "error", err)
		} else {
			ents = set
		}
	}

	return model.FeatureSet{
		Intent:          intent,
		IntentScore:     intentScore,
		Entities:        ents,
		UrgencyScore:    urgency(text, ents),
		CriticalKeyword: severity.ContainsCriticalKeyword(text),
	}
}

// urgency computes the keyword-match urgency score with the baseline floor,
// boosted by +0.1 (capped at 1.0) when more than one person is involved.
func urgency(text string, ents model.EntitySet) float64 {
	lower := strings.ToLower(text)
	score := baseUrgency
	for phrase, s := range urgencyKeywords {
		if strings.Contains(lower, phrase) && s > score {
			score = s
		}
	}

	if peopleCount(ents) > 1 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// peopleCount sums the numeric entities as a people-involved estimate.
func peopleCount(ents model.EntitySet) int {
	total := 0
	for _, n := range ents.Numbers {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			total += v
		}
	}
	return total
}
