// Package narrative builds the single-text representation of a case used for
// embedding and audit summaries.
package narrative

import (
	"math"
	"strings"

	"github.com/copperline/triage/internal/model"
)

// fallback is embedded when a case carries no usable text at all, so the
// embedder never sees an empty string.
const fallback = "Emergency case"

// embedTokenBudget bounds the text fed to the embedder; anything past the
// model's sequence window is dead weight.
const embedTokenBudget = 256

// ForEmbedding concatenates, in fixed order, the case description, a
// "Type: X" token, and a "Location: Y" token, omitting absent fields.
func ForEmbedding(c model.CaseContext) string {
	var parts []string
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	if c.EmergencyType != "" {
		parts = append(parts, "Type: "+string(c.EmergencyType))
	}
	if c.Location != "" {
		parts = append(parts, "Location: "+c.Location)
	}
	if len(parts) == 0 {
		return fallback
	}
	return TrimToTokens(strings.Join(parts, " "), embedTokenBudget)
}

// Summary produces the short human-readable line recorded in the audit trail.
func Summary(c model.CaseContext) string {
	s := c.Description
	if s == "" {
		s = fallback
	}
	// Truncate on a rune boundary so multi-byte text is never split.
	if r := []rune(s); len(r) > 120 {
		s = string(r[:120]) + "..."
	}
	return s
}

// EstimateTokens returns an approximate token count using a whitespace
// heuristic with a 1.3x subword expansion factor. Accurate within ~20% of
// WordPiece counts, sufficient for budgeting.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return int(math.Ceil(float64(len(strings.Fields(s))) * 1.3))
}

// TrimToTokens cuts text at a whole-word boundary so its estimated token
// count fits the budget. Text already within budget is returned unchanged.
func TrimToTokens(s string, budget int) string {
	if EstimateTokens(s) <= budget {
		return s
	}
	words := strings.Fields(s)
	keep := int(float64(budget) / 1.3)
	if keep < 1 {
		keep = 1
	}
	if keep > len(words) {
		keep = len(words)
	}
	return strings.Join(words[:keep], " ")
}
