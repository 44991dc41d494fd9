package model

// EntitySet holds named entities bucketed by semantic type. Each bucket
// preserves insertion order from the source text.
type EntitySet struct {
	Locations     []string `json:"locations"`
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Dates         []string `json:"dates"`
	Numbers       []string `json:"numbers"`
}

// Empty reports whether no entities were extracted in any bucket.
func (e EntitySet) Empty() bool {
	return len(e.Locations) == 0 && len(e.People) == 0 &&
		len(e.Organizations) == 0 && len(e.Dates) == 0 && len(e.Numbers) == 0
}

// FeatureSet is the ephemeral output of the feature extractor. It lives for
// one pipeline invocation and feeds the severity scorer.
type FeatureSet struct {
	Intent          string    `json:"intent"`
	IntentScore     float64   `json:"intent_score"`
	Entities        EntitySet `json:"entities"`
	UrgencyScore    float64   `json:"urgency_score"`
	CriticalKeyword bool      `json:"critical_keyword"`
}

// Location returns the first detected location, if any.
func (f FeatureSet) Location() (string, bool) {
	if len(f.Entities.Locations) == 0 {
		return "", false
	}
	return f.Entities.Locations[0], true
}

// PeopleCount returns the first numeric entity as a people-count hint.
func (f FeatureSet) PeopleCount() (int, bool) {
	for _, n := range f.Entities.Numbers {
		if v, ok := parseCount(n); ok {
			return v, true
		}
	}
	return 0, false
}

func parseCount(s string) (int, bool) {
	v := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		v = v*10 + int(r-'0')
		if v > 1<<20 {
			return 0, false
		}
	}
	if s == "" {
		return 0, false
	}
	return v, true
}
