// Package entities extracts named entities from caller text into typed
// buckets. The in-process recognizer is pattern- and lexicon-based; an
// external NER capability can replace it behind the Recognizer interface.
package entities

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/copperline/triage/internal/model"
)

// Recognizer extracts typed entities from text. Implementations must preserve
// source-text order within each bucket.
type Recognizer interface {
	Recognize(text string) (model.EntitySet, error)
}

var (
	digitRe = regexp.MustCompile(`\b\d+\b`)

	numericDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)

	dateWordRe = regexp.MustCompile(`(?i)\b(?:today|tonight|yesterday|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday|january|february|march|april|may|june|july|august|september|october|november|december)\b`)

	locationRe = regexp.MustCompile(`\b(?:[A-Z][\w']*|\d+)(?:th|st|nd|rd)?(?:\s(?:[A-Z][\w']*|\d+))*\s(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Drive|Bridge|Park|Plaza|Square|Station|Mall|Intersection|Junction)\b`)

	highwayRe = regexp.MustCompile(`\b(?:Highway|Hwy|Route|Interstate|I-)\s?\d+\b`)

	orgRe = regexp.MustCompile(`\b[A-Z][\w']*(?:\s[A-Z][\w']*)*\s(?:Hospital|Clinic|University|School|Department|Police|Inc|Corp|Company|Bank|Hotel|Factory|Warehouse)\b`)

	personRe = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Officer|Nurse|Captain|Sergeant)\.?\s[A-Z][a-z]+(?:\s[A-Z][a-z]+)?\b`)
)

// Word-number lexicon; emitted in digit form so downstream count parsing
// stays uniform.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "dozen": 12, "twenty": 20,
}

// Pattern is the built-in lexicon/regex recognizer. Stateless and safe for
// concurrent use.
type Pattern struct{}

// NewPattern returns the built-in recognizer.
func NewPattern() *Pattern {
	return &Pattern{}
}

// Recognize buckets entities by semantic type, preserving insertion order
// from the source text. It never fails; the error is part of the Recognizer
// contract for external implementations.
func (p *Pattern) Recognize(text string) (model.EntitySet, error) {
	if text == "" {
		return model.EntitySet{}, nil
	}

	var set model.EntitySet

	set.Locations = appendMatches(set.Locations, locationRe.FindAllString(text, -1))
	set.Locations = appendMatches(set.Locations, highwayRe.FindAllString(text, -1))

	// Organizations often end in suffixes the location regex ignores, but a
	// match that already landed in Locations stays there.
	for _, m := range orgRe.FindAllString(text, -1) {
		if !contains(set.Locations, m) {
			set.Organizations = append(set.Organizations, m)
		}
	}

	set.People = appendMatches(set.People, personRe.FindAllString(text, -1))

	dateSpans := numericDateRe.FindAllStringIndex(text, -1)
	for _, span := range dateSpans {
		set.Dates = append(set.Dates, text[span[0]:span[1]])
	}
	set.Dates = appendMatches(set.Dates, dateWordRe.FindAllString(text, -1))

	// Bare digits inside a numeric date stay out of the numbers bucket.
	for _, span := range digitRe.FindAllStringIndex(text, -1) {
		if overlaps(span, dateSpans) {
			continue
		}
		set.Numbers = append(set.Numbers, text[span[0]:span[1]])
	}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:")
		if n, ok := numberWords[word]; ok {
			set.Numbers = append(set.Numbers, strconv.Itoa(n))
		}
	}

	return set, nil
}

func appendMatches(dst []string, matches []string) []string {
	for _, m := range matches {
		dst = append(dst, m)
	}
	return dst
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.Contains(v, s) || v == s {
			return true
		}
	}
	return false
}

func overlaps(span []int, spans [][]int) bool {
	for _, s := range spans {
		if span[0] < s[1] && span[1] > s[0] {
			return true
		}
	}
	return false
}
