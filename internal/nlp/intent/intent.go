// Package intent classifies caller text into a closed set of emergency
// intents by cosine similarity against pre-embedded label descriptions.
package intent

import (
	"fmt"
	"sort"

	"github.com/copperline/triage/internal/nlp/embedder"
)

// Unknown is returned when no label clears the confidence threshold or the
// embedding capability is unavailable.
const Unknown = "unknown"

// Label pairs an intent name with the description text embedded for it.
type Label struct {
	Name string
	Desc string
}

// DefaultLabels returns the closed emergency intent set. Descriptions are
// what actually gets embedded; richer phrasing separates the labels better
// than the bare names.
func DefaultLabels() []Label {
	return []Label{
		{"medical_emergency", "a person needs urgent medical help, injury, illness, unconscious, not breathing"},
		{"accident", "a traffic collision, vehicle crash, or workplace accident with possible injuries"},
		{"fire", "a building, vehicle, or wildfire burning, smoke, explosion"},
		{"crime", "a crime in progress, assault, robbery, theft, violence, weapons"},
		{"natural_disaster", "flood, earthquake, storm, landslide, or other natural disaster"},
		{"other", "a general request for help that fits no specific emergency category"},
	}
}

// Match is one ranked classification candidate.
type Match struct {
	Name  string
	Score float64
}

type embeddedLabel struct {
	name   string
	vector []float32
}

// Classifier scores text embeddings against the pre-embedded label set.
// Construction embeds every label once; Classify is read-only afterwards and
// safe for concurrent use.
type Classifier struct {
	emb       embedder.Embedder
	labels    []embeddedLabel
	threshold float64
}

// New pre-embeds the label descriptions. An empty label slice is rejected.
func New(emb embedder.Embedder, threshold float64, labels []Label) (*Classifier, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("intent: empty label set")
	}

	texts := make([]string, len(labels))
	for i, l := range labels {
		texts[i] = l.Desc
	}
	vectors, err := emb.EmbedBatch(texts)
	if err != nil {
		return nil, fmt.Errorf("intent: embed labels: %w", err)
	}

	embedded := make([]embeddedLabel, len(labels))
	for i, l := range labels {
		embedded[i] = embeddedLabel{name: l.Name, vector: vectors[i]}
	}
	return &Classifier{emb: emb, labels: embedded, threshold: threshold}, nil
}

// Classify returns all labels ranked by descending similarity to the text.
func (c *Classifier) Classify(text string) ([]Match, error) {
	vec, err := c.emb.Embed(text)
	if err != nil {
		return nil, fmt.Errorf("intent: %w", err)
	}

	matches := make([]Match, len(c.labels))
	for i, l := range c.labels {
		matches[i] = Match{Name: l.name, Score: embedder.Cosine(vec, l.vector)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// Top returns the best label name, or Unknown when the best score is below
// the threshold.
func (c *Classifier) Top(text string) (string, float64, error) {
	matches, err := c.Classify(text)
	if err != nil {
		return Unknown, 0, err
	}
	best := matches[0]
	if best.Score < c.threshold {
		return Unknown, best.Score, nil
	}
	return best.Name, best.Score, nil
}
