package intent

import (
	"errors"
	"testing"
)

// fakeEmbedder returns canned unit vectors keyed by exact text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dim() int    { return 3 }
func (f *fakeEmbedder) Close() error { return nil }

func testLabels() []Label {
	return []Label{
		{"fire", "fire desc"},
		{"medical_emergency", "medical desc"},
	}
}

func testEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"fire desc":     {1, 0, 0},
		"medical desc":  {0, 1, 0},
		"house burning": {0.9, 0.1, 0},
		"chest pain":    {0.1, 0.9, 0},
	}}
}

func TestClassifyRanksLabels(t *testing.T) {
	c, err := New(testEmbedder(), 0.5, testLabels())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	matches, err := c.Classify("house burning")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if matches[0].Name != "fire" {
		t.Fatalf("expected fire first, got %q", matches[0].Name)
	}
	if matches[0].Score <= matches[1].Score {
		t.Fatalf("expected descending scores, got %v", matches)
	}
}

func TestTopAboveThreshold(t *testing.T) {
	c, err := New(testEmbedder(), 0.5, testLabels())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	name, score, err := c.Top("chest pain")
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if name != "medical_emergency" {
		t.Fatalf("expected medical_emergency, got %q", name)
	}
	if score <= 0.5 {
		t.Fatalf("expected score above threshold, got %v", score)
	}
}

func TestTopBelowThresholdIsUnknown(t *testing.T) {
	c, err := New(testEmbedder(), 0.99, testLabels())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	name, _, err := c.Top("house burning")
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if name != Unknown {
		t.Fatalf("expected unknown below threshold, got %q", name)
	}
}

func TestNewRejectsEmptyLabels(t *testing.T) {
	if _, err := New(testEmbedder(), 0.5, nil); err == nil {
		t.Fatal("expected error for empty label set")
	}
}

func TestClassifyPropagatesEmbedError(t *testing.T) {
	emb := testEmbedder()
	c, err := New(emb, 0.5, testLabels())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	emb.err = errors.New("runtime gone")
	if _, err := c.Classify("anything"); err == nil {
		t.Fatal("expected embed error to propagate")
	}
	if name, _, _ := c.Top("anything"); name != Unknown {
		t.Fatalf("expected unknown on error, got %q", name)
	}
}

func TestDefaultLabelsClosedSet(t *testing.T) {
	labels := DefaultLabels()
	if len(labels) != 6 {
		t.Fatalf("expected 6 intent labels, got %d", len(labels))
	}
	names := map[string]bool{}
	for _, l := range labels {
		if l.Desc == "" {
			t.Fatalf("label %q has empty description", l.Name)
		}
		names[l.Name] = true
	}
	for _, want := range []string{"medical_emergency", "accident", "fire", "crime", "natural_disaster", "other"} {
		if !names[want] {
			t.Fatalf("missing label %q", want)
		}
	}
}
