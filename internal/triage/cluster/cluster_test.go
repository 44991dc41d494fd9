package cluster

import (
	"errors"
	"fmt"
	"testing"

	"github.com/copperline/triage/internal/model"
)

// fakeEmbedder returns canned vectors keyed by text; unknown texts get a
// distant unit vector.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(text string) ([]float32, error) {
	v, err := f.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 0, 1}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) Dim() int     { return 4 }
func (f *fakeEmbedder) Close() error { return nil }

func caseWith(id, desc string) model.CaseContext {
	return model.CaseContext{ID: id, Description: desc}
}

func TestFindSimilarDegradedWithoutEmbedder(t *testing.T) {
	c := New(nil, 0.75)
	res := c.FindSimilar("q", "some text", []model.CaseContext{caseWith("h1", "a")})
	if len(res.RelatedCases) != 0 || len(res.SimilarityScores) != 0 || res.ClusterID != "" {
		t.Fatalf("expected empty degraded result, got %+v", res)
	}
	if c.Available() {
		t.Fatal("expected unavailable clusterer")
	}
}

func TestFindSimilarIdenticalTextRanksFirst(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"house fire on elm": {1, 0, 0, 0},
		"nearby blaze":      {0.9, 0.3, 0, 0},
		"stolen bicycle":    {0, 1, 0, 0},
	}}
	c := New(emb, 0.75)

	res := c.FindSimilar("q", "house fire on elm", []model.CaseContext{
		caseWith("h-theft", "stolen bicycle"),
		caseWith("h-blaze", "nearby blaze"),
		caseWith("h-same", "house fire on elm"),
	})

	if len(res.RelatedCases) != 2 {
		t.Fatalf("expected 2 related cases, got %v", res.RelatedCases)
	}
	if res.RelatedCases[0] != "h-same" {
		t.Fatalf("expected identical case first, got %v", res.RelatedCases)
	}
	if s := res.SimilarityScores["h-same"]; s < 0.999 {
		t.Fatalf("expected ~1.0 similarity, got %v", s)
	}
	if res.ClusterID != "CLUSTER-q" {
		t.Fatalf("expected cluster id for >=2 matches, got %q", res.ClusterID)
	}
}

func TestFindSimilarExcludesQueryCase(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"same": {1, 0, 0, 0}}}
	c := New(emb, 0.75)

	res := c.FindSimilar("q", "same", []model.CaseContext{
		caseWith("q", "same"),
		caseWith("other", "same"),
	})
	for _, id := range res.RelatedCases {
		if id == "q" {
			t.Fatal("query case must never appear in its own related set")
		}
	}
	if len(res.RelatedCases) != 1 {
		t.Fatalf("expected 1 related case, got %v", res.RelatedCases)
	}
}

func TestFindSimilarDeduplicatesHistoricalIDs(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"q text":  {1, 0, 0, 0},
		"similar": {1, 0, 0, 0},
	}}
	c := New(emb, 0.75)

	// The same case appearing twice in the corpus relates once.
	res := c.FindSimilar("q", "q text", []model.CaseContext{
		caseWith("h1", "similar"),
		caseWith("h1", "similar"),
		caseWith("h2", "similar"),
	})
	if len(res.RelatedCases) != 2 {
		t.Fatalf("expected deduplicated related set, got %v", res.RelatedCases)
	}
	seen := map[string]int{}
	for _, id := range res.RelatedCases {
		seen[id]++
	}
	if seen["h1"] != 1 || seen["h2"] != 1 {
		t.Fatalf("unexpected related set %v", res.RelatedCases)
	}
}

func TestFindSimilarCapsAtTen(t *testing.T) {
	vecs := map[string][]float32{"q text": {1, 0, 0, 0}}
	var historical []model.CaseContext
	for i := 0; i < 15; i++ {
		desc := fmt.Sprintf("twin %d", i)
		vecs[desc] = []float32{1, 0, 0, 0}
		historical = append(historical, caseWith(fmt.Sprintf("h%02d", i), desc))
	}
	c := New(&fakeEmbedder{vectors: vecs}, 0.75)

	res := c.FindSimilar("q", "q text", historical)
	if len(res.RelatedCases) != 10 {
		t.Fatalf("expected cap of 10, got %d", len(res.RelatedCases))
	}
	// Equal scores: stable sort keeps historical order.
	if res.RelatedCases[0] != "h00" || res.RelatedCases[9] != "h09" {
		t.Fatalf("expected historical-order ties, got %v", res.RelatedCases)
	}
	if len(res.SimilarityScores) != 10 {
		t.Fatalf("scores map must cover exactly the related set, got %d", len(res.SimilarityScores))
	}
}

func TestFindSimilarNoClusterIDForSingleMatch(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"q text":  {1, 0, 0, 0},
		"similar": {1, 0, 0, 0},
	}}
	c := New(emb, 0.75)
	res := c.FindSimilar("case-123456789", "q text", []model.CaseContext{
		caseWith("h1", "similar"),
	})
	if res.ClusterID != "" {
		t.Fatalf("expected no cluster id for a single match, got %q", res.ClusterID)
	}
}

func TestFindSimilarEmbedErrorDegrades(t *testing.T) {
	c := New(&fakeEmbedder{err: errors.New("inference failed")}, 0.75)
	res := c.FindSimilar("q", "text", []model.CaseContext{caseWith("h1", "a")})
	if len(res.RelatedCases) != 0 {
		t.Fatalf("expected empty result on embed failure, got %v", res.RelatedCases)
	}
}

func TestClusterAllGreedySingleLink(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"flood north": {1, 0, 0, 0},
		"flood creek": {0.95, 0.2, 0, 0},
		"robbery":     {0, 1, 0, 0},
		"burglary":    {0.1, 0.95, 0, 0},
		"lone event":  {0, 0, 1, 0},
	}}
	c := New(emb, 0.75)

	res := c.ClusterAll([]model.CaseContext{
		caseWith("f1", "flood north"),
		caseWith("f2", "flood creek"),
		caseWith("r1", "robbery"),
		caseWith("r2", "burglary"),
		caseWith("solo", "lone event"),
	})

	if len(res.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %+v", res.Clusters)
	}
	if res.Clusters[0].ID != "CLUSTER-f1" {
		t.Fatalf("cluster id derives from seed case, got %q", res.Clusters[0].ID)
	}
	if res.Assignments["solo"] != "" {
		t.Fatal("singleton must not be assigned")
	}
	if res.Assignments["f2"] != "CLUSTER-f1" || res.Assignments["r2"] != "CLUSTER-r1" {
		t.Fatalf("unexpected assignments %v", res.Assignments)
	}
}

func TestClusterAllNoSingletonClusters(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"a": {1, 0, 0, 0},
		"b": {0, 1, 0, 0},
	}}
	c := New(emb, 0.75)
	res := c.ClusterAll([]model.CaseContext{caseWith("a", "a"), caseWith("b", "b")})
	if len(res.Clusters) != 0 || len(res.Assignments) != 0 {
		t.Fatalf("expected no clusters, got %+v", res)
	}
}

func TestClusterAllEachCaseAtMostOnce(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"x": {1, 0, 0, 0},
		"y": {0.98, 0.1, 0, 0},
		"z": {0.97, 0.15, 0, 0},
	}}
	c := New(emb, 0.75)
	res := c.ClusterAll([]model.CaseContext{
		caseWith("x", "x"), caseWith("y", "y"), caseWith("z", "z"),
	})

	seen := map[string]int{}
	for _, cl := range res.Clusters {
		for _, id := range cl.CaseIDs {
			seen[id]++
		}
	}
	for id, n := range seen {
		if n > 1 {
			t.Fatalf("case %s appears in %d clusters", id, n)
		}
	}
}

func TestClusterAllFewerThanTwoCases(t *testing.T) {
	c := New(&fakeEmbedder{}, 0.75)
	res := c.ClusterAll([]model.CaseContext{caseWith("only", "text")})
	if len(res.Clusters) != 0 {
		t.Fatalf("expected no clusters for a single case, got %+v", res)
	}
}

func TestClusterIDTruncation(t *testing.T) {
	if got := clusterID("abcdefghij"); got != "CLUSTER-abcdefgh" {
		t.Fatalf("expected CLUSTER-abcdefgh, got %q", got)
	}
	if got := clusterID("ab"); got != "CLUSTER-ab" {
		t.Fatalf("expected CLUSTER-ab for short ids, got %q", got)
	}
}
