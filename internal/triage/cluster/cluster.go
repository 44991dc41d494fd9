// Package cluster groups cases by narrative-embedding similarity.
package cluster

import (
	"log/slog"
	"sort"

	"github.com/copperline/triage/internal/model"
	"github.com/copperline/triage/internal/nlp/embedder"
	"github.com/copperline/triage/internal/triage/narrative"
)

// DefaultThreshold is the similarity floor for relating two cases.
const DefaultThreshold = 0.75

// maxRelated caps how many related cases FindSimilar reports.
const maxRelated = 10

// clusterIDPrefix plus the first 8 characters of the seed case id forms a
// deterministic cluster identifier.
const clusterIDPrefix = "CLUSTER-"

// Clusterer computes pairwise narrative similarity. A nil embedder (model
// failed to load) degrades every call to empty results; callers must expect
// silently-empty similarity data.
//
// Both operations are O(n²) in the batch size. Cap the historical window
// before calling; this is not built for unbounded corpora.
type Clusterer struct {
	emb       embedder.Embedder
	threshold float64
}

// New creates a Clusterer. Pass a nil embedder to run in degraded mode.
// Thresholds outside (0,1] fall back to DefaultThreshold.
func New(emb embedder.Embedder, threshold float64) *Clusterer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Clusterer{emb: emb, threshold: threshold}
}

// Available reports whether the embedding capability is usable.
func (c *Clusterer) Available() bool {
	return c.emb != nil
}

// FindSimilar returns the historical cases whose narrative similarity to the
// query case meets the threshold: at most 10, sorted by descending
// similarity with ties kept in historical-list order, never including the
// query case itself. A cluster id is assigned only when at least 2 similar
// cases are found.
func (c *Clusterer) FindSimilar(caseID, caseText string, historical []model.CaseContext) model.SimilarityResult {
	empty := model.SimilarityResult{
		RelatedCases:     []string{},
		SimilarityScores: map[string]float64{},
	}
	if c.emb == nil || len(historical) == 0 || caseText == "" {
		return empty
	}

	texts := make([]string, 0, len(historical)+1)
	texts = append(texts, caseText)
	candidates := make([]model.CaseContext, 0, len(historical))
	seen := make(map[string]bool, len(historical))
	for _, h := range historical {
		if h.ID == caseID || seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		candidates = append(candidates, h)
		texts = append(texts, narrative.ForEmbedding(h))
	}
	if len(candidates) == 0 {
		return empty
	}

	vectors, err := c.emb.EmbedBatch(texts)
	if err != nil {
		slog.Warn("similarity search degraded", "case_id", caseID, "error", err)
		return empty
	}

	query := vectors[0]
	type scored struct {
		id    string
		score float64
	}
	var related []scored
	for i, cand := range candidates {
		sim := embedder.Cosine(query, vectors[i+1])
		if sim >= c.threshold {
			related = append(related, scored{id: cand.ID, score: sim})
		}
	}

	// Stable: equal scores keep historical-list order.
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].score > related[j].score
	})
	if len(related) > maxRelated {
		related = related[:maxRelated]
	}

	result := model.SimilarityResult{
		RelatedCases:     make([]string, 0, len(related)),
		SimilarityScores: make(map[string]float64, len(related)),
	}
	for _, r := range related {
		result.RelatedCases = append(result.RelatedCases, r.id)
		result.SimilarityScores[r.id] = r.score
	}
	if len(related) >= 2 {
		result.ClusterID = clusterID(caseID)
	}
	return result
}

// ClusterAll performs greedy single-link grouping over the batch: cases are
// visited in input order; each unassigned case seeds a group and absorbs
// every later unassigned case similar to the seed (not to other members).
// Singleton groups are not reported.
func (c *Clusterer) ClusterAll(cases []model.CaseContext) model.ClusterResult {
	empty := model.ClusterResult{
		Clusters:    []model.Cluster{},
		Assignments: map[string]string{},
	}
	if c.emb == nil || len(cases) < 2 {
		return empty
	}

	texts := make([]string, len(cases))
	for i, cs := range cases {
		texts[i] = narrative.ForEmbedding(cs)
	}
	vectors, err := c.emb.EmbedBatch(texts)
	if err != nil {
		slog.Warn("batch clustering degraded", "cases", len(cases), "error", err)
		return empty
	}

	result := empty
	assigned := make([]bool, len(cases))

	for i := range cases {
		if assigned[i] {
			continue
		}
		members := []int{i}
		assigned[i] = true

		for j := i + 1; j < len(cases); j++ {
			if assigned[j] {
				continue
			}
			if embedder.Cosine(vectors[i], vectors[j]) >= c.threshold {
				members = append(members, j)
				assigned[j] = true
			}
		}

		if len(members) < 2 {
			continue
		}
		id := clusterID(cases[members[0]].ID)
		cl := model.Cluster{ID: id, CaseIDs: make([]string, 0, len(members))}
		for _, m := range members {
			cl.CaseIDs = append(cl.CaseIDs, cases[m].ID)
			result.Assignments[cases[m].ID] = id
		}
		result.Clusters = append(result.Clusters, cl)
	}
	return result
}

func clusterID(caseID string) string {
	if len(caseID) > 8 {
		caseID = caseID[:8]
	}
	return clusterIDPrefix + caseID
}
