// Package rank implements cosine-similarity top-K retrieval over a corpus.
// It is pure: no I/O, no mutation of the input corpus.
package rank

import (
	"math"
	"sort"

	"github.com/tramovia/rutabot/core"
)

// Match pairs a corpus entry with its similarity score against a query.
type Match struct {
	Entry core.CorpusEntry
	Score float32
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|).
// When either vector has zero magnitude the similarity is undefined; 0 is
// returned instead of NaN so orderings built on it stay total. Vectors of
// different lengths are compared over their common prefix.
func CosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Top returns the topK corpus entries most similar to the query vector,
// sorted by non-increasing score. Ties keep the corpus order, so ranking is
// deterministic for identical inputs. Entries without an embedding are
// skipped entirely.
func Top(query []float32, corpus []core.CorpusEntry, topK int) []Match {
	if topK <= 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(corpus))
	for i := range corpus {
		if !corpus[i].Embedded() {
			continue
		}
		matches = append(matches, Match{
			Entry: corpus[i],
			Score: CosineSimilarity(query, corpus[i].Vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches
}
