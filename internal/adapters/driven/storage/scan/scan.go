// Package scan implements exact nearest-neighbour search over in-process
// vectors. Both knowledge store adapters evaluate metadata filters and
// cosine distance here, so their ranking is identical.
package scan

import (
	"math"
	"sort"

	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
)

// CosineDistance returns 1 - cos(a, b), in [0, 2].
// A zero vector has no direction and is at distance 1 from everything.
// Vectors of different length are at the maximum distance.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 1
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	cos = max(-1, min(cos, 1))
	return 1 - cos
}

// Nearest collects hits and keeps the k closest.
// Its buffer is trimmed back to k whenever it grows to twice that.
// Hits at equal distance keep their insertion order.
type Nearest struct {
	k    int
	hits []driven.KnowledgeHit
}

// NewNearest creates a collector for at most k hits.
func NewNearest(k int) *Nearest {
	return &Nearest{k: max(k, 0)}
}

// Add offers a hit to the collector.
func (n *Nearest) Add(hit driven.KnowledgeHit) {
	if n.k == 0 {
		return
	}
	n.hits = append(n.hits, hit)
	if len(n.hits) >= 2*n.k {
		n.trim()
	}
}

func (n *Nearest) trim() {
	sort.SliceStable(n.hits, func(i, j int) bool {
		return n.hits[i].Distance < n.hits[j].Distance
	})
	if len(n.hits) > n.k {
		n.hits = n.hits[:n.k]
	}
}

// Results returns the k nearest hits ordered by ascending distance.
func (n *Nearest) Results() []driven.KnowledgeHit {
	n.trim()
	if n.hits == nil {
		return []driven.KnowledgeHit{}
	}
	return n.hits
}
