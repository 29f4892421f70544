package scan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"scaled", []float32{1, 0}, []float32{5, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 2},
		{"empty", nil, nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineDistance(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNearest(t *testing.T) {
	n := NewNearest(2)
	n.Add(driven.KnowledgeHit{Document: domain.Document{ID: "far"}, Distance: 0.9})
	n.Add(driven.KnowledgeHit{Document: domain.Document{ID: "tie-1"}, Distance: 0.1})
	n.Add(driven.KnowledgeHit{Document: domain.Document{ID: "tie-2"}, Distance: 0.1})

	results := n.Results()

	require.Len(t, results, 2)
	assert.Equal(t, "tie-1", results[0].Document.ID)
	assert.Equal(t, "tie-2", results[1].Document.ID)
}

func TestNearest_BoundedBuffer(t *testing.T) {
	n := NewNearest(3)
	for i := 0; i < 100; i++ {
		n.Add(driven.KnowledgeHit{
			Document: domain.Document{ID: fmt.Sprintf("d-%d", i)},
			Distance: float64(100-i) / 100,
		})
		assert.Less(t, len(n.hits), 6)
	}
	n.Add(driven.KnowledgeHit{Document: domain.Document{ID: "tie"}, Distance: 0.01})

	results := n.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "d-99", results[0].Document.ID)
	assert.Equal(t, "tie", results[1].Document.ID)
	assert.Equal(t, "d-98", results[2].Document.ID)
}

func TestNearest_Empty(t *testing.T) {
	assert.Equal(t, []driven.KnowledgeHit{}, NewNearest(5).Results())

	zero := NewNearest(0)
	zero.Add(driven.KnowledgeHit{Distance: 0})
	assert.Empty(t, zero.Results())
}
