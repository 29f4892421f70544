package semantic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandQuery(t *testing.T) {
	p := newTestProcessor(t)

	t.Run("troubleshoot skips words already present", func(t *testing.T) {
		query := "how do I fix a null pointer error"
		expanded, ok := p.ExpandQuery(query, p.ExtractIntent(query))

		assert.True(t, ok)
		assert.Equal(t, query+" solution debug code function variable", expanded)
	})

	t.Run("original terms lead", func(t *testing.T) {
		query := "what is a neural network"
		expanded, ok := p.ExpandQuery(query, p.ExtractIntent(query))

		assert.True(t, ok)
		assert.True(t, strings.HasPrefix(expanded, query+" "))
		assert.Contains(t, expanded, "definition concept explanation overview")
		// Concept keywords already in the query are not repeated.
		assert.Equal(t, 1, strings.Count(expanded, "neural"))
		assert.Contains(t, expanded, "model training regression")
	})

	t.Run("multi word cluster term", func(t *testing.T) {
		query := "recommended naming"
		expanded, _ := p.ExpandQuery(query, p.ExtractIntent(query))
		assert.Equal(t, "recommended naming best practices guidelines standards", expanded)
	})

	t.Run("nothing to add", func(t *testing.T) {
		query := "photosynthesis"
		expanded, ok := p.ExpandQuery(query, p.ExtractIntent(query))

		assert.False(t, ok)
		assert.Equal(t, query, expanded)
	})

	t.Run("empty", func(t *testing.T) {
		expanded, ok := p.ExpandQuery("  ", p.ExtractIntent(""))
		assert.False(t, ok)
		assert.Empty(t, expanded)
	})
}

func TestExpandQuery_ConceptCap(t *testing.T) {
	p := newTestProcessor(t)
	query := "syllabus"

	expanded, ok := p.ExpandQuery(query, p.ExtractIntent(query))

	assert.True(t, ok)
	assert.Equal(t, "syllabus lesson curriculum quiz", expanded)
}
