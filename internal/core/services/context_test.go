package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/semantic"
)

func TestAssembleContext_Empty(t *testing.T) {
	p, err := semantic.NewDefault()
	require.NoError(t, err)

	analysis := p.ExtractIntent("anything")
	assert.Equal(t, "", AssembleContext(p, "anything", analysis, nil))
	assert.Equal(t, "", AssembleContext(p, "anything", analysis, []domain.Document{}))
}

func TestAssembleContext_Layout(t *testing.T) {
	p, err := semantic.NewDefault()
	require.NoError(t, err)

	query := "how to write a loop"
	analysis := p.ExtractIntent(query)
	docs := []domain.Document{
		{
			Content:  "  First, declare the counter. Then loop until done.  ",
			Metadata: map[string]any{"content_type": "tutorial", "subject": "programming"},
		},
		{Content: "Arrays hold values.", Source: "manual"},
		{Content: "Third block.", Source: "import", Metadata: map[string]any{"difficulty_level": "", "subject": nil}},
		{Content: "Never shown.", Source: "manual"},
	}

	got := AssembleContext(p, query, analysis, docs)

	want := strings.Join([]string{
		"Step-by-step guidance for: 'how to write a loop'",
		"Key concepts: programming",
		"",
		"[Source 1: unknown | Instructional]",
		"First, declare the counter. Then loop until done.",
		"(type: tutorial, subject: programming)",
		"",
		"[Source 2: manual]",
		"Arrays hold values.",
		"",
		"[Source 3: import]",
		"Third block.",
		"",
		"Semantic analysis: intent=how_to, confidence=0.17",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestAssembleContext_TechnicalTerms(t *testing.T) {
	p, err := semantic.NewDefault()
	require.NoError(t, err)

	query := "why does getUserName() fail"
	analysis := p.ExtractIntent(query)
	got := AssembleContext(p, query, analysis, []domain.Document{{Content: "Check the error log.", Source: "manual"}})

	assert.True(t, strings.HasPrefix(got, "Troubleshooting help for: 'why does getUserName() fail'\n"))
	assert.Contains(t, got, "[Source 1: manual | Troubleshooting]")
	assert.Contains(t, got, ", technical terms: getUserName()\n")
}
