package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

func TestRetrievalService_NullPointerScenario(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	fixID := p.add(t, domain.DomainLabAssistant,
		"A null pointer exception happens when you call a method on a null reference. Fix it by checking for null first.",
		map[string]any{"problem_type": "debugging", "programming_language": "java", "difficulty_level": "beginner"})
	p.add(t, domain.DomainLabAssistant,
		"Photosynthesis converts light into chemical energy.",
		map[string]any{"subject": "science"})
	p.add(t, domain.DomainLabAssistant,
		"Binary search halves the interval on every step.",
		map[string]any{"content_type": "tutorial"})

	result, err := p.retrieval.Query(ctx, domain.QueryRequest{
		Query:    "How do I fix null pointer exception in Java?",
		Domain:   domain.DomainLabAssistant,
		NResults: 3,
	})
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, fixID, result.Documents[0].ID)
	assert.Equal(t, "troubleshoot", result.Metadata[MetaPrimaryIntent])
	assert.Equal(t, true, result.Metadata[MetaSemanticFiltersApplied])
	assert.Equal(t, false, result.Metadata[MetaFiltersRelaxed])
	assert.Equal(t, true, result.Metadata[MetaQueryExpanded])

	assert.Contains(t, result.EnhancedContext, "Troubleshooting help for: 'How do I fix null pointer exception in Java?'")
	assert.Contains(t, result.EnhancedContext, "[Source 1: manual | Troubleshooting]")
	assert.Contains(t, result.EnhancedContext, "(level: beginner, language: java)")
	assert.Contains(t, result.EnhancedContext, "Semantic analysis: intent=troubleshoot")

	require.Len(t, p.store.searches, 1)
	assert.Equal(t, domain.MetadataFilter{
		{Field: "problem_type", Op: domain.FilterOpIn, Values: []any{"debugging", "error_resolution", "troubleshooting"}},
	}, p.store.searches[0].filter)
}

func TestRetrievalService_EmptyKnowledgeBase(t *testing.T) {
	p := newPipeline(t)

	result, err := p.retrieval.Query(context.Background(), domain.QueryRequest{
		Query:  "what is recursion",
		Domain: domain.DomainContentGeneration,
	})
	require.NoError(t, err)

	assert.NotNil(t, result.Documents)
	assert.Empty(t, result.Documents)
	assert.NotNil(t, result.SimilarityScores)
	assert.Empty(t, result.SimilarityScores)
	assert.Equal(t, "", result.EnhancedContext)
	assert.Equal(t, 0, result.Metadata[MetaCandidatesConsidered])
}

func TestRetrievalService_Overfetch(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected int
	}{
		{"explicit three", 3, 6},
		{"default", 0, domain.DefaultResults * domain.OverfetchMultiplier},
		{"capped", 40, domain.MaxCandidates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t)
			for i := 0; i < 8; i++ {
				p.add(t, domain.DomainQuizGeneration, fmt.Sprintf("quiz question %d about fractions", i), nil)
			}

			result, err := p.retrieval.Query(context.Background(), domain.QueryRequest{
				Query:    "fractions quiz",
				Domain:   domain.DomainQuizGeneration,
				NResults: tt.n,
			})
			require.NoError(t, err)

			require.Len(t, p.store.searches, 1)
			assert.Equal(t, tt.expected, p.store.searches[0].k)
			assert.Equal(t, tt.expected, result.Metadata[MetaRequestedCandidates])
			assert.Equal(t, domain.OverfetchMultiplier, result.Metadata[MetaOverfetchMultiplier])

			want := tt.n
			if want == 0 {
				want = domain.DefaultResults
			}
			assert.Len(t, result.Documents, min(want, 8))
		})
	}
}

func TestRetrievalService_ResultsAboveCandidateCap(t *testing.T) {
	p := newPipeline(t)
	for i := 0; i < 55; i++ {
		p.add(t, domain.DomainQuizGeneration, fmt.Sprintf("quiz question %d about fractions", i), nil)
	}

	result, err := p.retrieval.Query(context.Background(), domain.QueryRequest{
		Query:    "fractions quiz",
		Domain:   domain.DomainQuizGeneration,
		NResults: 60,
	})
	require.NoError(t, err)

	require.Len(t, p.store.searches, 1)
	assert.Equal(t, domain.MaxCandidates, p.store.searches[0].k)
	assert.Len(t, result.Documents, domain.MaxCandidates)
	assert.Len(t, result.SimilarityScores, domain.MaxCandidates)
}

func TestRetrievalService_FusedScoresAreExactAndOrdered(t *testing.T) {
	p := newPipeline(t)
	contents := []string{
		"Example: a for loop prints each element of an array.",
		"A loop repeats code. For example, a while loop checks its condition first.",
		"Arrays store elements in contiguous memory.",
		"Recursion is a function calling itself.",
		"Here is a sample program that demonstrates a loop over an array.",
		"Databases store tables of rows.",
	}
	for i, c := range contents {
		p.add(t, domain.DomainContentGeneration, c, map[string]any{
			"content_type":  "example",
			"quality_score": 0.5 + float64(i)*0.1,
		})
	}

	result, err := p.retrieval.Query(context.Background(), domain.QueryRequest{
		Query:    "show me an example of a loop over an array",
		Domain:   domain.DomainContentGeneration,
		NResults: 4,
	})
	require.NoError(t, err)
	require.Len(t, result.Documents, 4)
	require.Len(t, result.Candidates, 4)
	require.Len(t, result.SimilarityScores, 4)

	for i, c := range result.Candidates {
		assert.Equal(t, c.Document.ID, result.Documents[i].ID)
		assert.InDelta(t, 0.7*c.CosineSimilarity+0.3*c.SemanticRelevance, result.SimilarityScores[i], 1e-12)
		assert.Equal(t, c.FusedScore, result.SimilarityScores[i])
		assert.GreaterOrEqual(t, c.CosineSimilarity, 0.0)
		assert.LessOrEqual(t, c.CosineSimilarity, 1.0)
		assert.GreaterOrEqual(t, c.SemanticRelevance, 0.0)
		assert.LessOrEqual(t, c.SemanticRelevance, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, result.SimilarityScores[i-1], result.SimilarityScores[i])
		}
	}
}

func TestRetrievalService_RoundTrip(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	p.add(t, domain.DomainSyllabusGeneration, "Week one covers cell biology and microscopes.", nil)
	id := p.add(t, domain.DomainSyllabusGeneration, "Week two introduces genetics and heredity.", nil)
	p.add(t, domain.DomainSyllabusGeneration, "Week three is about ecosystems and food webs.", nil)

	result, err := p.retrieval.Query(ctx, domain.QueryRequest{
		Query:    "Week two introduces genetics and heredity.",
		Domain:   domain.DomainSyllabusGeneration,
		NResults: 1,
	})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, id, result.Documents[0].ID)
	assert.Equal(t, "manual", result.Documents[0].Source)
}

func TestRetrievalService_RelaxesSemanticFilters(t *testing.T) {
	p := newPipeline(t)
	id := p.add(t, domain.DomainContentGeneration, "Loops repeat a block of code until a condition fails.", nil)

	result, err := p.retrieval.Query(context.Background(), domain.QueryRequest{
		Query:  "a tutorial on loops",
		Domain: domain.DomainContentGeneration,
	})
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, id, result.Documents[0].ID)
	assert.Equal(t, true, result.Metadata[MetaFiltersRelaxed])
	assert.Equal(t, false, result.Metadata[MetaSemanticFiltersApplied])

	require.Len(t, p.store.searches, 2)
	assert.NotEmpty(t, p.store.searches[0].filter)
	assert.Empty(t, p.store.searches[1].filter)
}

func TestRetrievalService_CallerFilterIsNeverRelaxed(t *testing.T) {
	p := newPipeline(t)
	p.add(t, domain.DomainQuizGeneration, "Quiz on the French revolution.", map[string]any{"subject": "history"})

	result, err := p.retrieval.Query(context.Background(), domain.QueryRequest{
		Query:  "french revolution quiz",
		Domain: domain.DomainQuizGeneration,
		Filter: map[string]any{"subject": "geography"},
	})
	require.NoError(t, err)

	assert.Empty(t, result.Documents)
	assert.Equal(t, false, result.Metadata[MetaFiltersRelaxed])
	require.Len(t, p.store.searches, 1)
	assert.Equal(t, domain.MetadataFilter{{Field: "subject", Op: domain.FilterOpEq, Value: "geography"}},
		p.store.searches[0].filter)
}

func TestRetrievalService_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		req      domain.QueryRequest
		expected error
	}{
		{"empty query", domain.QueryRequest{Domain: domain.DomainLabAssistant}, domain.ErrInvalidInput},
		{"blank query", domain.QueryRequest{Query: "  \t ", Domain: domain.DomainLabAssistant}, domain.ErrInvalidInput},
		{"missing domain", domain.QueryRequest{Query: "loops"}, domain.ErrInvalidInput},
		{"negative n", domain.QueryRequest{Query: "loops", Domain: domain.DomainLabAssistant, NResults: -1}, domain.ErrInvalidInput},
		{"unknown domain", domain.QueryRequest{Query: "loops", Domain: "astrology"}, domain.ErrInvalidDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t)

			result, err := p.retrieval.Query(context.Background(), tt.req)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
			assert.Equal(t, 0, p.embedder.callCount())
			assert.Empty(t, p.store.searches)
		})
	}
}

func TestRetrievalService_EmbeddingFailure(t *testing.T) {
	p := newPipeline(t)
	failing := &mockEmbedder{embedFunc: func(context.Context, string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}}
	chain := NewFallbackEmbedder(
		EmbeddingBackend{Name: "openai", Service: failing, Configured: true, Available: true},
		EmbeddingBackend{Name: "ollama", Configured: true, Available: false},
	)
	svc := NewRetrievalService(chain, p.store, p.retrieval.processor, 5)

	_, err := svc.Query(context.Background(), domain.QueryRequest{Query: "loops", Domain: domain.DomainLabAssistant})
	require.Error(t, err)

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, domain.StageEmbedding, stageErr.Stage)
	assert.Equal(t, domain.DomainLabAssistant, stageErr.Domain)
	assert.Equal(t, len("loops"), stageErr.QueryLength)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	assert.Contains(t, err.Error(), "openai: connection refused")
	assert.Contains(t, err.Error(), "ollama: not available")
	assert.Empty(t, p.store.searches)
}

func TestRetrievalService_SearchFailure(t *testing.T) {
	p := newPipeline(t)
	p.store.searchErr = fmt.Errorf("%w: disk I/O error", domain.ErrKnowledgeStore)

	_, err := p.retrieval.Query(context.Background(), domain.QueryRequest{Query: "loops", Domain: domain.DomainLabAssistant})

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, domain.StageSearch, stageErr.Stage)
	assert.True(t, errors.Is(err, domain.ErrKnowledgeStore))
	assert.False(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
}

func TestRetrievalService_Domains(t *testing.T) {
	p := newPipeline(t)
	p.add(t, domain.DomainLabAssistant, "first", nil)
	p.add(t, domain.DomainLabAssistant, "second", nil)

	infos, err := p.retrieval.Domains(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, len(domain.DefaultKnowledgeDomains()))

	counts := make(map[string]int)
	for _, info := range infos {
		counts[info.Name] = info.Count
	}
	assert.Equal(t, 2, counts[domain.DomainLabAssistant])
	assert.Equal(t, 0, counts[domain.DomainQuizGeneration])
}

func TestRetrievalService_ConcurrentQueries(t *testing.T) {
	p := newPipeline(t)
	p.add(t, domain.DomainLabAssistant, "Fix the error by closing the file handle.", map[string]any{"problem_type": "debugging"})

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := p.retrieval.Query(context.Background(), domain.QueryRequest{
				Query:  "how to fix file handle error",
				Domain: domain.DomainLabAssistant,
			})
			errs <- err
		}()
	}
	for i := 0; i < 10; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestRetrievalService_SetDefaultResults(t *testing.T) {
	p := newPipeline(t)
	for i := 0; i < 4; i++ {
		p.add(t, domain.DomainQuizGeneration, fmt.Sprintf("quiz %d", i), nil)
	}

	p.retrieval.SetDefaultResults(2)
	result, err := p.retrieval.Query(context.Background(), domain.QueryRequest{Query: "quiz", Domain: domain.DomainQuizGeneration})
	require.NoError(t, err)
	assert.Len(t, result.Documents, 2)
	assert.Equal(t, 4, p.store.searches[0].k)

	p.resetSearches()
	p.retrieval.SetDefaultResults(60)
	_, err = p.retrieval.Query(context.Background(), domain.QueryRequest{Query: "quiz", Domain: domain.DomainQuizGeneration})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxCandidates, p.store.searches[0].k)

	p.resetSearches()
	p.retrieval.SetDefaultResults(0)
	_, err = p.retrieval.Query(context.Background(), domain.QueryRequest{Query: "quiz", Domain: domain.DomainQuizGeneration})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultResults*domain.OverfetchMultiplier, p.store.searches[0].k)
}
