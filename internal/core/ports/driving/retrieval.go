package driving

import (
	"context"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

// RetrievalService answers knowledge queries for external actors.
// This is used by the CLI and MCP adapters.
type RetrievalService interface {
	// Query retrieves ranked documents and an assembled context for a query.
	// Returns a StageError wrapping ErrEmbeddingUnavailable or ErrKnowledgeStore
	// when the pipeline cannot complete; partial results are never returned.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)

	// Domains returns every registered domain with its document count.
	Domains(ctx context.Context) ([]domain.DomainInfo, error)
}
