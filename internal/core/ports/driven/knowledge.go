package driven

import (
	"context"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

// KnowledgeStore persists documents and their embeddings in domain-partitioned
// collections and answers similarity searches.
//
// Implementations must be safe for concurrent use. Upserting the same
// document ID concurrently is last-write-wins; callers own that race.
type KnowledgeStore interface {
	// Upsert stores the document in doc.Domain.
	// Returns ErrInvalidDomain for an unknown domain and ErrDimensionMismatch
	// when the embedding size differs from the domain's.
	Upsert(ctx context.Context, doc domain.Document) error

	// Search returns up to k documents nearest to the query vector that
	// satisfy filter, ordered by ascending distance.
	Search(ctx context.Context, domainName string, query []float32, k int,
		filter domain.MetadataFilter) ([]KnowledgeHit, error)

	// Count returns the number of documents stored in the domain.
	Count(ctx context.Context, domainName string) (int, error)

	// Domains returns the configured domain registry.
	Domains() []domain.KnowledgeDomain

	// Close releases resources.
	Close() error
}

// KnowledgeHit is a single similarity search result.
type KnowledgeHit struct {
	// Document is the stored document, without its embedding.
	Document domain.Document

	// Distance is the cosine distance (1 - cosine similarity), in [0, 2].
	// It converts to a similarity via max(0, 1 - Distance).
	Distance float64
}
