package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/ragkit/internal/adapters/driven/storage/scan"
	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore is an in-memory implementation of driven.KnowledgeStore.
// Searches are exact scans, which is fine for tests and small corpora.
type KnowledgeStore struct {
	mu         sync.RWMutex
	registry   []domain.KnowledgeDomain
	dimensions map[string]int
	documents  map[string]map[string]domain.Document
	order      map[string][]string
}

// NewKnowledgeStore creates a store for the given domains.
func NewKnowledgeStore(domains []domain.KnowledgeDomain) *KnowledgeStore {
	s := &KnowledgeStore{
		registry:   slices.Clone(domains),
		dimensions: make(map[string]int, len(domains)),
		documents:  make(map[string]map[string]domain.Document, len(domains)),
		order:      make(map[string][]string, len(domains)),
	}
	for _, d := range domains {
		s.dimensions[d.Name] = d.Dimensions
		s.documents[d.Name] = make(map[string]domain.Document)
	}
	return s
}

// Upsert stores or replaces a document.
func (s *KnowledgeStore) Upsert(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrKnowledgeStore, err)
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: document %s has no embedding", domain.ErrInvalidInput, doc.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.documents[doc.Domain]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDomain, doc.Domain)
	}
	switch dims := s.dimensions[doc.Domain]; {
	case dims == 0:
		s.dimensions[doc.Domain] = len(doc.Embedding)
	case dims != len(doc.Embedding):
		return fmt.Errorf("%w: domain %s stores %d dimensions, got %d",
			domain.ErrDimensionMismatch, doc.Domain, dims, len(doc.Embedding))
	}

	if _, exists := docs[doc.ID]; !exists {
		s.order[doc.Domain] = append(s.order[doc.Domain], doc.ID)
	}
	doc.Metadata = maps.Clone(doc.Metadata)
	doc.Embedding = slices.Clone(doc.Embedding)
	docs[doc.ID] = doc
	return nil
}

// Search returns the k nearest documents that satisfy filter.
func (s *KnowledgeStore) Search(
	ctx context.Context, domainName string, query []float32, k int, filter domain.MetadataFilter,
) ([]driven.KnowledgeHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrKnowledgeStore, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.documents[domainName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, domainName)
	}
	if dims := s.dimensions[domainName]; dims != 0 && dims != len(query) {
		return nil, fmt.Errorf("%w: domain %s stores %d dimensions, query has %d",
			domain.ErrDimensionMismatch, domainName, dims, len(query))
	}

	nearest := scan.NewNearest(k)
	for _, id := range s.order[domainName] {
		doc := docs[id]
		if !filter.Matches(doc.Metadata) {
			continue
		}
		distance := scan.CosineDistance(query, doc.Embedding)
		doc.Metadata = maps.Clone(doc.Metadata)
		doc.Embedding = nil
		nearest.Add(driven.KnowledgeHit{Document: doc, Distance: distance})
	}
	return nearest.Results(), nil
}

// Count returns the number of documents in a domain.
func (s *KnowledgeStore) Count(_ context.Context, domainName string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.documents[domainName]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, domainName)
	}
	return len(docs), nil
}

// Domains returns the registry with each domain's current dimensionality.
func (s *KnowledgeStore) Domains() []domain.KnowledgeDomain {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := slices.Clone(s.registry)
	for i := range domains {
		domains[i].Dimensions = s.dimensions[domains[i].Name]
	}
	return domains
}

// Close is a no-op for the memory store.
func (s *KnowledgeStore) Close() error {
	return nil
}
