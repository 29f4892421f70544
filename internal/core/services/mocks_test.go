package services

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
	"github.com/custodia-labs/ragkit/internal/core/semantic"
)

// mockEmbedder is a scriptable embedding service.
type mockEmbedder struct {
	mu        sync.Mutex
	embedFunc func(ctx context.Context, text string) ([]float32, error)
	batchFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls     int
	texts     []string
	dims      int
	model     string
	pingErr   error
	closeErr  error
	closed    bool
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.embedFunc != nil {
		return m.embedFunc(ctx, text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.batchFunc != nil {
		return m.batchFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return m.model }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.pingErr }

func (m *mockEmbedder) Close() error {
	m.closed = true
	return m.closeErr
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// hashEmbedder embeds text as a normalised bag of hashed words, so texts
// sharing words are close in cosine space.
type hashEmbedder struct {
	mockEmbedder
}

const hashDims = 64

func newHashEmbedder() *hashEmbedder {
	h := &hashEmbedder{}
	h.dims = hashDims
	h.model = "hash"
	h.embedFunc = func(_ context.Context, text string) ([]float32, error) {
		return hashVector(text), nil
	}
	return h
}

func hashVector(text string) []float32 {
	vec := make([]float32, hashDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%hashDims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// searchCall records one Search invocation.
type searchCall struct {
	domain string
	k      int
	filter domain.MetadataFilter
}

// spyStore wraps a knowledge store and records searches.
type spyStore struct {
	driven.KnowledgeStore

	mu        sync.Mutex
	searches  []searchCall
	searchErr error
	upsertErr error
}

func (s *spyStore) Search(
	ctx context.Context, domainName string, query []float32, k int, filter domain.MetadataFilter,
) ([]driven.KnowledgeHit, error) {
	s.mu.Lock()
	s.searches = append(s.searches, searchCall{domain: domainName, k: k, filter: filter})
	s.mu.Unlock()
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.KnowledgeStore.Search(ctx, domainName, query, k, filter)
}

func (s *spyStore) Upsert(ctx context.Context, doc domain.Document) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.KnowledgeStore.Upsert(ctx, doc)
}

// pipeline bundles a wired retrieval and ingest service over an in-memory store.
type pipeline struct {
	retrieval *RetrievalService
	ingest    *IngestService
	store     *spyStore
	embedder  *hashEmbedder
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	processor, err := semantic.NewDefault()
	require.NoError(t, err)

	store := &spyStore{KnowledgeStore: memory.NewKnowledgeStore(domain.DefaultKnowledgeDomains())}
	embedder := newHashEmbedder()

	return &pipeline{
		retrieval: NewRetrievalService(embedder, store, processor, domain.DefaultResults),
		ingest:    NewIngestService(embedder, store),
		store:     store,
		embedder:  embedder,
	}
}

func (p *pipeline) add(t *testing.T, domainName, content string, metadata map[string]any) string {
	t.Helper()
	id, err := p.ingest.AddDocument(context.Background(), domain.AddDocumentRequest{
		Content:  content,
		Domain:   domainName,
		Source:   "manual",
		Metadata: metadata,
	})
	require.NoError(t, err)
	return id
}

func (p *pipeline) resetSearches() {
	p.store.mu.Lock()
	p.store.searches = nil
	p.store.mu.Unlock()
}
