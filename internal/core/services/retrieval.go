package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
	"github.com/custodia-labs/ragkit/internal/core/ports/driving"
	"github.com/custodia-labs/ragkit/internal/core/semantic"
	"github.com/custodia-labs/ragkit/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Query result metadata keys.
const (
	MetaPrimaryIntent          = "primary_intent"
	MetaConfidence             = "confidence"
	MetaConcepts               = "concepts"
	MetaTechnicalTerms         = "technical_terms"
	MetaQueryExpanded          = "query_expanded"
	MetaSemanticFiltersApplied = "semantic_filters_applied"
	MetaOverfetchMultiplier    = "overfetch_multiplier"
	MetaRequestedCandidates    = "requested_candidates"
	MetaCandidatesConsidered   = "candidates_considered"
	MetaFiltersRelaxed         = "filters_relaxed"
	MetaDomain                 = "domain"
)

// RetrievalService runs the query pipeline: analyse, filter, expand,
// embed, over-fetch, fuse, re-rank and assemble.
// It holds no per-request state and is safe for concurrent use.
type RetrievalService struct {
	embedder       driven.EmbeddingService
	store          driven.KnowledgeStore
	processor      *semantic.Processor
	defaultResults atomic.Int64
}

// NewRetrievalService creates a new retrieval service.
// defaultResults is used when a request leaves NResults at zero.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	store driven.KnowledgeStore,
	processor *semantic.Processor,
	defaultResults int,
) *RetrievalService {
	s := &RetrievalService{
		embedder:  embedder,
		store:     store,
		processor: processor,
	}
	s.SetDefaultResults(defaultResults)
	return s
}

// SetDefaultResults changes the result count used when a request leaves
// NResults at zero. Non-positive values reset it to DefaultResults.
func (s *RetrievalService) SetDefaultResults(n int) {
	if n <= 0 {
		n = domain.DefaultResults
	}
	s.defaultResults.Store(int64(n))
}

// Query retrieves ranked documents for a request.
func (s *RetrievalService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	logger.Section("Retrieval")

	req.Query = strings.TrimSpace(req.Query)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !s.hasDomain(req.Domain) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, req.Domain)
	}

	n := req.NResults
	if n == 0 {
		n = int(s.defaultResults.Load())
	}
	logger.Debug("Query: %q, domain: %s, n_results: %d", req.Query, req.Domain, n)

	analysis := s.processor.ExtractIntent(req.Query)
	logger.Stage("intent",
		"primary", analysis.PrimaryIntent,
		"all", analysis.AllIntents,
		"concepts", analysis.ConceptAreas(),
		"technical_terms", analysis.TechnicalTerms)

	callerFilter := domain.FilterFromMap(req.Filter)
	semanticFilter := s.processor.BuildFilters(analysis, req.Domain)
	filter := domain.MergeFilters(callerFilter, semanticFilter)
	logger.Debug("Filters: %v", filter)

	expanded, wasExpanded := s.processor.ExpandQuery(req.Query, analysis)
	logger.Debug("Expanded query: %q", expanded)

	vector, err := s.embedder.Embed(ctx, expanded)
	if err != nil {
		return nil, s.stageError(domain.StageEmbedding, req, err)
	}

	k := domain.CandidateCount(n)
	hits, err := s.store.Search(ctx, req.Domain, vector, k, filter)
	if err != nil {
		return nil, s.stageError(domain.StageSearch, req, err)
	}

	relaxed := false
	if len(hits) == 0 && len(semanticFilter) > 0 {
		logger.Info("No candidates matched semantic filters, retrying with caller filters only")
		hits, err = s.store.Search(ctx, req.Domain, vector, k, callerFilter)
		if err != nil {
			return nil, s.stageError(domain.StageSearch, req, err)
		}
		relaxed = true
	}
	logger.Stage("search", "requested", k, "received", len(hits), "relaxed", relaxed)

	candidates := s.rank(hits, analysis)
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	result := &domain.QueryResult{
		Query:            req.Query,
		Domain:           req.Domain,
		Documents:        make([]domain.Document, len(candidates)),
		SimilarityScores: make([]float64, len(candidates)),
		Candidates:       candidates,
		Metadata: map[string]any{
			MetaPrimaryIntent:          string(analysis.PrimaryIntent),
			MetaConfidence:             analysis.Confidence,
			MetaConcepts:               analysis.ConceptAreas(),
			MetaTechnicalTerms:         analysis.TechnicalTerms,
			MetaQueryExpanded:          wasExpanded,
			MetaSemanticFiltersApplied: len(semanticFilter) > 0 && !relaxed,
			MetaOverfetchMultiplier:    domain.OverfetchMultiplier,
			MetaRequestedCandidates:    k,
			MetaCandidatesConsidered:   len(hits),
			MetaFiltersRelaxed:         relaxed,
			MetaDomain:                 req.Domain,
		},
	}
	for i, c := range candidates {
		result.Documents[i] = c.Document
		result.SimilarityScores[i] = c.FusedScore
	}
	result.EnhancedContext = AssembleContext(s.processor, req.Query, analysis, result.Documents)

	logger.Info("Returning %d of %d candidates", len(candidates), len(hits))
	return result, nil
}

// rank scores hits and orders them by fused score, best first.
// Equal scores keep store order.
func (s *RetrievalService) rank(hits []driven.KnowledgeHit, analysis domain.IntentAnalysis) []domain.RankedCandidate {
	candidates := make([]domain.RankedCandidate, len(hits))
	for i, hit := range hits {
		cosine := max(0, 1-hit.Distance)
		relevance := s.processor.ScoreRelevance(hit.Document, analysis)
		candidates[i] = domain.RankedCandidate{
			Document:          hit.Document,
			CosineSimilarity:  cosine,
			SemanticRelevance: relevance,
			FusedScore:        domain.FuseScores(cosine, relevance),
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FusedScore > candidates[j].FusedScore
	})
	return candidates
}

// Domains returns every registered domain with its document count.
func (s *RetrievalService) Domains(ctx context.Context) ([]domain.DomainInfo, error) {
	registry := s.store.Domains()
	infos := make([]domain.DomainInfo, 0, len(registry))
	for _, d := range registry {
		count, err := s.store.Count(ctx, d.Name)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", d.Name, err)
		}
		infos = append(infos, domain.DomainInfo{KnowledgeDomain: d, Count: count})
	}
	return infos, nil
}

func (s *RetrievalService) hasDomain(name string) bool {
	return slices.ContainsFunc(s.store.Domains(), func(d domain.KnowledgeDomain) bool {
		return d.Name == name
	})
}

func (s *RetrievalService) stageError(stage string, req domain.QueryRequest, err error) error {
	logger.Warn("%s failed for domain %s: %v", stage, req.Domain, err)
	return &domain.StageError{
		Stage:       stage,
		Domain:      req.Domain,
		QueryLength: len(req.Query),
		Err:         err,
	}
}
