package services

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
	"github.com/custodia-labs/ragkit/internal/core/ports/driving"
	"github.com/custodia-labs/ragkit/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService adds documents and learns from interactions.
// Concurrent writes of the same document ID are last-write-wins;
// generated IDs are unique so this only matters to callers that reuse them.
type IngestService struct {
	embedder driven.EmbeddingService
	store    driven.KnowledgeStore
	now      func() time.Time
	newID    func() string
}

// NewIngestService creates a new ingest service.
func NewIngestService(embedder driven.EmbeddingService, store driven.KnowledgeStore) *IngestService {
	return &IngestService{
		embedder: embedder,
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// AddDocument embeds and stores a document, returning its ID.
func (s *IngestService) AddDocument(ctx context.Context, req domain.AddDocumentRequest) (string, error) {
	check := req
	check.Content = strings.TrimSpace(req.Content)
	check.Domain = strings.TrimSpace(req.Domain)
	check.Source = strings.TrimSpace(req.Source)
	if err := validateStruct(check); err != nil {
		return "", err
	}
	if !slices.ContainsFunc(s.store.Domains(), func(d domain.KnowledgeDomain) bool { return d.Name == check.Domain }) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDomain, check.Domain)
	}

	vector, err := s.embedder.Embed(ctx, req.Content)
	if err != nil {
		return "", &domain.StageError{Stage: domain.StageEmbedding, Domain: check.Domain, QueryLength: len(req.Content), Err: err}
	}

	doc := domain.Document{
		ID:        s.newID(),
		Content:   req.Content,
		Metadata:  maps.Clone(req.Metadata),
		Domain:    check.Domain,
		Source:    check.Source,
		Timestamp: s.now().UTC(),
		Embedding: vector,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}

	if err := s.store.Upsert(ctx, doc); err != nil {
		return "", &domain.StageError{Stage: domain.StageUpsert, Domain: doc.Domain, QueryLength: len(req.Content), Err: err}
	}

	logger.Debug("Stored document %s in %s (%d dims)", doc.ID, doc.Domain, len(vector))
	return doc.ID, nil
}

// Learn stores an interaction in the interaction domain.
// Any failure is logged and reported as false.
func (s *IngestService) Learn(ctx context.Context, interaction domain.Interaction) bool {
	content, err := json.Marshal(interaction)
	if err != nil {
		logger.Warn("learn: serialise interaction: %v", err)
		return false
	}

	id, err := s.AddDocument(ctx, domain.AddDocumentRequest{
		Content:  string(content),
		Domain:   domain.DomainUserInteractions,
		Source:   domain.SourceInteractionFeedback,
		Metadata: interactionMetadata(interaction),
	})
	if err != nil {
		logger.Warn("learn: store %s interaction: %v", interaction.Type, err)
		return false
	}

	logger.Debug("Learned %s interaction as %s", interaction.Type, id)
	return true
}

// RecordFeedback validates a feedback request and learns from it.
func (s *IngestService) RecordFeedback(ctx context.Context, req domain.FeedbackRequest) domain.FeedbackStatus {
	if err := validateStruct(req); err != nil {
		logger.Warn("feedback rejected: %v", err)
		return domain.FeedbackStatusWarning
	}
	if !s.Learn(ctx, req.Interaction()) {
		return domain.FeedbackStatusWarning
	}
	return domain.FeedbackStatusSuccess
}

// interactionMetadata flattens the scored fields of an interaction into
// document metadata. Caller metadata is kept; a caller supplied
// user_feedback takes precedence over the one derived from success.
func interactionMetadata(i domain.Interaction) map[string]any {
	metadata := maps.Clone(i.Metadata)
	if metadata == nil {
		metadata = make(map[string]any, 4)
	}

	metadata["interaction_type"] = i.Type
	metadata["success"] = i.Success
	metadata["quality_score"] = i.QualityScore
	if _, ok := metadata["user_feedback"]; !ok {
		if i.Success {
			metadata["user_feedback"] = "positive"
		} else {
			metadata["user_feedback"] = "negative"
		}
	}
	if i.Feedback != "" {
		metadata["feedback"] = i.Feedback
	}
	return metadata
}
