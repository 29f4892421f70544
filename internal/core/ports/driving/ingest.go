package driving

import (
	"context"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

// IngestService grows the knowledge base.
type IngestService interface {
	// AddDocument embeds and stores a document, returning its generated ID.
	AddDocument(ctx context.Context, req domain.AddDocumentRequest) (string, error)

	// Learn stores an interaction in the interaction domain.
	// Failures are logged and reported as false; Learn never returns an error.
	Learn(ctx context.Context, interaction domain.Interaction) bool

	// RecordFeedback validates and learns from a feedback request.
	// Returns FeedbackStatusWarning when the request is invalid or storing failed.
	RecordFeedback(ctx context.Context, req domain.FeedbackRequest) domain.FeedbackStatus
}
