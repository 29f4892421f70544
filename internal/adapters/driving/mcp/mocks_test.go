package mcp

import (
	"context"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result   *domain.QueryResult
	domains  []domain.DomainInfo
	err      error
	received domain.QueryRequest
}

func (m *mockRetrievalService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	m.received = req
	return m.result, m.err
}

func (m *mockRetrievalService) Domains(_ context.Context) ([]domain.DomainInfo, error) {
	return m.domains, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	id          string
	err         error
	status      domain.FeedbackStatus
	addRequest  domain.AddDocumentRequest
	feedbackReq domain.FeedbackRequest
}

func (m *mockIngestService) AddDocument(_ context.Context, req domain.AddDocumentRequest) (string, error) {
	m.addRequest = req
	return m.id, m.err
}

func (m *mockIngestService) Learn(_ context.Context, _ domain.Interaction) bool {
	return m.err == nil
}

func (m *mockIngestService) RecordFeedback(_ context.Context, req domain.FeedbackRequest) domain.FeedbackStatus {
	m.feedbackReq = req
	return m.status
}
