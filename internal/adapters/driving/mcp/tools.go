package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

// sourceMCP tags documents added through the add_document tool without a source.
const sourceMCP = "mcp"

// QueryKnowledgeInput is the input schema for the query_knowledge tool.
type QueryKnowledgeInput struct {
	Query          string         `json:"query" jsonschema:"the question or task to retrieve context for"`
	Domain         string         `json:"domain" jsonschema:"knowledge domain to search, e.g. lab_assistant"`
	NResults       int            `json:"n_results,omitempty" jsonschema:"number of documents to return (default 5)"`
	MetadataFilter map[string]any `json:"metadata_filter,omitempty" jsonschema:"metadata constraints; a list value matches any element"`
}

// QueryKnowledgeOutput is the output schema for the query_knowledge tool.
// SimilarityScores are fused relevance scores, not raw cosine similarity.
type QueryKnowledgeOutput struct {
	Query            string           `json:"query"`
	Domain           string           `json:"domain"`
	Documents        []DocumentOutput `json:"retrieved_documents"`
	SimilarityScores []float64        `json:"similarity_scores"`
	EnhancedContext  string           `json:"enhanced_context"`
	Metadata         map[string]any   `json:"metadata"`
}

// DocumentOutput represents a single retrieved document.
type DocumentOutput struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Source    string         `json:"source"`
	Timestamp string         `json:"timestamp"`
}

// AddDocumentInput is the input schema for the add_document tool.
type AddDocumentInput struct {
	Content  string         `json:"content" jsonschema:"document text to embed and store"`
	Domain   string         `json:"domain" jsonschema:"knowledge domain to store the document in"`
	Source   string         `json:"source,omitempty" jsonschema:"provenance tag (default mcp)"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"scalar metadata used for filtering and ranking"`
}

// AddDocumentOutput is the output schema for the add_document tool.
type AddDocumentOutput struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
}

// RecordFeedbackInput is the input schema for the record_feedback tool.
type RecordFeedbackInput struct {
	InteractionType string         `json:"interaction_type" jsonschema:"kind of interaction, e.g. content_generation"`
	Content         string         `json:"content" jsonschema:"interaction payload"`
	Success         bool           `json:"success" jsonschema:"whether the interaction achieved its goal"`
	Feedback        string         `json:"feedback,omitempty" jsonschema:"optional free-text feedback"`
	QualityScore    float64        `json:"quality_score,omitempty" jsonschema:"quality rating between 0 and 1"`
	Metadata        map[string]any `json:"metadata,omitempty" jsonschema:"extra scalar metadata"`
}

// RecordFeedbackOutput is the output schema for the record_feedback tool.
type RecordFeedbackOutput struct {
	Status string `json:"status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_knowledge",
		Description: "Retrieve ranked knowledge documents and an assembled context block for a query",
	}, s.handleQueryKnowledge)

	if s.ports.Ingest == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_document",
		Description: "Embed and store a document in a knowledge domain",
	}, s.handleAddDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "record_feedback",
		Description: "Record an interaction and its feedback so later queries can learn from it",
	}, s.handleRecordFeedback)
}

// handleQueryKnowledge handles the query_knowledge tool invocation.
func (s *Server) handleQueryKnowledge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryKnowledgeInput,
) (*mcp.CallToolResult, QueryKnowledgeOutput, error) {
	result, err := s.ports.Retrieval.Query(ctx, domain.QueryRequest{
		Query:    input.Query,
		Domain:   input.Domain,
		NResults: input.NResults,
		Filter:   input.MetadataFilter,
	})
	if err != nil {
		return nil, QueryKnowledgeOutput{}, err
	}

	output := QueryKnowledgeOutput{
		Query:            result.Query,
		Domain:           result.Domain,
		Documents:        make([]DocumentOutput, len(result.Documents)),
		SimilarityScores: make([]float64, len(result.Documents)),
		EnhancedContext:  result.EnhancedContext,
		Metadata:         result.Metadata,
	}
	if output.Metadata == nil {
		output.Metadata = map[string]any{}
	}
	copy(output.SimilarityScores, result.SimilarityScores)

	for i, doc := range result.Documents {
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		output.Documents[i] = DocumentOutput{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  metadata,
			Source:    doc.Source,
			Timestamp: doc.Timestamp.Format(time.RFC3339),
		}
	}

	return nil, output, nil
}

// handleAddDocument handles the add_document tool invocation.
func (s *Server) handleAddDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddDocumentInput,
) (*mcp.CallToolResult, AddDocumentOutput, error) {
	source := input.Source
	if source == "" {
		source = sourceMCP
	}

	id, err := s.ports.Ingest.AddDocument(ctx, domain.AddDocumentRequest{
		Content:  input.Content,
		Domain:   input.Domain,
		Source:   source,
		Metadata: input.Metadata,
	})
	if err != nil {
		return nil, AddDocumentOutput{}, err
	}

	return nil, AddDocumentOutput{ID: id, Domain: input.Domain}, nil
}

// handleRecordFeedback handles the record_feedback tool invocation.
// Storage failures are reported as a warning status, never as a tool error.
func (s *Server) handleRecordFeedback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecordFeedbackInput,
) (*mcp.CallToolResult, RecordFeedbackOutput, error) {
	status := s.ports.Ingest.RecordFeedback(ctx, domain.FeedbackRequest{
		InteractionType: input.InteractionType,
		Content:         input.Content,
		Success:         input.Success,
		Feedback:        input.Feedback,
		QualityScore:    input.QualityScore,
		Metadata:        input.Metadata,
	})
	return nil, RecordFeedbackOutput{Status: string(status)}, nil
}
