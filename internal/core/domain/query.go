package domain

// Retrieval constants.
const (
	// DefaultResults is the number of documents returned when none is requested.
	DefaultResults = 5

	// OverfetchMultiplier is how many candidates are fetched per requested result.
	OverfetchMultiplier = 2

	// MaxCandidates caps the number of candidates fetched from the store.
	// It bounds the over-fetch, not the number of results requested.
	MaxCandidates = 50

	// CosineWeight is the weight of cosine similarity in the fused score.
	CosineWeight = 0.7

	// SemanticWeight is the weight of semantic relevance in the fused score.
	SemanticWeight = 0.3
)

// CandidateCount returns how many candidates to fetch for n results.
func CandidateCount(n int) int {
	return min(n*OverfetchMultiplier, MaxCandidates)
}

// FuseScores combines cosine similarity and semantic relevance.
func FuseScores(cosine, semantic float64) float64 {
	return CosineWeight*cosine + SemanticWeight*semantic
}

// QueryRequest is a retrieval request.
type QueryRequest struct {
	// Query is the free-text query.
	Query string `json:"query" validate:"required"`

	// Domain is the knowledge partition to search.
	Domain string `json:"domain" validate:"required"`

	// NResults is the number of documents to return (0 means DefaultResults).
	NResults int `json:"n_results" validate:"gte=0"`

	// Filter holds caller-supplied metadata constraints.
	Filter map[string]any `json:"metadata_filter,omitempty"`
}

// RankedCandidate is a scored search hit.
type RankedCandidate struct {
	// Document is the stored document.
	Document Document `json:"document"`

	// CosineSimilarity is max(0, 1 - distance).
	CosineSimilarity float64 `json:"cosine_similarity"`

	// SemanticRelevance is the intent/keyword/metadata alignment score.
	SemanticRelevance float64 `json:"semantic_relevance"`

	// FusedScore is CosineWeight*CosineSimilarity + SemanticWeight*SemanticRelevance.
	FusedScore float64 `json:"fused_score"`
}

// QueryResult is the outcome of a retrieval request.
type QueryResult struct {
	// Query is the original query text.
	Query string `json:"query"`

	// Domain is the searched partition.
	Domain string `json:"domain"`

	// Documents are the retrieved documents, best first.
	Documents []Document `json:"retrieved_documents"`

	// SimilarityScores are the fused scores parallel to Documents.
	// They are NOT raw cosine similarities.
	SimilarityScores []float64 `json:"similarity_scores"`

	// Candidates carries the score breakdown parallel to Documents.
	Candidates []RankedCandidate `json:"-"`

	// EnhancedContext is the assembled text for a generation prompt.
	EnhancedContext string `json:"enhanced_context"`

	// Metadata summarises the semantic analysis and retrieval parameters.
	Metadata map[string]any `json:"metadata"`
}

// AddDocumentRequest is a request to store a new document.
type AddDocumentRequest struct {
	Content  string         `json:"content" validate:"required"`
	Domain   string         `json:"domain" validate:"required"`
	Source   string         `json:"source" validate:"required"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FeedbackRequest is a request to record interaction feedback.
type FeedbackRequest struct {
	InteractionType string         `json:"interaction_type" validate:"required"`
	Content         string         `json:"content" validate:"required"`
	Success         bool           `json:"success"`
	Feedback        string         `json:"feedback,omitempty"`
	QualityScore    float64        `json:"quality_score" validate:"gte=0,lte=1"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Interaction converts the request into an Interaction.
func (r FeedbackRequest) Interaction() Interaction {
	return Interaction{
		Type:         r.InteractionType,
		Content:      r.Content,
		Success:      r.Success,
		Feedback:     r.Feedback,
		QualityScore: r.QualityScore,
		Metadata:     r.Metadata,
	}
}
