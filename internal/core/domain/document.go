package domain

import "time"

// Document represents a stored knowledge item.
// Documents are never mutated after storage; ingesting the same ID again
// replaces the previous version (last write wins).
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Content is the raw text that is embedded and returned as context.
	Content string

	// Metadata contains arbitrary scalar key-value pairs used for filtering
	// and relevance scoring.
	Metadata map[string]any

	// Domain is the knowledge partition the document belongs to.
	Domain string

	// Source is the provenance tag (e.g. "manual", "interaction_feedback").
	Source string

	// Timestamp is when the document was ingested.
	Timestamp time.Time

	// Embedding is the vector representation. Its length is fixed by the
	// domain once the first vector is stored.
	Embedding []float32
}

// MetadataString returns the metadata value for key if it is a string.
func (d Document) MetadataString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	s, _ := d.Metadata[key].(string)
	return s
}

// Interaction is a user or system interaction captured for learning.
type Interaction struct {
	// Type names the kind of interaction (e.g. "content_generation").
	Type string `json:"type"`

	// Content is the interaction payload (prompt, generated text, ...).
	Content string `json:"content"`

	// Success reports whether the interaction achieved its goal.
	Success bool `json:"success"`

	// Feedback is optional free-text feedback.
	Feedback string `json:"feedback,omitempty"`

	// QualityScore is a 0-1 quality rating.
	QualityScore float64 `json:"quality_score"`

	// Metadata carries additional scalar fields.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FeedbackStatus is the outcome reported for a feedback submission.
type FeedbackStatus string

// Feedback outcomes.
const (
	// FeedbackStatusSuccess means the interaction was stored.
	FeedbackStatusSuccess FeedbackStatus = "success"

	// FeedbackStatusWarning means storing failed but the call did not error.
	FeedbackStatusWarning FeedbackStatus = "warning"
)
