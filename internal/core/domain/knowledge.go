package domain

import "fmt"

// Well-known knowledge domains.
const (
	DomainContentGeneration  = "content_generation"
	DomainLabAssistant       = "lab_assistant"
	DomainSyllabusGeneration = "syllabus_generation"
	DomainQuizGeneration     = "quiz_generation"
	DomainUserInteractions   = "user_interactions"
)

// SourceInteractionFeedback tags documents captured from interaction feedback.
const SourceInteractionFeedback = "interaction_feedback"

// KnowledgeDomain is a named partition of the knowledge base.
// Each domain has its own embedding space and documented metadata fields.
type KnowledgeDomain struct {
	// Name is the partition key.
	Name string `json:"name"`

	// Description explains what the domain holds.
	Description string `json:"description"`

	// Dimensions fixes the embedding size. Zero means the first stored
	// embedding decides it.
	Dimensions int `json:"dimensions"`

	// MetadataFields documents the metadata keys expected in this domain.
	// They are not enforced.
	MetadataFields []string `json:"metadata_fields"`
}

// DomainInfo is a domain plus its current document count.
type DomainInfo struct {
	KnowledgeDomain
	Count int `json:"count"`
}

// FindDomain returns the entry named name, or ErrNotFound.
func FindDomain(infos []DomainInfo, name string) (DomainInfo, error) {
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return DomainInfo{}, fmt.Errorf("%w: domain %q", ErrNotFound, name)
}

// DefaultKnowledgeDomains returns the built-in domain registry.
func DefaultKnowledgeDomains() []KnowledgeDomain {
	return []KnowledgeDomain{
		{
			Name:           DomainContentGeneration,
			Description:    "Generated course content and reference material",
			MetadataFields: []string{"content_type", "subject", "difficulty_level", "quality_score"},
		},
		{
			Name:           DomainLabAssistant,
			Description:    "Lab exercises, code snippets and debugging help",
			MetadataFields: []string{"programming_language", "problem_type", "content_type", "difficulty_level"},
		},
		{
			Name:           DomainSyllabusGeneration,
			Description:    "Syllabi, learning objectives and module outlines",
			MetadataFields: []string{"subject", "difficulty_level", "quality_score"},
		},
		{
			Name:           DomainQuizGeneration,
			Description:    "Quiz questions and assessment items",
			MetadataFields: []string{"subject", "difficulty_level", "question_type"},
		},
		{
			Name:           DomainUserInteractions,
			Description:    "Captured interactions and feedback",
			MetadataFields: []string{"interaction_type", "success", "quality_score", "user_feedback"},
		},
	}
}

// KnowledgeDomainsFromNames builds a registry from configured names.
// Known names keep their built-in descriptions. The interaction domain is
// always present because feedback ingestion writes to it.
func KnowledgeDomainsFromNames(names []string, dimensions int) []KnowledgeDomain {
	defaults := make(map[string]KnowledgeDomain)
	for _, d := range DefaultKnowledgeDomains() {
		defaults[d.Name] = d
	}

	if len(names) == 0 {
		for _, d := range DefaultKnowledgeDomains() {
			names = append(names, d.Name)
		}
	}

	seen := make(map[string]bool, len(names))
	domains := make([]KnowledgeDomain, 0, len(names)+1)
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		d, ok := defaults[name]
		if !ok {
			d = KnowledgeDomain{Name: name}
		}
		d.Dimensions = dimensions
		domains = append(domains, d)
	}

	if !seen[DomainUserInteractions] {
		d := defaults[DomainUserInteractions]
		d.Dimensions = dimensions
		domains = append(domains, d)
	}

	return domains
}
