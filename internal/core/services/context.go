package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/semantic"
)

// MaxContextDocuments caps the document blocks in an assembled context.
const MaxContextDocuments = 3

// metadataHints are the fields summarised under each block, in order.
var metadataHints = []struct{ key, label string }{
	{"content_type", "type"},
	{"subject", "subject"},
	{"difficulty_level", "level"},
	{"programming_language", "language"},
}

// AssembleContext renders retrieved documents into a prompt-ready context.
// It returns "" when docs is empty and never fails.
func AssembleContext(p *semantic.Processor, query string, analysis domain.IntentAnalysis, docs []domain.Document) string {
	if len(docs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(p.Opener(analysis, query))
	b.WriteString("\n")
	if areas := analysis.ConceptAreas(); len(areas) > 0 {
		fmt.Fprintf(&b, "Key concepts: %s\n", strings.Join(areas, ", "))
	}

	for i, doc := range docs[:min(len(docs), MaxContextDocuments)] {
		b.WriteString("\n")

		source := doc.Source
		if source == "" {
			source = "unknown"
		}
		if label := p.Annotation(analysis, doc.Content); label != "" {
			fmt.Fprintf(&b, "[Source %d: %s | %s]\n", i+1, source, label)
		} else {
			fmt.Fprintf(&b, "[Source %d: %s]\n", i+1, source)
		}

		b.WriteString(strings.TrimSpace(doc.Content))
		b.WriteString("\n")

		if hint := metadataHint(doc.Metadata); hint != "" {
			fmt.Fprintf(&b, "(%s)\n", hint)
		}
	}

	fmt.Fprintf(&b, "\nSemantic analysis: intent=%s, confidence=%.2f", analysis.PrimaryIntent, analysis.Confidence)
	if len(analysis.TechnicalTerms) > 0 {
		fmt.Fprintf(&b, ", technical terms: %s", strings.Join(analysis.TechnicalTerms, ", "))
	}
	b.WriteString("\n")

	return b.String()
}

func metadataHint(metadata map[string]any) string {
	var parts []string
	for _, h := range metadataHints {
		v, ok := metadata[h.key]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			continue
		}
		parts = append(parts, h.label+": "+s)
	}
	return strings.Join(parts, ", ")
}
