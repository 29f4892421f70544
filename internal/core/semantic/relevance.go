package semantic

import (
	"strings"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

// Relevance weights.
const (
	baseRelevance      = 0.5
	intentCueWeight    = 0.15
	maxIntentAlignment = 0.3
	conceptWeight      = 0.2
	termWeight         = 0.2
	qualityBonus       = 0.1
	feedbackBonus      = 0.1

	// HighQualityThreshold marks documents with a high generation quality.
	HighQualityThreshold = 0.8
)

// ScoreRelevance rates how well a document fits the analysed query.
// The score is in [0, 1].
func (p *Processor) ScoreRelevance(doc domain.Document, analysis domain.IntentAnalysis) float64 {
	score := baseRelevance
	lower := strings.ToLower(doc.Content)

	if rule, ok := p.rule(analysis.PrimaryIntent); ok {
		hits := 0
		for _, cue := range rule.cues {
			if cue.in(lower) {
				hits++
			}
		}
		score += min(float64(hits)*intentCueWeight, maxIntentAlignment)
	}

	for _, match := range analysis.Concepts {
		c, ok := p.concept(match.Area)
		if !ok || len(c.keywords) == 0 {
			continue
		}
		hits := 0
		for _, kw := range c.keywords {
			if kw.in(lower) {
				hits++
			}
		}
		score += float64(hits) / float64(len(c.keywords)) * conceptWeight
	}

	if len(analysis.TechnicalTerms) > 0 {
		hits := 0
		for _, term := range analysis.TechnicalTerms {
			if termInContent(term, lower) {
				hits++
			}
		}
		score += float64(hits) / float64(len(analysis.TechnicalTerms)) * termWeight
	}

	if q, ok := domain.NumericValue(doc.Metadata["quality_score"]); ok && q >= HighQualityThreshold {
		score += qualityBonus
	}
	if hasPositiveFeedback(doc) {
		score += feedbackBonus
	}

	return max(0, min(score, 1))
}

func termInContent(term, lowerContent string) bool {
	t := strings.ToLower(term)
	if strings.Contains(lowerContent, t) {
		return true
	}
	bare := strings.TrimSuffix(t, "()")
	return bare != t && bare != "" && strings.Contains(lowerContent, bare)
}

func hasPositiveFeedback(doc domain.Document) bool {
	if success, ok := doc.Metadata["success"].(bool); ok && success {
		return true
	}
	return strings.EqualFold(doc.MetadataString("user_feedback"), "positive")
}
