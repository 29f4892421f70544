package semantic

import "github.com/custodia-labs/ragkit/internal/core/domain"

// subjectFallback keeps general-purpose material when narrowing by concept.
const subjectFallback = "general"

// BuildFilters derives metadata constraints from an analysis.
// The primary intent contributes its table condition, the strongest concept
// narrows by subject when it is matched strongly enough, and domain rules
// add their own conditions. Returns nil when nothing applies.
func (p *Processor) BuildFilters(analysis domain.IntentAnalysis, domainName string) domain.MetadataFilter {
	var filter domain.MetadataFilter

	if rule, ok := p.rule(analysis.PrimaryIntent); ok {
		filter = append(filter, rule.filter...)
	}

	if len(analysis.Concepts) > 0 && analysis.Concepts[0].MatchCount >= p.conceptFilterMin {
		filter = append(filter, domain.Condition{
			Field:  "subject",
			Op:     domain.FilterOpIn,
			Values: []any{analysis.Concepts[0].Area, subjectFallback},
		})
	}

	for _, dr := range p.domainRules {
		if dr.domain != domainName {
			continue
		}
		if dr.when == whenTechnicalTerms && len(analysis.TechnicalTerms) == 0 {
			continue
		}
		filter = append(filter, dr.cond)
	}

	if len(filter) == 0 {
		return nil
	}
	return filter
}
