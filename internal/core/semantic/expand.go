package semantic

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

var wordPattern = regexp.MustCompile(`[a-z0-9_]+`)

// ExpandQuery appends the intent keyword cluster and up to the configured
// number of keywords per detected concept after the original query.
// Terms whose words all appear in the query already are skipped.
// The second return value reports whether anything was appended.
func (p *Processor) ExpandQuery(query string, analysis domain.IntentAnalysis) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return query, false
	}

	present := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		present[w] = true
	}

	var added []string
	appendTerm := func(term string) bool {
		words := wordPattern.FindAllString(strings.ToLower(term), -1)
		if len(words) == 0 {
			return false
		}
		fresh := false
		for _, w := range words {
			if !present[w] {
				fresh = true
			}
		}
		if !fresh {
			return false
		}
		for _, w := range words {
			present[w] = true
		}
		added = append(added, term)
		return true
	}

	if rule, ok := p.rule(analysis.PrimaryIntent); ok {
		for _, term := range rule.expansion {
			appendTerm(term)
		}
	}

	for _, match := range analysis.Concepts {
		c, ok := p.concept(match.Area)
		if !ok {
			continue
		}
		taken := 0
		for _, kw := range c.keywords {
			if taken >= p.expansionPerConcept {
				break
			}
			if appendTerm(kw.text) {
				taken++
			}
		}
	}

	if len(added) == 0 {
		return query, false
	}
	return query + " " + strings.Join(added, " "), true
}
