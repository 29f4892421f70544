package semantic

import (
	"regexp"
	"sort"
)

// Identifier-shaped token patterns, matched on the original-case query.
var technicalTermPatterns = []*regexp.Regexp{
	// call() shaped
	regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_.]*\(\)`),
	// object.member shaped
	regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]+\.[A-Za-z_][A-Za-z0-9_]*\b`),
	// CamelCase and camelCase
	regexp.MustCompile(`\b[A-Z]?[a-z]+(?:[A-Z][a-z0-9]+)+\b`),
	// snake_case
	regexp.MustCompile(`\b[a-z][a-z0-9]*(?:_[a-z0-9]+)+\b`),
	// ALL_CAPS, at least two letters
	regexp.MustCompile(`\b[A-Z][A-Z0-9_]*[A-Z][A-Z0-9_]*\b`),
}

type termSpan struct {
	start, end int
	text       string
}

// ExtractTechnicalTerms returns identifier-like tokens in order of first
// appearance. A match nested inside a longer match is dropped, as are
// repeats.
func ExtractTechnicalTerms(query string) []string {
	var spans []termSpan
	for _, re := range technicalTermPatterns {
		for _, loc := range re.FindAllStringIndex(query, -1) {
			spans = append(spans, termSpan{start: loc[0], end: loc[1], text: query[loc[0]:loc[1]]})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	terms := []string{}
	seen := make(map[string]bool)
	coveredTo := -1
	for _, s := range spans {
		if s.end <= coveredTo {
			continue
		}
		coveredTo = max(coveredTo, s.end)
		if seen[s.text] {
			continue
		}
		seen[s.text] = true
		terms = append(terms, s.text)
	}
	return terms
}
