// Package semantic analyses queries before similarity search.
//
// A Processor classifies query intent, detects educational concepts and
// technical terms, derives metadata pre-filters, expands the query text and
// scores document relevance. It performs no I/O, holds only data compiled
// at construction and is safe for concurrent use.
package semantic

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

// Processor performs the semantic analysis steps of retrieval.
type Processor struct {
	rules       []intentRule
	generalText string
	concepts    []concept
	domainRules []domainRule

	conceptFilterMin    int
	expansionPerConcept int
}

type intentRule struct {
	intent     domain.Intent
	patterns   []*regexp.Regexp
	expansion  []string
	cues       []phrase
	opener     string
	annotation string
	filter     domain.MetadataFilter
}

type concept struct {
	area     string
	keywords []phrase
}

type domainRule struct {
	domain string
	when   string
	cond   domain.Condition
}

// phrase is a word or multi-word term matched on word boundaries.
type phrase struct {
	text string
	re   *regexp.Regexp
}

func newPhrase(text string) phrase {
	text = strings.ToLower(strings.TrimSpace(text))
	return phrase{text: text, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(text) + `\b`)}
}

func (p phrase) in(lower string) bool {
	return p.re.MatchString(lower)
}

// New compiles a vocabulary into a Processor.
func New(v Vocabulary) (*Processor, error) {
	p := &Processor{
		generalText:         v.General.Opener,
		conceptFilterMin:    v.ConceptFilterMinMatches,
		expansionPerConcept: v.ExpansionPerConcept,
	}
	if p.generalText == "" {
		p.generalText = "Relevant context for: '%s'"
	}
	if p.conceptFilterMin <= 0 {
		p.conceptFilterMin = 1
	}

	byIntent := make(map[domain.Intent]intentRule, len(v.Intents))
	for _, def := range v.Intents {
		intent := domain.Intent(def.Name)
		if !intent.IsValid() || intent == domain.IntentGeneral {
			return nil, fmt.Errorf("vocabulary: unknown intent %q", def.Name)
		}
		if _, dup := byIntent[intent]; dup {
			return nil, fmt.Errorf("vocabulary: duplicate intent %q", def.Name)
		}

		rule := intentRule{
			intent:     intent,
			expansion:  def.Expansion,
			opener:     def.Opener,
			annotation: def.Annotation,
		}
		for _, pat := range def.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("vocabulary: intent %s: %w", def.Name, err)
			}
			rule.patterns = append(rule.patterns, re)
		}
		for _, cue := range def.Cues {
			rule.cues = append(rule.cues, newPhrase(cue))
		}
		if def.Filter != nil {
			cond, err := def.Filter.Condition()
			if err != nil {
				return nil, fmt.Errorf("vocabulary: intent %s: %w", def.Name, err)
			}
			rule.filter = domain.MetadataFilter{cond}
		}
		byIntent[intent] = rule
	}

	// Evaluation order is fixed, not taken from the file.
	for _, intent := range domain.IntentPriority() {
		if rule, ok := byIntent[intent]; ok {
			p.rules = append(p.rules, rule)
		}
	}

	for _, def := range v.Concepts {
		if def.Area == "" || len(def.Keywords) == 0 {
			return nil, fmt.Errorf("vocabulary: concept %q has no keywords", def.Area)
		}
		c := concept{area: def.Area}
		for _, kw := range def.Keywords {
			c.keywords = append(c.keywords, newPhrase(kw))
		}
		p.concepts = append(p.concepts, c)
	}

	for _, def := range v.DomainRules {
		cond, err := def.Filter.Condition()
		if err != nil {
			return nil, fmt.Errorf("vocabulary: domain rule %s: %w", def.Domain, err)
		}
		when := def.When
		if when == "" {
			when = whenAlways
		}
		if when != whenAlways && when != whenTechnicalTerms {
			return nil, fmt.Errorf("vocabulary: domain rule %s: unknown trigger %q", def.Domain, def.When)
		}
		p.domainRules = append(p.domainRules, domainRule{domain: def.Domain, when: when, cond: cond})
	}

	return p, nil
}

// NewDefault compiles the built-in vocabulary.
func NewDefault() (*Processor, error) {
	v, err := DefaultVocabulary()
	if err != nil {
		return nil, err
	}
	return New(v)
}

// RuleCount returns the number of intent rules, the denominator of confidence.
func (p *Processor) RuleCount() int {
	return len(p.rules)
}

// ExtractIntent analyses a query. The result depends only on the query text.
func (p *Processor) ExtractIntent(query string) domain.IntentAnalysis {
	analysis := domain.IntentAnalysis{
		PrimaryIntent:  domain.IntentGeneral,
		AllIntents:     []domain.Intent{},
		Concepts:       []domain.ConceptMatch{},
		TechnicalTerms: []string{},
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return analysis
	}
	lower := strings.ToLower(query)
	analysis.QueryWordCount = len(strings.Fields(query))

	for _, rule := range p.rules {
		for _, re := range rule.patterns {
			if re.MatchString(lower) {
				analysis.AllIntents = append(analysis.AllIntents, rule.intent)
				break
			}
		}
	}
	if len(analysis.AllIntents) > 0 {
		analysis.PrimaryIntent = analysis.AllIntents[0]
	}
	if len(p.rules) > 0 {
		analysis.Confidence = float64(len(analysis.AllIntents)) / float64(len(p.rules))
	}

	for _, c := range p.concepts {
		var matched []string
		for _, kw := range c.keywords {
			if kw.in(lower) {
				matched = append(matched, kw.text)
			}
		}
		if len(matched) > 0 {
			analysis.Concepts = append(analysis.Concepts, domain.ConceptMatch{
				Area:            c.area,
				MatchCount:      len(matched),
				MatchedKeywords: matched,
			})
		}
	}
	sort.SliceStable(analysis.Concepts, func(i, j int) bool {
		return analysis.Concepts[i].MatchCount > analysis.Concepts[j].MatchCount
	})

	analysis.TechnicalTerms = ExtractTechnicalTerms(query)
	return analysis
}

// Opener returns the first line of an assembled context.
func (p *Processor) Opener(analysis domain.IntentAnalysis, query string) string {
	if rule, ok := p.rule(analysis.PrimaryIntent); ok && rule.opener != "" {
		return fmt.Sprintf(rule.opener, query)
	}
	return fmt.Sprintf(p.generalText, query)
}

// Annotation labels a document block when the document content carries a
// cue for the primary intent. It returns "" otherwise.
func (p *Processor) Annotation(analysis domain.IntentAnalysis, content string) string {
	rule, ok := p.rule(analysis.PrimaryIntent)
	if !ok || rule.annotation == "" {
		return ""
	}
	lower := strings.ToLower(content)
	for _, cue := range rule.cues {
		if cue.in(lower) {
			return rule.annotation
		}
	}
	return ""
}

func (p *Processor) rule(intent domain.Intent) (intentRule, bool) {
	i := slices.IndexFunc(p.rules, func(r intentRule) bool { return r.intent == intent })
	if i < 0 {
		return intentRule{}, false
	}
	return p.rules[i], true
}

func (p *Processor) concept(area string) (concept, bool) {
	i := slices.IndexFunc(p.concepts, func(c concept) bool { return c.area == area })
	if i < 0 {
		return concept{}, false
	}
	return p.concepts[i], true
}
