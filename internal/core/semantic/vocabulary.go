package semantic

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

//go:embed vocabulary.toml
var defaultVocabulary []byte

// Vocabulary is the immutable data the processor matches queries against.
// It is decoded from TOML once and compiled by New.
type Vocabulary struct {
	Version int `toml:"version"`

	// ConceptFilterMinMatches is the keyword hit count the top concept needs
	// before it narrows the search by subject.
	ConceptFilterMinMatches int `toml:"concept_filter_min_matches"`

	// ExpansionPerConcept caps the keywords appended per detected concept.
	ExpansionPerConcept int `toml:"expansion_per_concept"`

	General     GeneralSpec      `toml:"general"`
	Intents     []IntentSpec     `toml:"intents"`
	Concepts    []ConceptSpec    `toml:"concepts"`
	DomainRules []DomainRuleSpec `toml:"domain_rules"`
}

// GeneralSpec holds text used when no intent rule matched.
type GeneralSpec struct {
	Opener string `toml:"opener"`
}

// IntentSpec describes one intent rule.
type IntentSpec struct {
	Name       string      `toml:"name"`
	Patterns   []string    `toml:"patterns"`
	Expansion  []string    `toml:"expansion"`
	Cues       []string    `toml:"cues"`
	Opener     string      `toml:"opener"`
	Annotation string      `toml:"annotation"`
	Filter     *FilterSpec `toml:"filter"`
}

// ConceptSpec is a named bucket of keywords.
type ConceptSpec struct {
	Area     string   `toml:"area"`
	Keywords []string `toml:"keywords"`
}

// DomainRuleSpec adds a filter for a domain when its trigger holds.
type DomainRuleSpec struct {
	Domain string     `toml:"domain"`
	When   string     `toml:"when"`
	Filter FilterSpec `toml:"filter"`
}

// FilterSpec is the TOML form of a domain.Condition.
type FilterSpec struct {
	Field  string `toml:"field"`
	Op     string `toml:"op"`
	Value  any    `toml:"value"`
	Values []any  `toml:"values"`
}

// Condition converts the spec into a metadata condition.
func (f FilterSpec) Condition() (domain.Condition, error) {
	op := domain.FilterOp(f.Op)
	switch op {
	case domain.FilterOpEq, domain.FilterOpGte, domain.FilterOpLte:
		if f.Value == nil {
			return domain.Condition{}, fmt.Errorf("filter on %q: op %s needs a value", f.Field, op)
		}
	case domain.FilterOpIn:
		if len(f.Values) == 0 {
			return domain.Condition{}, fmt.Errorf("filter on %q: op in needs values", f.Field)
		}
	case domain.FilterOpExists:
	default:
		return domain.Condition{}, fmt.Errorf("filter on %q: %w: op %q", f.Field, domain.ErrUnsupportedType, f.Op)
	}
	if f.Field == "" {
		return domain.Condition{}, errors.New("filter without field")
	}
	return domain.Condition{Field: f.Field, Op: op, Value: f.Value, Values: f.Values}, nil
}

// Domain rule triggers.
const (
	whenTechnicalTerms = "technical_terms"
	whenAlways         = "always"
)

// ParseVocabulary decodes a TOML vocabulary.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := toml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("decode vocabulary: %w", err)
	}
	return v, nil
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() (Vocabulary, error) {
	return ParseVocabulary(defaultVocabulary)
}
