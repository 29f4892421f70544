package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	p, err := NewDefault()
	require.NoError(t, err)
	return p
}

func TestNewDefault_CompilesEmbeddedVocabulary(t *testing.T) {
	p := newTestProcessor(t)

	assert.Equal(t, len(domain.IntentPriority()), p.RuleCount())
	for i, intent := range domain.IntentPriority() {
		assert.Equal(t, intent, p.rules[i].intent)
	}
	assert.NotEmpty(t, p.concepts)
}

func TestNew_RejectsBadVocabulary(t *testing.T) {
	tests := []struct {
		name  string
		vocab Vocabulary
	}{
		{"unknown intent", Vocabulary{Intents: []IntentSpec{{Name: "chitchat"}}}},
		{"general as rule", Vocabulary{Intents: []IntentSpec{{Name: "general"}}}},
		{"duplicate intent", Vocabulary{Intents: []IntentSpec{{Name: "how_to"}, {Name: "how_to"}}}},
		{"bad pattern", Vocabulary{Intents: []IntentSpec{{Name: "how_to", Patterns: []string{"("}}}}},
		{"bad filter op", Vocabulary{Intents: []IntentSpec{{
			Name: "how_to", Filter: &FilterSpec{Field: "x", Op: "regex", Value: "y"},
		}}}},
		{"empty concept", Vocabulary{Concepts: []ConceptSpec{{Area: "empty"}}}},
		{"bad domain trigger", Vocabulary{DomainRules: []DomainRuleSpec{{
			Domain: "lab_assistant", When: "sometimes", Filter: FilterSpec{Field: "x", Op: "exists"},
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.vocab)
			assert.Error(t, err)
		})
	}
}

func TestParseVocabulary(t *testing.T) {
	v, err := ParseVocabulary([]byte(`
version = 2
concept_filter_min_matches = 1

[[intents]]
name = "example"
patterns = ['\bdemo\b']
expansion = ["example"]
filter = { field = "content_type", op = "eq", value = "example" }
`))
	require.NoError(t, err)
	assert.Equal(t, 2, v.Version)
	require.Len(t, v.Intents, 1)
	require.NotNil(t, v.Intents[0].Filter)

	p, err := New(v)
	require.NoError(t, err)
	analysis := p.ExtractIntent("show a demo")
	assert.Equal(t, domain.IntentExample, analysis.PrimaryIntent)
	assert.InDelta(t, 1.0, analysis.Confidence, 1e-9)

	_, err = ParseVocabulary([]byte("intents = ["))
	assert.Error(t, err)
}

func TestExtractIntent_Primary(t *testing.T) {
	p := newTestProcessor(t)

	tests := []struct {
		query    string
		expected domain.Intent
	}{
		{"how to write a for loop", domain.IntentHowTo},
		{"How can I set up a database", domain.IntentHowTo},
		{"what is recursion", domain.IntentWhatIs},
		{"explain gradient descent", domain.IntentWhatIs},
		{"show me an example of a closure", domain.IntentExample},
		{"how do I fix a null pointer error", domain.IntentTroubleshoot},
		{"my program crashes on start", domain.IntentTroubleshoot},
		{"python vs java", domain.IntentCompare},
		{"difference between a list and a tuple", domain.IntentCompare},
		{"best practices for naming variables", domain.IntentBestPractices},
		{"photosynthesis", domain.IntentGeneral},
		{"", domain.IntentGeneral},
		{"   ", domain.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.ExtractIntent(tt.query).PrimaryIntent)
		})
	}
}

func TestExtractIntent_AllIntentsAndConfidence(t *testing.T) {
	p := newTestProcessor(t)

	analysis := p.ExtractIntent("how to fix this error, with an example")

	assert.Equal(t, []domain.Intent{domain.IntentHowTo, domain.IntentExample, domain.IntentTroubleshoot},
		analysis.AllIntents)
	assert.Equal(t, domain.IntentHowTo, analysis.PrimaryIntent)
	assert.InDelta(t, 3.0/6.0, analysis.Confidence, 1e-9)
	assert.Equal(t, 8, analysis.QueryWordCount)
}

func TestExtractIntent_Empty(t *testing.T) {
	p := newTestProcessor(t)

	analysis := p.ExtractIntent("")

	assert.Equal(t, domain.IntentGeneral, analysis.PrimaryIntent)
	assert.Empty(t, analysis.AllIntents)
	assert.Empty(t, analysis.Concepts)
	assert.Empty(t, analysis.TechnicalTerms)
	assert.Zero(t, analysis.Confidence)
}

func TestExtractIntent_Concepts(t *testing.T) {
	p := newTestProcessor(t)

	analysis := p.ExtractIntent("write a function with a loop that queries the database table")

	require.Len(t, analysis.Concepts, 2)
	// Equal counts keep vocabulary order.
	assert.Equal(t, "programming", analysis.Concepts[0].Area)
	assert.Equal(t, 2, analysis.Concepts[0].MatchCount)
	assert.Equal(t, []string{"function", "loop"}, analysis.Concepts[0].MatchedKeywords)
	assert.Equal(t, "data", analysis.Concepts[1].Area)
	assert.Equal(t, []string{"database", "table"}, analysis.Concepts[1].MatchedKeywords)

	analysis = p.ExtractIntent("matrix proof for the derivative of a function")
	require.Len(t, analysis.Concepts, 2)
	assert.Equal(t, "mathematics", analysis.Concepts[0].Area)
	assert.Equal(t, 3, analysis.Concepts[0].MatchCount)
}

func TestExtractIntent_WholeWordConcepts(t *testing.T) {
	p := newTestProcessor(t)

	// "classroom" must not count as "class".
	analysis := p.ExtractIntent("classroom decorations")
	assert.Empty(t, analysis.Concepts)
}

func TestExtractIntent_Deterministic(t *testing.T) {
	p := newTestProcessor(t)
	queries := []string{
		"how do I fix a null pointer error in getUserName()",
		"best practices vs conventions for HTTP_PORT config.Load",
		"what is a neural network model",
		"",
	}

	for _, q := range queries {
		first := p.ExtractIntent(q)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, p.ExtractIntent(q))
		}
	}
}

func TestOpenerAndAnnotation(t *testing.T) {
	p := newTestProcessor(t)

	howTo := p.ExtractIntent("how to sort a list")
	assert.Equal(t, "Step-by-step guidance for: 'how to sort a list'", p.Opener(howTo, "how to sort a list"))
	assert.Equal(t, "Instructional", p.Annotation(howTo, "First, open the file. Then sort it."))
	assert.Empty(t, p.Annotation(howTo, "Lists hold values."))

	general := p.ExtractIntent("photosynthesis")
	assert.Equal(t, "Relevant context for: 'photosynthesis'", p.Opener(general, "photosynthesis"))
	assert.Empty(t, p.Annotation(general, "step by step guide"))
}
