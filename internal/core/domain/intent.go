package domain

// Intent classifies what a query is asking for.
type Intent string

// Known intents. The order of IntentPriority decides the primary intent
// when a query matches several rules.
const (
	IntentHowTo         Intent = "how_to"
	IntentWhatIs        Intent = "what_is"
	IntentExample       Intent = "example"
	IntentTroubleshoot  Intent = "troubleshoot"
	IntentCompare       Intent = "compare"
	IntentBestPractices Intent = "best_practices"
	IntentGeneral       Intent = "general"
)

// IntentPriority returns the rule evaluation order used to pick the primary intent.
func IntentPriority() []Intent {
	return []Intent{
		IntentHowTo,
		IntentWhatIs,
		IntentExample,
		IntentTroubleshoot,
		IntentCompare,
		IntentBestPractices,
	}
}

// IsValid returns true if the intent is recognised.
func (i Intent) IsValid() bool {
	switch i {
	case IntentHowTo, IntentWhatIs, IntentExample, IntentTroubleshoot,
		IntentCompare, IntentBestPractices, IntentGeneral:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}

// ConceptMatch is an educational concept detected in a query.
type ConceptMatch struct {
	// Area is the concept bucket name (e.g. "programming").
	Area string `json:"area"`

	// MatchCount is the number of bucket keywords found in the query.
	MatchCount int `json:"match_count"`

	// MatchedKeywords lists the keywords that hit, in vocabulary order.
	MatchedKeywords []string `json:"matched_keywords"`
}

// IntentAnalysis is the semantic reading of a single query.
// It is created per request and discarded afterwards.
type IntentAnalysis struct {
	// PrimaryIntent is the first matching intent in priority order, or general.
	PrimaryIntent Intent `json:"primary_intent"`

	// AllIntents lists every matching intent in priority order.
	AllIntents []Intent `json:"all_intents"`

	// Confidence is len(AllIntents) divided by the number of intent rules.
	Confidence float64 `json:"confidence"`

	// Concepts are detected educational concepts, strongest first.
	Concepts []ConceptMatch `json:"educational_concepts"`

	// TechnicalTerms are identifier-like tokens found in the query.
	TechnicalTerms []string `json:"technical_terms"`

	// QueryWordCount is the number of whitespace-separated words.
	QueryWordCount int `json:"query_word_count"`
}

// HasIntent reports whether intent was among the matched intents.
func (a IntentAnalysis) HasIntent(intent Intent) bool {
	for _, i := range a.AllIntents {
		if i == intent {
			return true
		}
	}
	return false
}

// ConceptAreas returns the detected concept names in order.
func (a IntentAnalysis) ConceptAreas() []string {
	areas := make([]string, 0, len(a.Concepts))
	for _, c := range a.Concepts {
		areas = append(areas, c.Area)
	}
	return areas
}
