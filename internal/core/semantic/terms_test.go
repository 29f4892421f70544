package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTechnicalTerms(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"none", "how do I fix a null pointer error", []string{}},
		{"camel case", "why does getUserName return nil", []string{"getUserName"}},
		{"pascal case", "NullPointerException in HttpServer", []string{"NullPointerException", "HttpServer"}},
		{"snake case", "rename user_id to account_id", []string{"user_id", "account_id"}},
		{"all caps", "set HTTP_PORT for the API", []string{"HTTP_PORT", "API"}},
		{"single capital ignored", "I need help", []string{}},
		{"call", "what does print() do", []string{"print()"}},
		{"qualified call keeps longest", "fmt.Println() output", []string{"fmt.Println()"}},
		{"member", "read config.timeout first", []string{"config.timeout"}},
		{"dedupe in order", "user_id and API and user_id", []string{"user_id", "API"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractTechnicalTerms(tt.query))
		})
	}
}
