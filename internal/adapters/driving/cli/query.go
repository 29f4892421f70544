package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

var (
	queryDomain      string
	queryResults     int
	queryFilters     []string
	queryJSON        bool
	queryContextOnly bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve knowledge for a query",
	Long: `Embeds the query, searches the domain and ranks the candidates by a fused
score of cosine similarity (70%) and semantic relevance (30%).

Filters narrow the search by metadata. A comma separated value matches any
of the listed values:

  ragkit query "fix a null pointer" -d lab_assistant --filter programming_language=java

The similarity_scores in JSON output are fused scores, not raw cosine similarity.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryDomain, "domain", "d", domain.DomainContentGeneration, "knowledge domain to search")
	queryCmd.Flags().IntVarP(&queryResults, "results", "n", 0, "number of documents to return (0 = configured default)")
	queryCmd.Flags().StringArrayVarP(&queryFilters, "filter", "f", nil, "metadata filter as key=value (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the result as JSON")
	queryCmd.Flags().BoolVar(&queryContextOnly, "context-only", false, "print only the assembled context")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	filter, err := parseKeyValues(queryFilters, true)
	if err != nil {
		return err
	}

	req := domain.QueryRequest{
		Query:    strings.Join(args, " "),
		Domain:   queryDomain,
		NResults: queryResults,
		Filter:   filter,
	}

	result, err := retrievalService.Query(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	switch {
	case queryJSON:
		return outputQueryJSON(cmd, result)
	case queryContextOnly:
		cmd.Println(result.EnhancedContext)
		return nil
	default:
		outputQueryText(cmd, result)
		return nil
	}
}

func outputQueryJSON(cmd *cobra.Command, result *domain.QueryResult) error {
	data, err := json.MarshalIndent(queryResultJSON(result), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

type documentJSON struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Domain    string         `json:"domain"`
	Source    string         `json:"source"`
	Timestamp string         `json:"timestamp"`
}

type queryJSONOutput struct {
	Query            string         `json:"query"`
	Domain           string         `json:"domain"`
	Documents        []documentJSON `json:"retrieved_documents"`
	SimilarityScores []float64      `json:"similarity_scores"`
	EnhancedContext  string         `json:"enhanced_context"`
	Metadata         map[string]any `json:"metadata"`
}

func queryResultJSON(result *domain.QueryResult) queryJSONOutput {
	docs := make([]documentJSON, len(result.Documents))
	for i, d := range result.Documents {
		docs[i] = documentJSON{
			ID:        d.ID,
			Content:   d.Content,
			Metadata:  d.Metadata,
			Domain:    d.Domain,
			Source:    d.Source,
			Timestamp: d.Timestamp.Format(time.RFC3339),
		}
	}
	scores := result.SimilarityScores
	if scores == nil {
		scores = []float64{}
	}
	return queryJSONOutput{
		Query:            result.Query,
		Domain:           result.Domain,
		Documents:        docs,
		SimilarityScores: scores,
		EnhancedContext:  result.EnhancedContext,
		Metadata:         result.Metadata,
	}
}

func outputQueryText(cmd *cobra.Command, result *domain.QueryResult) {
	if len(result.Documents) == 0 {
		cmd.Println("No documents found.")
		return
	}

	cmd.Println(styles.Title.Render(fmt.Sprintf("Results for %q in %s:", result.Query, result.Domain)))
	cmd.Println()
	for i, doc := range result.Documents {
		score := styles.Score.Render(fmt.Sprintf("(%.3f)", result.SimilarityScores[i]))
		cmd.Printf("[%d] %s %s\n", i+1, doc.ID, score)
		cmd.Printf("    %s\n", styles.Muted.Render("source: "+doc.Source))
		cmd.Printf("    %s\n", preview(doc.Content, 120))
		cmd.Println()
	}

	if intent, ok := result.Metadata["primary_intent"]; ok {
		cmd.Println(styles.Muted.Render(fmt.Sprintf("Intent: %v", intent)))
	}
}

// preview returns the first line of content, truncated to limit runes.
func preview(content string, limit int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	runes := []rune(line)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return line
}
