package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

var (
	feedbackType     string
	feedbackSuccess  bool
	feedbackText     string
	feedbackQuality  float64
	feedbackMetadata []string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [content]",
	Short: "Record feedback on an interaction",
	Long: `Stores an interaction in the user_interactions domain so later queries
can learn from it. A failed store is reported as a warning, not an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackType, "type", "t", domain.DomainContentGeneration, "interaction type")
	feedbackCmd.Flags().BoolVar(&feedbackSuccess, "success", false, "the interaction achieved its goal")
	feedbackCmd.Flags().StringVar(&feedbackText, "feedback", "", "free-text feedback")
	feedbackCmd.Flags().Float64VarP(&feedbackQuality, "quality", "q", 0, "quality score between 0 and 1")
	feedbackCmd.Flags().StringArrayVarP(&feedbackMetadata, "meta", "m", nil, "metadata as key=value (repeatable)")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	metadata, err := parseKeyValues(feedbackMetadata, false)
	if err != nil {
		return err
	}

	status := ingestService.RecordFeedback(cmd.Context(), domain.FeedbackRequest{
		InteractionType: feedbackType,
		Content:         strings.Join(args, " "),
		Success:         feedbackSuccess,
		Feedback:        feedbackText,
		QualityScore:    feedbackQuality,
		Metadata:        metadata,
	})

	if status == domain.FeedbackStatusSuccess {
		cmd.Println(styles.Success.Render("Feedback recorded."))
		return nil
	}
	cmd.Println(styles.Warning.Render("Warning: feedback was not stored. Run with --verbose for details."))
	return nil
}
