package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

var (
	documentDomain   string
	documentSource   string
	documentFile     string
	documentMetadata []string
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage knowledge documents",
	Long:  `Add documents to a knowledge domain.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Embed and store a document",
	Long: `Embeds content and stores it in a knowledge domain.

Content is taken from the argument, from --file, or from stdin when the
argument is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDocumentAdd,
}

func init() {
	documentAddCmd.Flags().StringVarP(&documentDomain, "domain", "d", domain.DomainContentGeneration, "knowledge domain")
	documentAddCmd.Flags().StringVarP(&documentSource, "source", "s", "manual", "provenance tag")
	documentAddCmd.Flags().StringVar(&documentFile, "file", "", "read content from a file")
	documentAddCmd.Flags().StringArrayVarP(&documentMetadata, "meta", "m", nil, "metadata as key=value (repeatable)")

	documentCmd.AddCommand(documentAddCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	content, err := documentContent(cmd, args)
	if err != nil {
		return err
	}

	metadata, err := parseKeyValues(documentMetadata, false)
	if err != nil {
		return err
	}

	id, err := ingestService.AddDocument(cmd.Context(), domain.AddDocumentRequest{
		Content:  content,
		Domain:   documentDomain,
		Source:   documentSource,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Added document %s to %s\n", id, documentDomain)
	return nil
}

func documentContent(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case documentFile != "" && len(args) > 0:
		return "", errors.New("pass content or --file, not both")
	case documentFile != "":
		data, err := os.ReadFile(documentFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", documentFile, err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("no content given")
	}
}

