package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var domainJSON bool

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Inspect knowledge domains",
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domains with document counts",
	Args:  cobra.NoArgs,
	RunE:  runDomainList,
}

func init() {
	domainListCmd.Flags().BoolVar(&domainJSON, "json", false, "output as JSON")
	domainCmd.AddCommand(domainListCmd)
	rootCmd.AddCommand(domainCmd)
}

func runDomainList(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	infos, err := retrievalService.Domains(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}

	if domainJSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal domains: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(styles.Title.Render("Knowledge Domains"))
	for _, info := range infos {
		cmd.Printf("  %-22s %5d docs  %s\n", info.Name, info.Count, styles.Muted.Render(info.Description))
	}
	return nil
}
