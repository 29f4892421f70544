package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragkit/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure embedding backends and retrieval defaults.

Settings are stored in ~/.ragkit/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the primary embedding backend",
	Long:  `Configure the embedding backend tried first for every query and document.`,
	RunE:  runSettingsEmbedding,
}

var settingsSecondaryCmd = &cobra.Command{
	Use:   "secondary",
	Short: "Configure the fallback embedding backend",
	Long:  `Configure the embedding backend used when the primary backend fails.`,
	RunE:  runSettingsSecondary,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval [default-results]",
	Short: "Set the default number of results",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsRetrieval,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsSecondaryCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(styles.Title.Render("Current Settings"))
	cmd.Println()

	printEmbedding(cmd, "[Primary Embedding]", settings.Primary)
	printEmbedding(cmd, "[Secondary Embedding]", settings.Secondary)

	cmd.Println(styles.Subtitle.Render("[Retrieval]"))
	cmd.Printf("  Default results: %d\n", settings.Retrieval.DefaultResults)
	cmd.Println()

	cmd.Println(styles.Subtitle.Render("[Knowledge]"))
	cmd.Printf("  Backend: %s\n", settings.Knowledge.Backend)
	if settings.Knowledge.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Knowledge.DataDir)
	}
	if settings.Knowledge.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Knowledge.Dimensions)
	} else {
		cmd.Printf("  Dimensions: (set by first document)\n")
	}
	domains := settings.Knowledge.Domains
	if len(domains) == 0 {
		domains = []string{"(defaults)"}
	}
	cmd.Printf("  Domains: %s\n", strings.Join(domains, ", "))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(styles.Warning.Render(fmt.Sprintf("Warning: %v", err)))
		cmd.Println("Run 'ragkit settings embedding' to fix configuration issues.")
	} else {
		cmd.Println(styles.Success.Render("Configuration is valid."))
	}

	return nil
}

func printEmbedding(cmd *cobra.Command, title string, e domain.EmbeddingSettings) {
	cmd.Println(styles.Subtitle.Render(title))
	cmd.Printf("  Provider: %s\n", e.Provider.Description())
	cmd.Printf("  Model: %s\n", e.Model)
	if e.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", e.BaseURL)
	}
	if e.Provider.RequiresAPIKey() {
		if e.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(e.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if e.Retries > 0 {
		cmd.Printf("  Retries: %d\n", e.Retries)
	}
	status := "configured"
	if !e.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	provider, model, baseURL := promptEmbedding(cmd, reader, "Select Primary Embedding Provider")

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetPrimaryEmbedding(provider, model, baseURL, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Primary embedding configured: %s (%s)\n", provider.Description(), modelLabel(provider, model))
	return nil
}

func runSettingsSecondary(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	provider, model, baseURL := promptEmbedding(cmd, reader, "Select Fallback Embedding Provider")

	if err := settingsService.SetSecondaryEmbedding(provider, model, baseURL); err != nil {
		return fmt.Errorf("failed to configure fallback provider: %w", err)
	}

	cmd.Printf("Fallback embedding configured: %s (%s)\n", provider.Description(), modelLabel(provider, model))
	return nil
}

func runSettingsRetrieval(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var input string
	if len(args) == 1 {
		input = args[0]
	} else {
		cmd.Print("Default number of results: ")
		input = readLine(bufio.NewReader(cmd.InOrStdin()))
	}

	n, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("invalid number %q", input)
	}
	if err := settingsService.SetDefaultResults(n); err != nil {
		return fmt.Errorf("failed to set default results: %w", err)
	}

	cmd.Printf("Default results set to: %d\n", n)
	return nil
}

// promptEmbedding asks for a provider, model and base URL.
func promptEmbedding(cmd *cobra.Command, reader *bufio.Reader, title string) (domain.AIProvider, string, string) {
	cmd.Println(title)
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	cmd.Print("Enter base URL (blank for default): ")
	baseURL := readLine(reader)

	return provider, model, baseURL
}

func modelLabel(provider domain.AIProvider, model string) string {
	if model == "" {
		return domain.DefaultEmbeddingModels()[provider]
	}
	return model
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is an interactive terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
