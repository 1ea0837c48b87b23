package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palaver/internal/adapters/driven/ai"
	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the provider, models and session options.

Environment variables take precedence over the config file:
  OPENAI_API_KEY, OPENAI_BASE_URL, HTTPS_PROXY, PALAVER_PROVIDER,
  PALAVER_CHAT_MODEL, PALAVER_COMPLETION_MODEL`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting and save it to the config file.

Run 'palaver settings keys' for the list of keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the provider is reachable",
	Long:  `Connect to the configured provider and list its models.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func settingsService() (driving.SettingsService, error) {
	if deps == nil || deps.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return deps.Settings, nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.Provider.Description())
	cmd.Printf("  Base URL: %s\n", settings.EffectiveBaseURL())
	if settings.Proxy != "" {
		cmd.Printf("  Proxy: %s\n", settings.Proxy)
	}
	cmd.Printf("  Chat model: %s\n", settings.ChatModel)
	cmd.Printf("  Completion model: %s\n", settings.CompletionModel)
	if settings.RequestsPerSecond > 0 {
		cmd.Printf("  Requests per second: %g\n", settings.RequestsPerSecond)
	}
	if settings.Provider.RequiresAPIKey() {
		if key := ai.APIKeyFromEnv(); key != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(key))
		} else {
			cmd.Printf("  API Key: (not set, export %s)\n", ai.EnvAPIKey)
		}
	}
	cmd.Println()

	cmd.Println("[Session]")
	cmd.Printf("  Keep context: %s\n", yesNo(settings.PersistContext))
	cmd.Println()

	cmd.Printf("Config file: %s\n", svc.ConfigPath())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := svc.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}
	for _, k := range svc.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if proxy, _ := cmd.Flags().GetString("proxy"); proxy != "" {
		settings.Proxy = proxy
	}

	cmd.Printf("Checking %s at %s... ", settings.Provider.Description(), settings.EffectiveBaseURL())
	if err := ai.ValidateConfig(cmd.Context(), settings, ai.APIKeyFromEnv()); err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Println("OK")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		defaults := svc.GetDefaults()
		settings = &defaults
	}

	cmd.Println("Palaver Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Select Provider")
	cmd.Println("-----------------------")
	providers := domain.AllProviders()
	current := 1
	for i, p := range providers {
		if p == settings.Provider {
			current = i + 1
		}
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Printf("\nEnter choice [%d]: ", current)
	idx := parseChoice(readLine(reader), len(providers), current)
	if selected := providers[idx-1]; selected != settings.Provider {
		settings.Provider = selected
		settings.BaseURL = ""
	}
	cmd.Println()

	cmd.Println("Step 2: Models")
	cmd.Println("--------------")
	settings.BaseURL = prompt(cmd, reader, "Base URL", settings.EffectiveBaseURL())
	if settings.BaseURL == settings.Provider.DefaultBaseURL() {
		settings.BaseURL = ""
	}
	settings.ChatModel = prompt(cmd, reader, "Chat model", settings.ChatModel)
	settings.CompletionModel = prompt(cmd, reader, "Completion model", settings.CompletionModel)
	cmd.Println()

	cmd.Println("Step 3: Session")
	cmd.Println("---------------")
	keep := prompt(cmd, reader, "Keep conversation context (yes/no)", yesNo(settings.PersistContext))
	settings.PersistContext = parseYes(keep, settings.PersistContext)
	cmd.Println()

	if err := svc.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Printf("Saved to %s\n", svc.ConfigPath())
	if settings.Provider.RequiresAPIKey() && ai.APIKeyFromEnv() == "" {
		cmd.Printf("Note: export %s before starting a session.\n", ai.EnvAPIKey)
	}
	return nil
}

// Helper functions.

func prompt(cmd *cobra.Command, reader *bufio.Reader, label, current string) string {
	cmd.Printf("%s [%s]: ", label, current)
	if v := readLine(reader); v != "" {
		return v
	}
	return current
}

func readLine(reader *bufio.Reader) string {
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
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

func parseYes(input string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes", "true", "1":
		return true
	case "n", "no", "false", "0":
		return false
	default:
		return defaultVal
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
