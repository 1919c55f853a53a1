package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in the config file.

Environment variables (ENVIRONMENT, PROJECT_ID, TOPIC_DB_QUERY, DSUB_*, ...)
override stored values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Long: `Store a single config value. Keys use dotted paths matching the TOML
tables, for example:

  trellis settings set project_id my-project
  trellis settings set launcher.enabled true
  trellis settings set storage.requests_per_second 20
  trellis settings set topics.publish_to TOPIC_A,TOPIC_B`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if services.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := services.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Printf("  Environment: %s\n", settings.Environment)
	cmd.Printf("  Function:    %s\n", orNotSet(settings.FunctionName))
	cmd.Printf("  Project:     %s\n", orNotSet(settings.ProjectID))
	cmd.Printf("  Data dir:    %s\n", orNotSet(settings.DataDir))
	cmd.Println()

	cmd.Println("[Topics]")
	cmd.Printf("  DB query:   %s\n", settings.TopicDBQuery)
	cmd.Printf("  Publish to: %s\n", orNotSet(strings.Join(settings.PublishTo, ", ")))
	cmd.Println()

	cmd.Println("[Labels]")
	cmd.Printf("  Registry: %s\n", orDefault(settings.RegistryFile))
	cmd.Printf("  Taxonomy: %s\n", orDefault(settings.TaxonomyFile))
	cmd.Println()

	cmd.Println("[Launcher]")
	cmd.Printf("  Enabled:  %t\n", settings.Launcher.Enabled)
	cmd.Printf("  Binary:   %s\n", settings.Launcher.Binary)
	cmd.Printf("  Tasks:    %s\n", settings.Launcher.TaskDir)
	cmd.Printf("  User:     %s\n", orNotSet(settings.Launcher.User))
	cmd.Printf("  Regions:  %s\n", orNotSet(settings.Launcher.Regions))
	cmd.Printf("  Logging:  %s\n", orNotSet(settings.Launcher.LogBucket))
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Requests/s:  %g\n", settings.Storage.RequestsPerSecond)
	cmd.Printf("  Burst:       %d\n", settings.Storage.Burst)
	cmd.Printf("  Credentials: %s\n", orDefault(settings.Storage.CredentialsFile))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if services.Settings == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], parseValue(args[1])
	if err := services.Settings.Set(key, value); err != nil {
		return err
	}
	if _, err := services.Settings.Get(); err != nil {
		cmd.Printf("Warning: settings are now invalid: %v\n", err)
	}

	cmd.Printf("Set %s = %v\n", key, value)
	return nil
}

// parseValue converts a command line value to the type stored in TOML.
// Comma separated values become string lists.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		list := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		return list
	}
	return raw
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func orDefault(s string) string {
	if s == "" {
		return "(built-in)"
	}
	return s
}
