package main

import (
	"fmt"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/VatsalSy/stepwatch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage StepWatch configuration",
	Long: `View and modify StepWatch configuration settings.

Configuration can be managed through:
  • Direct key-value updates
  • Environment variables (STEPWATCH_*)
  • Direct file editing`,
	Example: `  # View all configuration
  stepwatch config

  # View specific setting
  stepwatch config get reporter.format

  # Update setting
  stepwatch config set progress.estimate_window 2m

  # Reset to defaults
  stepwatch config reset`,
	RunE: runConfigList,
}

var (
	configGetCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Get configuration value",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigGet,
	}

	configSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set configuration value",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	}

	configResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE:  runConfigReset,
	}
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
}

type configItem struct {
	Key         string
	Description string
}

var configGroups = []struct {
	Name  string
	Items []configItem
}{
	{"Estimate", []configItem{
		{"progress.min_duration_for_estimate", "History needed before estimating"},
		{"progress.estimate_window", "Rate window (0 = whole step)"},
	}},
	{"Output", []configItem{
		{"reporter.format", "Format (text, json, bar, none)"},
		{"reporter.output", "Sink (stdout, stderr)"},
		{"reporter.print_interval", "Minimum time between lines"},
	}},
	{"Journal", []configItem{
		{"journal.enabled", "Record runs and steps"},
		{"journal.path", "Database file"},
	}},
	{"Metrics", []configItem{
		{"metrics.enabled", "Serve Prometheus metrics during runs"},
		{"metrics.addr", "Listen address"},
	}},
	{"Logging", []configItem{
		{"log.level", "Level"},
		{"log.format", "Format (json, pretty)"},
		{"log.output", "Destination (stderr, stdout, file)"},
		{"log.file", "Log file"},
	}},
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromViper(settings)
	if err != nil {
		return err
	}

	fmt.Println(color.CyanString("⚙️  StepWatch Configuration"))
	fmt.Println()

	configFile := settings.ConfigFileUsed()
	if configFile == "" {
		configFile = config.DefaultConfigPath() + " (not created)"
	}
	fmt.Printf("Config file: %s\n\n", configFile)

	values := map[string]interface{}{
		"progress.min_duration_for_estimate": cfg.Progress.MinDurationForEstimate,
		"progress.estimate_window":           cfg.Progress.EstimateWindow,
		"reporter.format":                    cfg.Reporter.Format,
		"reporter.output":                    cfg.Reporter.Output,
		"reporter.print_interval":            cfg.Reporter.PrintInterval,
		"journal.enabled":                    cfg.Journal.Enabled,
		"journal.path":                       cfg.Journal.Path,
		"metrics.enabled":                    cfg.Metrics.Enabled,
		"metrics.addr":                       cfg.Metrics.Addr,
		"log.level":                          cfg.Log.Level,
		"log.format":                         cfg.Log.Format,
		"log.output":                         cfg.Log.Output,
		"log.file":                           cfg.Log.File,
	}

	for _, group := range configGroups {
		fmt.Println(color.YellowString(group.Name + ":"))

		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, WidthMax: 36},
			{Number: 2, WidthMax: 40},
			{Number: 3, WidthMax: 40},
		})
		for _, item := range group.Items {
			t.AppendRow(table.Row{item.Key, item.Description, fmt.Sprintf("%v", values[item.Key])})
		}

		fmt.Println(t.Render())
		fmt.Println()
	}

	fmt.Println("Use 'stepwatch config set <key> <value>' to update settings")
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		keys := settings.AllKeys()
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("%s=%v\n", key, settings.Get(key))
		}
		return nil
	}

	key := args[0]
	if !settings.IsSet(key) {
		return fmt.Errorf("configuration key not found: %s", key)
	}

	fmt.Println(settings.Get(key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if !isKnownKey(key) {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	settings.Set(key, value)

	// Reject values the application could not start with
	if _, err := config.LoadFromViper(settings); err != nil {
		return err
	}

	if err := config.Save(settings, configPath()); err != nil {
		return err
	}

	fmt.Println(color.GreenString("✓ Set %s = %s", key, value))
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	fmt.Println(color.YellowString("⚠️  Warning: This will reset all configuration to defaults"))

	var confirm bool
	prompt := &survey.Confirm{
		Message: "Are you sure?",
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirm); err != nil {
		return err
	}
	if !confirm {
		return nil
	}

	defaults := viper.New()
	config.SetViperDefaults(defaults)

	if err := config.Save(defaults, configPath()); err != nil {
		return err
	}

	fmt.Println(color.GreenString("✓ Configuration reset to defaults"))
	return nil
}

// configPath is the file config changes are written to.
func configPath() string {
	if used := settings.ConfigFileUsed(); used != "" {
		return used
	}
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func isKnownKey(key string) bool {
	for _, group := range configGroups {
		for _, item := range group.Items {
			if item.Key == key {
				return true
			}
		}
	}
	return false
}
