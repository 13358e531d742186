package main

import (
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/VatsalSy/stepwatch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a StepWatch configuration file",
	Long: `Create a configuration file by answering a few questions about how
progress should be estimated, shown and recorded.`,
	Example: `  # Interactive setup
  stepwatch init

  # Write to a custom location
  stepwatch init --config ./stepwatch.yaml`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println(color.CyanString("🚀 Welcome to StepWatch Setup"))
	fmt.Println()

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "StepWatch is already configured. Reconfigure?",
			Default: false,
		}
		if err := survey.AskOne(prompt, &overwrite); err != nil {
			return err
		}
		if !overwrite {
			return nil
		}
	}

	var answers struct {
		Format                 string
		PrintInterval          string
		MinDurationForEstimate string
		EstimateWindow         string
		Journal                bool
		Metrics                bool
		LogLevel               string
	}

	questions := []*survey.Question{
		{
			Name: "Format",
			Prompt: &survey.Select{
				Message: "Progress output:",
				Options: []string{"text", "json", "bar", "none"},
				Default: settings.GetString("reporter.format"),
			},
		},
		{
			Name: "PrintInterval",
			Prompt: &survey.Input{
				Message: "Minimum time between progress lines:",
				Default: settings.GetDuration("reporter.print_interval").String(),
			},
			Validate: validateDuration,
		},
		{
			Name: "MinDurationForEstimate",
			Prompt: &survey.Input{
				Message: "History needed before showing an estimate:",
				Default: settings.GetDuration("progress.min_duration_for_estimate").String(),
			},
			Validate: validateDuration,
		},
		{
			Name: "EstimateWindow",
			Prompt: &survey.Input{
				Message: "Estimate from the last (0 for the whole step):",
				Default: settings.GetDuration("progress.estimate_window").String(),
			},
			Validate: validateDuration,
		},
		{
			Name: "Journal",
			Prompt: &survey.Confirm{
				Message: "Record runs in the journal?",
				Default: settings.GetBool("journal.enabled"),
			},
		},
		{
			Name: "Metrics",
			Prompt: &survey.Confirm{
				Message: "Serve Prometheus metrics during runs?",
				Default: settings.GetBool("metrics.enabled"),
			},
		},
		{
			Name: "LogLevel",
			Prompt: &survey.Select{
				Message: "Log level:",
				Options: []string{"debug", "info", "warn", "error"},
				Default: settings.GetString("log.level"),
			},
		},
	}

	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	v := viper.New()
	config.SetViperDefaults(v)
	v.Set("reporter.format", answers.Format)
	v.Set("reporter.print_interval", answers.PrintInterval)
	v.Set("progress.min_duration_for_estimate", answers.MinDurationForEstimate)
	v.Set("progress.estimate_window", answers.EstimateWindow)
	v.Set("journal.enabled", answers.Journal)
	v.Set("metrics.enabled", answers.Metrics)
	v.Set("log.level", answers.LogLevel)

	if answers.Metrics {
		addr := settings.GetString("metrics.addr")
		prompt := &survey.Input{
			Message: "Metrics listen address:",
			Default: addr,
		}
		if err := survey.AskOne(prompt, &addr); err != nil {
			return err
		}
		v.Set("metrics.addr", addr)
	}

	if _, err := config.LoadFromViper(v); err != nil {
		return err
	}

	fmt.Println(color.YellowString("\n💾 Saving Configuration"))
	if err := config.Save(v, path); err != nil {
		return err
	}

	fmt.Println(color.GreenString("✓ Configuration written to %s", path))
	fmt.Println("\nUse 'stepwatch run' to try it out")
	return nil
}

func validateDuration(ans interface{}) error {
	s, ok := ans.(string)
	if !ok {
		return fmt.Errorf("expected a duration")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q (examples: 500ms, 10s, 2m)", s)
	}
	if d < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	return nil
}
