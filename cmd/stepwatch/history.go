package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/VatsalSy/stepwatch/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded runs and their steps",
	Long: `List runs recorded in the step journal, newest first.

With a run ID (or a unique prefix of one), show that run's steps with
their item counts, active time and throughput.`,
	Example: `  # Recent runs
  stepwatch history

  # Steps of one run
  stepwatch history 3f2a9c1e`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20,
		"Maximum number of runs to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	journal, err := application.Journal(ctx)
	if err != nil {
		return fmt.Errorf("journal unavailable: %w", err)
	}

	if len(args) > 0 {
		return showRun(ctx, journal, args[0])
	}
	return listRuns(ctx, journal)
}

func listRuns(ctx context.Context, journal state.Store) error {
	runs, err := journal.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}

	fmt.Println(color.CyanString("📜 Run History"))
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println(color.YellowString("No runs recorded."))
		fmt.Println("\nUse 'stepwatch run' to start one")
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Status", "Started", "Duration", "Steps", "Items"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	now := time.Now()
	for _, run := range runs {
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Name,
			colorStatus(run.Status),
			run.StartedAt.Local().Format("Jan 2 15:04:05"),
			formatDuration(run.Duration(now)),
			run.StepsRecorded,
			run.TicksRecorded,
		})
	}

	fmt.Println(t.Render())
	return nil
}

func showRun(ctx context.Context, journal state.Store, id string) error {
	runID, err := resolveRunID(ctx, journal, id)
	if err != nil {
		return err
	}

	run, err := journal.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	steps, err := journal.ListSteps(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Printf("%s Run: %s\n", color.GreenString("▶"), color.CyanString(run.ID))
	fmt.Println(strings.Repeat("─", 50))

	info := [][]string{
		{"Name", run.Name},
		{"Status", colorStatus(run.Status)},
		{"Started", run.StartedAt.Local().Format("Jan 2, 2006 3:04:05 PM")},
		{"Duration", formatDuration(run.Duration(time.Now()))},
	}
	for _, row := range info {
		fmt.Printf("%-10s: %s\n", row[0], row[1])
	}
	fmt.Println()

	if len(steps) == 0 {
		fmt.Println(color.YellowString("No steps recorded."))
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Step", "Items", "Active", "Elapsed", "Items/s"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for _, step := range steps {
		items := fmt.Sprintf("%d", step.TickCount)
		if step.TickTotal > 0 {
			items = fmt.Sprintf("%d/%d", step.TickCount, step.TickTotal)
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%d/%d", step.StepNumber, step.StepTotal),
			step.Description,
			items,
			formatDuration(step.Active()),
			formatDuration(step.Elapsed()),
			fmt.Sprintf("%.1f", step.ItemsPerSecond()),
		})
	}

	fmt.Println(t.Render())
	return nil
}

// resolveRunID expands a unique prefix of a run ID.
func resolveRunID(ctx context.Context, journal state.Store, id string) (string, error) {
	if len(id) == 36 {
		return id, nil
	}

	runs, err := journal.ListRuns(ctx, 0)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, run := range runs {
		if strings.HasPrefix(run.ID, id) {
			matches = append(matches, run.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", state.ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run ID prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

func colorStatus(status string) string {
	switch status {
	case state.RunStatusCompleted:
		return color.GreenString(status)
	case state.RunStatusRunning:
		return color.CyanString(status)
	case state.RunStatusCancelled:
		return color.YellowString(status)
	default:
		return color.RedString(status)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
