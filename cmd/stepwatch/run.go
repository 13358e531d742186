package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/VatsalSy/stepwatch/internal/app"
	"github.com/VatsalSy/stepwatch/internal/errors"
	"github.com/VatsalSy/stepwatch/internal/logger"
	"github.com/VatsalSy/stepwatch/internal/state"
	"github.com/VatsalSy/stepwatch/pkg/progress"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated multi-step operation",
	Long: `Drive a simulated operation through the progress estimator.

Each step processes a number of items with a fixed delay per item. Pauses
can be injected to show that waiting time does not count towards the
estimate. Press Ctrl+C to stop after the current item.`,
	Example: `  # Three steps of 50 items, 100ms each
  stepwatch run

  # JSON output without confirmation
  stepwatch run --format json --yes

  # Pause for 5s every 20 items and expose metrics
  stepwatch run --pause-every 20 --pause-for 5s --metrics-addr :9464`,
	RunE: runRun,
}

var (
	runName     string
	runSteps    int
	runItems    int
	runDelay    time.Duration
	pauseEvery  int
	pauseFor    time.Duration
	runFormat   string
	metricsAddr string
	assumeYes   bool
)

func init() {
	runCmd.Flags().StringVarP(&runName, "name", "n", "simulation",
		"Name recorded in the journal")
	runCmd.Flags().IntVarP(&runSteps, "steps", "s", 3,
		"Number of steps")
	runCmd.Flags().IntVarP(&runItems, "items", "i", 50,
		"Items per step (0 for steps without item reporting)")
	runCmd.Flags().DurationVarP(&runDelay, "delay", "d", 100*time.Millisecond,
		"Time spent on each item")
	runCmd.Flags().IntVar(&pauseEvery, "pause-every", 0,
		"Pause after every N items (0 disables)")
	runCmd.Flags().DurationVar(&pauseFor, "pause-for", 2*time.Second,
		"Length of each pause")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "",
		"Output format: text, json, bar or none (overrides reporter.format)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (enables metrics)")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false,
		"Start without confirmation")
}

var stepNames = []string{
	"Preparing",
	"Copying rows",
	"Rebuilding indexes",
	"Verifying checksums",
	"Cleaning up",
}

// simulationPlan names steps after a typical data migration.
func simulationPlan(name string, steps, items int) app.Plan {
	plan := app.Plan{Name: name}
	for i := 0; i < steps; i++ {
		desc := stepNames[i%len(stepNames)]
		if i >= len(stepNames) {
			desc = fmt.Sprintf("%s (pass %d)", desc, i/len(stepNames)+1)
		}
		plan.Steps = append(plan.Steps, app.StepPlan{Description: desc, Items: items})
	}
	return plan
}

// simulatedWork sleeps for delay per item, pausing the estimate for
// pauseFor after every pauseEvery items.
func simulatedWork(delay time.Duration, pauseEvery int, pauseFor time.Duration) app.WorkFunc {
	return func(ctx context.Context, ctl *app.Controller, _ app.StepPlan, item int) error {
		if pauseEvery > 0 && item > 0 && item%pauseEvery == 0 {
			ctl.Pause()
			err := sleep(ctx, pauseFor)
			if rerr := ctl.Resume(); rerr != nil {
				return rerr
			}
			if err != nil {
				return err
			}
		}
		return sleep(ctx, delay)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("format") {
		settings.Set("reporter.format", runFormat)
	}
	if metricsAddr != "" {
		settings.Set("metrics.enabled", true)
		settings.Set("metrics.addr", metricsAddr)
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	plan := simulationPlan(runName, runSteps, runItems)
	if err := plan.Validate(); err != nil {
		return err
	}

	cfg := application.Config()

	fmt.Println(color.CyanString("⏱  StepWatch Run"))
	fmt.Println()
	fmt.Println(color.YellowString("Run Configuration:"))
	fmt.Printf("  Name: %s\n", plan.Name)
	fmt.Printf("  Steps: %d × %d items, %s per item\n", runSteps, runItems, runDelay)
	if pauseEvery > 0 {
		fmt.Printf("  Pauses: %s every %d items\n", pauseFor, pauseEvery)
	}
	fmt.Printf("  Output: %s\n", cfg.Reporter.Format)
	if cfg.Journal.Enabled {
		fmt.Printf("  Journal: %s\n", cfg.Journal.Path)
	}
	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics: http://%s/metrics\n", displayAddr(cfg.Metrics.Addr))
	}
	fmt.Println()

	if !assumeYes {
		proceed := true
		prompt := &survey.Confirm{
			Message: "Start run?",
			Default: true,
		}
		if err := survey.AskOne(prompt, &proceed); err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	}

	ctx, cancel := application.HandleSignals(cmd.Context())
	defer cancel()

	if gatherer := application.Gatherer(); gatherer != nil {
		stop := serveMetrics(cfg.Metrics.Addr, gatherer, application.Logger(), cancel)
		defer stop()
	}

	result, err := application.Run(ctx, plan, simulatedWork(runDelay, pauseEvery, pauseFor))
	if cfg.OutputFormat() == progress.OutputFormatBar {
		fmt.Println()
	}
	if result == nil {
		return err
	}

	fmt.Println()
	switch result.Status {
	case state.RunStatusCompleted:
		fmt.Println(color.GreenString("✓ Run completed in %s", formatDuration(result.Elapsed)))
	case state.RunStatusCancelled:
		fmt.Println(color.YellowString("⚠ Run cancelled after %d items", result.Ticks))
	default:
		fmt.Println(color.RedString("✗ Run failed after %d items", result.Ticks))
	}
	if result.RunID != "" {
		fmt.Printf("Use 'stepwatch history %s' to see its steps\n", shortID(result.RunID))
	}

	if errors.GetErrorType(err) == errors.ErrorTypeContext {
		return nil
	}
	return err
}

// serveMetrics exposes gatherer on addr until the returned func is called.
func serveMetrics(addr string, gatherer prometheus.Gatherer, log *logger.Logger, stop context.CancelFunc) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Metrics server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error(err, "Metrics server error")
			stop()
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "Metrics server shutdown error")
		}
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
