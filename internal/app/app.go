/**
 * Application Context for StepWatch
 *
 * Features:
 * - Builds logger, estimator, reporters and metrics once per process
 * - Lazily opened step journal
 * - Graceful shutdown of every owned component
 * - Signal handling (SIGINT/SIGTERM)
 *
 * Author: StepWatch Team
 * Updated: 2026-10-15
 */

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/VatsalSy/stepwatch/internal/config"
	"github.com/VatsalSy/stepwatch/internal/errors"
	"github.com/VatsalSy/stepwatch/internal/logger"
	"github.com/VatsalSy/stepwatch/internal/state"
	"github.com/VatsalSy/stepwatch/pkg/progress"
)

// ErrJournalDisabled is returned by Journal when journal.enabled is false.
var ErrJournalDisabled = errors.NewSimple("journal disabled")

// App owns every process-wide component. It is created once at startup
// and passed to whatever needs it.
type App struct {
	config    *config.Config
	logger    *logger.Logger
	clock     progress.Clock
	output    io.Writer
	estimator *progress.Estimator
	reporter  *progress.Reporter
	bar       *progress.BarReporter
	metrics   *progress.MetricsExporter
	registry  *prometheus.Registry
	logFile   io.Closer

	journal     state.Store
	journalErr  error
	journalOnce sync.Once

	closeOnce sync.Once
}

// Option configures an App.
type Option func(*App)

// WithLogger replaces the logger built from the log config section.
func WithLogger(l *logger.Logger) Option {
	return func(app *App) { app.logger = l }
}

// WithClock replaces the system clock.
func WithClock(c progress.Clock) Option {
	return func(app *App) { app.clock = c }
}

// WithOutput replaces the reporter sink named by reporter.output.
func WithOutput(w io.Writer) Option {
	return func(app *App) { app.output = w }
}

// WithJournal supplies an already open journal.
func WithJournal(j state.Store) Option {
	return func(app *App) { app.journal = j }
}

// WithRegistry supplies the registry metrics are registered on.
func WithRegistry(r *prometheus.Registry) Option {
	return func(app *App) { app.registry = r }
}

// New creates the application context from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfiguration, "new_app", fmt.Errorf("nil config"))
	}

	app := &App{config: cfg}
	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		l, closer, err := newLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
		app.logger = l
		app.logFile = closer
	}
	if app.clock == nil {
		app.clock = progress.SystemClock{}
	}
	if app.output == nil {
		app.output = os.Stdout
		if cfg.Reporter.Output == "stderr" {
			app.output = os.Stderr
		}
	}

	app.estimator = progress.NewEstimator(append(cfg.EstimatorOptions(), progress.WithClock(app.clock))...)

	switch format := cfg.OutputFormat(); format {
	case progress.OutputFormatText, progress.OutputFormatJSON:
		app.reporter = progress.NewReporter(app.estimator, progress.ReporterConfig{
			Output:        app.output,
			Format:        format,
			PrintInterval: cfg.Reporter.PrintInterval,
		})
	case progress.OutputFormatBar:
		app.bar = progress.NewBarReporter(app.estimator, app.output)
	}

	if cfg.Metrics.Enabled {
		if app.registry == nil {
			app.registry = prometheus.NewRegistry()
		}
		metrics, err := progress.NewMetricsExporter(app.estimator, app.registry)
		if err != nil {
			app.Close()
			return nil, errors.New(errors.ErrorTypeConfiguration, "register_metrics", err)
		}
		app.metrics = metrics
	}

	app.logger.Debug("Application initialized",
		"version", cfg.Version,
		"format", cfg.Reporter.Format,
		"journal", cfg.Journal.Enabled,
		"metrics", cfg.Metrics.Enabled,
	)

	return app, nil
}

// newLogger builds the logger described by the log config section.
func newLogger(cfg config.LogConfig) (*logger.Logger, io.Closer, error) {
	var (
		output io.Writer = os.Stderr
		closer io.Closer
	)

	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0750); err != nil {
			return nil, nil, errors.Wrap(err, "failed to create log directory")
		}
		fw, err := logger.NewFileWriter(cfg.File, int64(cfg.MaxSize)*1024*1024, cfg.MaxBackups)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open log file")
		}
		output = fw
		closer = fw
	}

	return logger.New(&logger.Config{
		Level:  cfg.Level,
		Output: output,
		Pretty: cfg.Format == "pretty" && cfg.Output != "file",
	}), closer, nil
}

// Config returns the configuration the app was built from.
func (app *App) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *App) Logger() *logger.Logger {
	return app.logger
}

// Estimator returns the process-wide estimator.
func (app *App) Estimator() *progress.Estimator {
	return app.estimator
}

// Gatherer returns the metrics registry, or nil when metrics are disabled.
func (app *App) Gatherer() prometheus.Gatherer {
	if app.registry == nil {
		return nil
	}
	return app.registry
}

// Journal opens the step journal on first use and caches it.
func (app *App) Journal(ctx context.Context) (state.Store, error) {
	if !app.config.Journal.Enabled && app.journal == nil {
		return nil, ErrJournalDisabled
	}

	app.journalOnce.Do(func() {
		if app.journal != nil {
			return
		}
		if err := ctx.Err(); err != nil {
			app.journalErr = errors.New(errors.ErrorTypeContext, "open_journal", err)
			return
		}

		path := app.config.Journal.Path
		app.journalErr = app.logger.LogOperation("open_journal", func() error {
			if path != ":memory:" {
				if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
					return errors.New(errors.ErrorTypeStorage, "open_journal", err)
				}
			}

			dbConfig := state.DefaultConfig()
			dbConfig.Path = path
			journal, err := state.NewJournal(dbConfig)
			if err != nil {
				return err
			}
			app.journal = journal
			return nil
		})
		if app.journalErr == nil {
			app.logger.Debug("Journal opened", "path", path)
		}
	})

	return app.journal, app.journalErr
}

// Close releases every component. It is safe to call more than once.
func (app *App) Close() error {
	var firstErr error

	app.closeOnce.Do(func() {
		if app.reporter != nil {
			app.reporter.Close()
		}
		if app.bar != nil {
			app.bar.Close()
		}
		if app.metrics != nil {
			app.metrics.Close()
		}
		if app.journal != nil {
			if err := app.journal.Close(); err != nil {
				app.logger.Error(err, "Failed to close journal")
				firstErr = err
			}
		}
		if app.logFile != nil {
			if err := app.logFile.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})

	return firstErr
}
