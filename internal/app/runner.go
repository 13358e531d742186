/**
 * Plan Runner for StepWatch
 *
 * Features:
 * - Drives a plan of steps through the estimator
 * - Per-item work callbacks with pause/resume control
 * - Cancellation observed between items
 * - Step and run records written to the journal
 *
 * Author: StepWatch Team
 * Updated: 2026-10-15
 */

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/VatsalSy/stepwatch/internal/errors"
	"github.com/VatsalSy/stepwatch/internal/state"
	"github.com/VatsalSy/stepwatch/pkg/progress"
)

// StepPlan describes one phase of a run.
type StepPlan struct {
	Description string
	Items       int // 0 = no item reporting
}

// Plan is an ordered list of steps.
type Plan struct {
	Name  string
	Steps []StepPlan
}

// Validate checks that the plan can be run.
func (p Plan) Validate() error {
	if len(p.Steps) == 0 {
		return errors.New(errors.ErrorTypeConfiguration, "validate_plan", fmt.Errorf("plan %q has no steps", p.Name))
	}
	for i, step := range p.Steps {
		if step.Description == "" {
			return errors.New(errors.ErrorTypeConfiguration, "validate_plan", fmt.Errorf("step %d has no description", i+1))
		}
		if step.Items < 0 {
			return errors.New(errors.ErrorTypeConfiguration, "validate_plan", fmt.Errorf("step %d has a negative item count", i+1))
		}
	}
	return nil
}

// WorkFunc processes one item of a step. item counts from 0. Returning
// an error stops the run.
type WorkFunc func(ctx context.Context, ctl *Controller, step StepPlan, item int) error

// RunResult summarizes a finished run.
type RunResult struct {
	RunID   string // empty without a journal
	Status  string
	Steps   int // steps begun
	Ticks   int // items completed over all steps
	Elapsed time.Duration
}

// Controller lets work functions pause and resume the estimate.
type Controller struct {
	app *App
}

// Pause excludes the time from now until Resume from the estimate.
func (c *Controller) Pause() {
	c.app.estimator.Pause()
	c.app.logger.Debug("Progress paused", "step", c.app.estimator.StepNumber())
}

// Resume ends a pause. It returns a precondition error when not paused.
func (c *Controller) Resume() error {
	if !c.app.estimator.Paused() {
		return errors.Precondition("resume", errors.ErrNotPaused)
	}
	c.app.estimator.Resume()
	c.app.logger.Debug("Progress resumed",
		"step", c.app.estimator.StepNumber(),
		"pause_offset", c.app.estimator.PauseOffset(),
	)
	return nil
}

// Paused reports whether a pause is in effect.
func (c *Controller) Paused() bool {
	return c.app.estimator.Paused()
}

// Snapshot returns the estimator's current state.
func (c *Controller) Snapshot() progress.Snapshot {
	return c.app.estimator.Snapshot()
}

// Run executes plan, calling work once per item and ticking the
// estimator after every item that succeeds. The returned error is nil
// only when every step completed.
func (app *App) Run(ctx context.Context, plan Plan, work WorkFunc) (*RunResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if work == nil {
		return nil, errors.New(errors.ErrorTypeConfiguration, "run", fmt.Errorf("nil work function"))
	}

	log := app.logger.With("run", plan.Name)
	ctx = log.WithContext(ctx)

	journal, runID := app.startRun(ctx, plan.Name)

	ctl := &Controller{app: app}
	result := &RunResult{RunID: runID, Status: state.RunStatusCompleted}
	started := app.clock.Now()

	var runErr error
	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		result.Steps++
		ticks, err := app.runStep(ctx, ctl, step, i+1, len(plan.Steps), work, journal, runID)
		result.Ticks += ticks
		if err != nil {
			runErr = err
			break
		}
	}

	result.Elapsed = app.clock.Now().Sub(started)

	switch {
	case runErr == nil:
		log.Info("Run completed", "steps", result.Steps, "items", result.Ticks, "elapsed", result.Elapsed)
	case errors.IsContextError(runErr):
		result.Status = state.RunStatusCancelled
		runErr = errors.New(errors.ErrorTypeContext, "run", runErr)
		log.Warn("Run cancelled", "steps", result.Steps, "items", result.Ticks)
	default:
		result.Status = state.RunStatusFailed
		log.Error(runErr, "Run failed", "steps", result.Steps, "items", result.Ticks)
	}

	if journal != nil {
		// The run context may already be cancelled; the journal must
		// still learn how the run ended.
		if err := journal.FinishRun(context.WithoutCancel(ctx), runID, result.Status); err != nil {
			log.Error(err, "Failed to finish run in journal")
		}
	}

	if app.reporter != nil {
		if err := app.reporter.Err(); err != nil {
			log.Warn("Progress output failed", "error", err)
		}
	}

	return result, runErr
}

// runStep drives one step and records it. It returns the items completed.
func (app *App) runStep(ctx context.Context, ctl *Controller, step StepPlan, number, total int,
	work WorkFunc, journal state.Store, runID string) (int, error) {
	est := app.estimator

	est.BeginStep(step.Description, number, total, step.Items)
	if app.metrics != nil {
		app.metrics.Refresh()
	}
	app.logger.LogStep(step.Description, number, total, step.Items)

	startedAt := app.clock.Now()
	startOffset := est.PauseOffset()

	var stepErr error
	for item := 0; item < step.Items; item++ {
		if err := ctx.Err(); err != nil {
			stepErr = err
			break
		}
		if err := work(ctx, ctl, step, item); err != nil {
			stepErr = errors.Wrapf(err, "step %d item %d", number, item)
			break
		}
		est.Tick()
	}

	// A pause left open by the work function ends with its step.
	if est.Paused() {
		app.logger.Warn("Step ended while paused; resuming", "step", number)
		est.Resume()
	}

	finishedAt := app.clock.Now()
	active := finishedAt.Sub(startedAt) - (est.PauseOffset() - startOffset)

	if journal != nil {
		record := &state.StepRecord{
			RunID:         runID,
			StepNumber:    number,
			StepTotal:     total,
			Description:   step.Description,
			TickCount:     est.TickNumber(),
			TickTotal:     step.Items,
			StartedAt:     startedAt.UTC(),
			FinishedAt:    finishedAt.UTC(),
			ActiveSeconds: active.Seconds(),
		}
		if err := journal.RecordStep(context.WithoutCancel(ctx), record); err != nil {
			app.logger.Error(err, "Failed to record step", "step", number)
		}
	}

	app.logger.Debug("Step finished",
		"step", number,
		"items", est.TickNumber(),
		"active", active,
	)

	return est.TickNumber(), stepErr
}

// startRun opens the journal and records the run. A journal that cannot
// be opened is logged and the run proceeds without one.
func (app *App) startRun(ctx context.Context, name string) (state.Store, string) {
	journal, err := app.Journal(ctx)
	if err != nil {
		if err != ErrJournalDisabled {
			app.logger.Warn("Journal unavailable; run will not be recorded", "error", err)
		}
		return nil, ""
	}

	run, err := journal.StartRun(ctx, name)
	if err != nil {
		app.logger.Warn("Failed to record run start", "error", err)
		return nil, ""
	}

	return journal, run.ID
}
