/**
 * Step Journal for StepWatch
 *
 * Features:
 * - Append-only audit of runs and their finished steps
 * - Step inserts and run counters updated in one transaction
 * - Typed storage errors at the package boundary
 *
 * Author: StepWatch Team
 * Update History:
 * - 2026-10-15: Initial implementation
 */

package state

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/VatsalSy/stepwatch/internal/errors"
)

// Journal records runs and their finished steps
type Journal struct {
	db    *DB
	runs  *RunStore
	steps *StepStore
	now   func() time.Time
}

// NewJournal opens the journal database
func NewJournal(cfg DBConfig) (*Journal, error) {
	db, err := NewDB(cfg)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeStorage, "open_journal", err)
	}

	return &Journal{
		db:    db,
		runs:  NewRunStore(db),
		steps: NewStepStore(db),
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the journal
func (j *Journal) Close() error {
	return j.db.Close()
}

// DB returns the underlying database connection
func (j *Journal) DB() *DB {
	return j.db
}

// StartRun creates a running run named name
func (j *Journal) StartRun(ctx context.Context, name string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    RunStatusRunning,
		StartedAt: j.now(),
	}

	if err := j.runs.Create(ctx, run); err != nil {
		return nil, errors.New(errors.ErrorTypeStorage, "start_run", err)
	}

	return run, nil
}

// RecordStep appends a finished step to its run
func (j *Journal) RecordStep(ctx context.Context, step *StepRecord) error {
	if step.RunID == "" {
		return errors.New(errors.ErrorTypeStorage, "record_step", fmt.Errorf("step %d has no run", step.StepNumber))
	}

	err := j.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := NewStepStore(tx).Create(ctx, step); err != nil {
			return err
		}
		return NewRunStore(tx).AddStep(ctx, step.RunID, step.TickCount)
	})
	if err != nil {
		return errors.New(errors.ErrorTypeStorage, "record_step", err).WithContext("run_id", step.RunID)
	}

	return nil
}

// FinishRun closes a running run with status
func (j *Journal) FinishRun(ctx context.Context, runID, status string) error {
	if !ValidRunStatus(status) {
		return errors.New(errors.ErrorTypeStorage, "finish_run", fmt.Errorf("invalid run status %q", status))
	}

	if err := j.runs.Finish(ctx, runID, status, j.now()); err != nil {
		return errors.New(errors.ErrorTypeStorage, "finish_run", err).WithContext("run_id", runID)
	}

	return nil
}

// GetRun retrieves a run by ID
func (j *Journal) GetRun(ctx context.Context, runID string) (*Run, error) {
	run, err := j.runs.Get(ctx, runID)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeStorage, "get_run", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A limit of 0 or less
// returns every run.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}

	runs, err := j.runs.List(ctx, limit, 0)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeStorage, "list_runs", err)
	}
	return runs, nil
}

// ListSteps returns a run's step records in step order
func (j *Journal) ListSteps(ctx context.Context, runID string) ([]*StepRecord, error) {
	steps, err := j.steps.ListByRun(ctx, runID)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeStorage, "list_steps", err)
	}
	return steps, nil
}

// HealthCheck checks the underlying database
func (j *Journal) HealthCheck(ctx context.Context) error {
	if err := j.db.HealthCheck(ctx); err != nil {
		return errors.New(errors.ErrorTypeStorage, "health_check", err)
	}
	return nil
}
