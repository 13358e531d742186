/**
 * Run Operations for StepWatch
 *
 * Features:
 * - Create, read and finish operations for runs
 * - Pagination of run history
 * - Step counters maintained alongside step inserts
 *
 * Author: StepWatch Team
 * Update History:
 * - 2026-10-15: Initial implementation
 */

package state

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = stderrors.New("run not found")

// RunStore handles run-related database operations.
type RunStore struct {
	db DBInterface
}

// NewRunStore creates a new run store.
func NewRunStore(db DBInterface) *RunStore {
	return &RunStore{db: db}
}

// Create inserts a run.
func (s *RunStore) Create(ctx context.Context, run *Run) error {
	query := `
    INSERT INTO runs (id, name, status, started_at)
    VALUES (:id, :name, :status, :started_at)`

	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	query := `SELECT * FROM runs WHERE id = $1`

	err := s.db.GetContext(ctx, &run, query, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// List retrieves runs, newest first, with pagination.
func (s *RunStore) List(ctx context.Context, limit, offset int) ([]*Run, error) {
	var runs []*Run
	query := `SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT $1 OFFSET $2`

	err := s.db.SelectContext(ctx, &runs, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// Finish closes a running run with the given status.
func (s *RunStore) Finish(ctx context.Context, id, status string, at time.Time) error {
	query := `
    UPDATE runs
    SET status = $1, finished_at = $2
    WHERE id = $3 AND status = $4`

	result, err := s.db.ExecContext(ctx, query, status, NewNullTime(at), id, RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w or not running: %s", ErrRunNotFound, id)
	}

	return nil
}

// AddStep bumps a run's step and tick counters.
func (s *RunStore) AddStep(ctx context.Context, id string, ticks int) error {
	query := `
    UPDATE runs SET
      steps_recorded = steps_recorded + 1,
      ticks_recorded = ticks_recorded + $1
    WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, ticks, id)
	if err != nil {
		return fmt.Errorf("failed to update run counters: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return nil
}
