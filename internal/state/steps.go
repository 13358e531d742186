/**
 * Step Record Operations for StepWatch
 *
 * Author: StepWatch Team
 * Update History:
 * - 2026-10-15: Initial implementation
 */

package state

import (
	"context"
	"fmt"
)

// StepStore handles step record database operations.
type StepStore struct {
	db DBInterface
}

// NewStepStore creates a new step store.
func NewStepStore(db DBInterface) *StepStore {
	return &StepStore{db: db}
}

// Create inserts a step record and sets its ID.
func (s *StepStore) Create(ctx context.Context, step *StepRecord) error {
	query := `
    INSERT INTO steps (
      run_id, step_number, step_total, description,
      tick_count, tick_total, started_at, finished_at, active_seconds
    ) VALUES (
      :run_id, :step_number, :step_total, :description,
      :tick_count, :tick_total, :started_at, :finished_at, :active_seconds
    )`

	result, err := s.db.NamedExecContext(ctx, query, step)
	if err != nil {
		return fmt.Errorf("failed to create step record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get step record id: %w", err)
	}
	step.ID = id

	return nil
}

// ListByRun retrieves a run's step records in step order.
func (s *StepStore) ListByRun(ctx context.Context, runID string) ([]*StepRecord, error) {
	var steps []*StepRecord
	query := `SELECT * FROM steps WHERE run_id = $1 ORDER BY step_number, id`

	if err := s.db.SelectContext(ctx, &steps, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}

	return steps, nil
}
