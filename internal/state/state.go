/**
 * State Package - Main entry point
 *
 * Features:
 * - Package documentation
 * - Store interface implemented by the journal
 *
 * Author: StepWatch Team
 * Update History:
 * - 2026-10-15: Repurposed for the step journal
 */

// Package state provides the StepWatch step journal: an append-only SQLite
// record of runs and the steps they finished. Nothing in it is read back
// into a progress estimator.
package state

import (
	"context"
)

// DefaultDatabasePath is the default location for the SQLite database.
const DefaultDatabasePath = "journal.db"

// Store is the journal surface used by the application.
type Store interface {
	StartRun(ctx context.Context, name string) (*Run, error)
	RecordStep(ctx context.Context, step *StepRecord) error
	FinishRun(ctx context.Context, runID, status string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	ListSteps(ctx context.Context, runID string) ([]*StepRecord, error)
	Close() error
}

// Ensure Journal implements Store.
var _ Store = (*Journal)(nil)
