/**
 * Data Models for StepWatch State Management
 *
 * Features:
 * - Struct definitions matching the journal schema
 * - JSON and database field mappings
 * - Helper methods for common operations
 *
 * Author: StepWatch Team
 * Update History:
 * - 2026-10-15: Runs and step records
 */

package state

import (
	"database/sql"
	"time"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// ValidRunStatus reports whether s is a status a run can be finished with.
func ValidRunStatus(s string) bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// Run represents one execution of a plan
type Run struct {
	ID            string       `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	Status        string       `db:"status" json:"status"`
	StartedAt     time.Time    `db:"started_at" json:"started_at"`
	FinishedAt    sql.NullTime `db:"finished_at" json:"finished_at"`
	StepsRecorded int          `db:"steps_recorded" json:"steps_recorded"`
	TicksRecorded int64        `db:"ticks_recorded" json:"ticks_recorded"`
}

// IsRunning returns true if the run has not been finished
func (r *Run) IsRunning() bool {
	return r.Status == RunStatusRunning
}

// Duration returns the wall time of a finished run, or the time since it
// started when it is still running.
func (r *Run) Duration(now time.Time) time.Duration {
	if r.FinishedAt.Valid {
		return r.FinishedAt.Time.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}

// StepRecord is the journal entry for a finished step
type StepRecord struct {
	ID            int64     `db:"id" json:"id"`
	RunID         string    `db:"run_id" json:"run_id"`
	StepNumber    int       `db:"step_number" json:"step_number"`
	StepTotal     int       `db:"step_total" json:"step_total"`
	Description   string    `db:"description" json:"description"`
	TickCount     int       `db:"tick_count" json:"tick_count"`
	TickTotal     int       `db:"tick_total" json:"tick_total"`
	StartedAt     time.Time `db:"started_at" json:"started_at"`
	FinishedAt    time.Time `db:"finished_at" json:"finished_at"`
	ActiveSeconds float64   `db:"active_seconds" json:"active_seconds"`
}

// Elapsed returns the wall time between the step's start and finish
func (s *StepRecord) Elapsed() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Active returns the step's duration with paused time removed
func (s *StepRecord) Active() time.Duration {
	return time.Duration(s.ActiveSeconds * float64(time.Second))
}

// ItemsPerSecond returns the step's throughput over its active time
func (s *StepRecord) ItemsPerSecond() float64 {
	if s.ActiveSeconds <= 0 {
		return 0
	}
	return float64(s.TickCount) / s.ActiveSeconds
}
