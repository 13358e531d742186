// Helper Functions for StepWatch State Package
//
// Features:
// - Null type helpers for database operations
//
// Author: StepWatch Team
// Updated: 2026-10-15

package state

import (
	"database/sql"
	"time"
)

// NewNullTime creates a valid sql.NullTime.
func NewNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{
		Time:  t,
		Valid: !t.IsZero(),
	}
}
