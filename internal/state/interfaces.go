/*
Database Interfaces for StepWatch State Management

Features:
- Common interface for database operations
- Support for both DB and Transaction contexts

Author: StepWatch Team
Update History:
- 2026-10-15: Trimmed to the journal's query set
*/

package state

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBInterface is the query surface the stores need. It is satisfied
// on both *DB and *sqlx.Tx.
type DBInterface interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

var (
	_ DBInterface = (*DB)(nil)
	_ DBInterface = (*sqlx.Tx)(nil)
)
