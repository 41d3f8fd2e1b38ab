// Package sqlite contains SQLite implementations of the repository
// interfaces in ports/secondary.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/missionctl/internal/ports/secondary"
)

// DBTX is the statement scope shared by *sql.DB and *sql.Tx. Repositories
// are bound to one scope at construction, so the same repository code runs
// standalone reads and facade transactions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewRepositories bundles all entity repositories bound to the given scope.
func NewRepositories(dbtx DBTX) secondary.Repositories {
	return secondary.Repositories{
		Tasks:       NewTaskRepository(dbtx),
		Assignments: NewAssignmentRepository(dbtx),
		Claims:      NewClaimRepository(dbtx),
		Workers:     NewWorkerRepository(dbtx),
		Events:      NewEventRepository(dbtx),
	}
}

// TxRunner implements secondary.TxRunner on a SQLite handle.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner for the given store handle.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// InTx runs fn against repositories bound to a single transaction.
// Any error from fn rolls the transaction back in full.
func (t *TxRunner) InTx(ctx context.Context, fn func(r secondary.Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// nullable returns a NullString that is NULL for the empty string.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure TxRunner implements the interface
var _ secondary.TxRunner = (*TxRunner)(nil)
