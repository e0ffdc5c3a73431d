// Package store is the MySQL implementation of the order store, the product
// catalog and the user lookups the order engine depends on.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/orders"
	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers the store reacts to.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// Querier defines the query methods shared by *sql.DB and *sql.Tx.
// Every read helper accepts one so it can run inside or outside a transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// InTx runs fn inside a REPEATABLE READ transaction. Row reads made through
// the Tx take exclusive locks, so concurrent orders on the same product queue
// behind each other instead of overselling.
func (s *Store) InTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	// 1. --- Begin Transaction ---
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return classify(fmt.Errorf("failed to start transaction: %w", err))
	}
	defer tx.Rollback() // Safety net

	// 2. --- Run the unit of work ---
	if err := fn(&sqlTx{tx: tx}); err != nil {
		return classify(err)
	}

	// 3. --- Commit ---
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// classify marks deadlocks and lock wait timeouts as models.ErrTransient so
// callers can retry them. Any other error is returned unchanged.
func classify(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == errDeadlock || me.Number == errLockWaitTimeout) {
		return fmt.Errorf("%w: %w", models.ErrTransient, err)
	}
	return err
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}
