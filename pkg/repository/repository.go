// Package repository provides generic database/sql helpers shared by the
// persistence layers: scan-based query execution, transaction wrapping,
// and driver error mapping to domain sentinels.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Scanner abstracts sql.Row and sql.Rows for shared scan functions.
type Scanner interface {
	Scan(dest ...any) error
}

// Queryer abstracts *sql.DB and *sql.Tx for query execution.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// QueryOne executes a query expected to return exactly one row.
func QueryOne[T any](ctx context.Context, q Queryer, query string, args []any, scan func(Scanner) (T, error)) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// QueryMany executes a query and scans all returned rows.
func QueryMany[T any](ctx context.Context, q Queryer, query string, args []any, scan func(Scanner) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit transaction: %w", err)
	}

	return result, nil
}

// ExecExpectOne executes a statement and fails with sql.ErrNoRows unless
// exactly one row was affected.
func ExecExpectOne(ctx context.Context, q Queryer, query string, args ...any) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if affected > 1 {
		return fmt.Errorf("expected 1 affected row, got %d", affected)
	}

	return nil
}

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// MapError translates driver-level errors to domain sentinels.
// sql.ErrNoRows maps to notFound; unique violations map to duplicate.
func MapError(err, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return duplicate
	}

	return err
}
