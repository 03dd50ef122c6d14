// Package pgxutil bridges database/sql handles to pgx for row collection and transactions.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// TxBeginner is satisfied by *sql.DB, *sql.Conn and test doubles.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// SQLTxConfig groups parameters for WithSQLTx to keep parameter count ≤ 3.
type SQLTxConfig struct {
	Opts *sql.TxOptions
	Fn   func(*sql.Tx) error
}

// WithSQLTx runs cfg.Fn within a database/sql transaction on db. The
// transaction is rolled back when Fn fails and rollback errors are joined.
func WithSQLTx(ctx context.Context, db TxBeginner, cfg SQLTxConfig) (err error) {
	tx, err := db.BeginTx(ctx, cfg.Opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()
	if err = cfg.Fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// WithPgxConn exposes the *pgx.Conn underneath conn for the duration of fn.
// conn stays owned by the caller. fn must not use conn itself since the
// handle is locked while Raw runs.
func WithPgxConn(ctx context.Context, conn *sql.Conn, fn func(*pgx.Conn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return conn.Raw(func(dc any) error {
		std, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		return fn(std.Conn())
	})
}

// CollectOne runs query on conn and scans the single resulting row into T by column name.
// pgx.ErrNoRows is returned unchanged when the query yields nothing.
func CollectOne[T any](ctx context.Context, conn *sql.Conn, query string, args ...any) (*T, error) {
	var out *T
	err := WithPgxConn(ctx, conn, func(pc *pgx.Conn) error {
		rows, err := pc.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
		return err
	})
	return out, err
}

// CollectAll runs query on conn and scans every row into T by column name.
func CollectAll[T any](ctx context.Context, conn *sql.Conn, query string, args ...any) ([]*T, error) {
	var out []*T
	err := WithPgxConn(ctx, conn, func(pc *pgx.Conn) error {
		rows, err := pc.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
		return err
	})
	return out, err
}
