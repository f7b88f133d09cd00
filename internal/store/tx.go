// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// Querier is the query surface shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a Querier that can begin transactions. *pgxpool.Pool and
// pgxmock.PgxPoolIface both satisfy it.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// Conn returns the transaction carried by ctx, or pool when there is none.
// Repositories call it so they join the request's transaction.
func Conn(ctx context.Context, pool Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Transactor runs a request as a single PostgreSQL transaction.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor backed by the given pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// lockSQL takes a transaction-scoped advisory lock keyed by record address.
const lockSQL = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

// InTransaction begins a transaction, takes an advisory lock for every
// address the request will touch, stores the transaction in context and
// calls fn. If fn returns nil the transaction is committed, otherwise it is
// rolled back. Locks are taken in address order so concurrent requests over
// overlapping records cannot deadlock.
//
// When ctx already carries a transaction, the locks are taken inside it and
// fn runs without a nested commit.
func (t *Transactor) InTransaction(ctx context.Context, addresses []ledger.Pubkey, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		if err := lockAddresses(ctx, tx, addresses); err != nil {
			return err
		}
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := lockAddresses(ctx, tx, addresses); err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

func lockAddresses(ctx context.Context, tx pgx.Tx, addresses []ledger.Pubkey) error {
	for _, addr := range ledger.SortedUnique(addresses) {
		if _, err := tx.Exec(ctx, lockSQL, addr.String()); err != nil {
			return oops.Code("TX_LOCK_FAILED").With("address", addr.String()).Wrap(err)
		}
	}
	return nil
}
