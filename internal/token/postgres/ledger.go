// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package postgres is a token.Ledger backed by the token_accounts table.
// Transfers join the store transaction in the context, so a game request
// and the transfer it makes commit together.
package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/internal/store"
	"github.com/soldungeons/dungeons/internal/token"
)

// Ledger implements token.Ledger using PostgreSQL.
type Ledger struct {
	pool store.Pool
	tx   *store.Transactor
}

// NewLedger creates a Ledger backed by pool.
func NewLedger(pool store.Pool) *Ledger {
	return &Ledger{pool: pool, tx: store.NewTransactor(pool)}
}

// Account implements token.Ledger.
func (l *Ledger) Account(ctx context.Context, address ledger.Pubkey) (*token.Account, error) {
	row := store.Conn(ctx, l.pool).QueryRow(ctx, `
		SELECT address, owner, mint, amount::text FROM token_accounts WHERE address = $1
	`, address.String())
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, token.NotFound(address)
	}
	if err != nil {
		return nil, oops.With("operation", "get token account").With("address", address.String()).Wrap(err)
	}
	return acct, nil
}

// OpenAccount creates the associated account of owner for mint if it does
// not exist, and returns it.
func (l *Ledger) OpenAccount(ctx context.Context, owner, mint ledger.Pubkey) (*token.Account, error) {
	addr, err := token.AssociatedAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	_, err = store.Conn(ctx, l.pool).Exec(ctx, `
		INSERT INTO token_accounts (address, owner, mint, amount)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (address) DO NOTHING
	`, addr.String(), owner.String(), mint.String())
	if err != nil {
		return nil, oops.With("operation", "open token account").With("address", addr.String()).Wrap(err)
	}
	return l.Account(ctx, addr)
}

// MintTo credits amount to an existing account.
func (l *Ledger) MintTo(ctx context.Context, address ledger.Pubkey, amount uint64) error {
	tag, err := store.Conn(ctx, l.pool).Exec(ctx, `
		UPDATE token_accounts SET amount = amount + $2::numeric WHERE address = $1
	`, address.String(), strconv.FormatUint(amount, 10))
	if isOverflow(err) {
		return oops.Code("BALANCE_OVERFLOW").With("account", address.String()).Wrap(token.ErrOverflow)
	}
	if err != nil {
		return oops.With("operation", "mint").With("address", address.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return token.NotFound(address)
	}
	return nil
}

// Transfer implements token.Ledger. Both rows are locked in address order
// before the transfer rules are checked.
func (l *Ledger) Transfer(ctx context.Context, t token.Transfer, sigs token.Signatures) error {
	return l.tx.InTransaction(ctx, nil, func(ctx context.Context) error {
		conn := store.Conn(ctx, l.pool)
		rows, err := conn.Query(ctx, `
			SELECT address, owner, mint, amount::text FROM token_accounts
			WHERE address = ANY($1) ORDER BY address FOR UPDATE
		`, []string{t.From.String(), t.To.String()})
		if err != nil {
			return oops.With("operation", "lock token accounts").Wrap(err)
		}
		accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*token.Account, error) {
			return scanAccount(row)
		})
		if err != nil {
			return oops.With("operation", "lock token accounts").Wrap(err)
		}

		byAddr := make(map[ledger.Pubkey]*token.Account, len(accounts))
		for _, a := range accounts {
			byAddr[a.Address] = a
		}
		from, ok := byAddr[t.From]
		if !ok {
			return token.NotFound(t.From)
		}
		to, ok := byAddr[t.To]
		if !ok {
			return token.NotFound(t.To)
		}
		if err := token.CheckTransfer(from, to, t, sigs); err != nil {
			return err
		}
		if from.Address == to.Address {
			return nil
		}

		for _, change := range []struct {
			addr   ledger.Pubkey
			amount uint64
		}{
			{from.Address, from.Amount - t.Amount},
			{to.Address, to.Amount + t.Amount},
		} {
			_, err := conn.Exec(ctx, `UPDATE token_accounts SET amount = $2::numeric WHERE address = $1`,
				change.addr.String(), strconv.FormatUint(change.amount, 10))
			if err != nil {
				return oops.With("operation", "transfer").With("address", change.addr.String()).Wrap(err)
			}
		}
		return nil
	})
}

func scanAccount(row pgx.Row) (*token.Account, error) {
	var address, owner, mint, amount string
	if err := row.Scan(&address, &owner, &mint, &amount); err != nil {
		return nil, err
	}
	var (
		acct token.Account
		err  error
	)
	if acct.Address, err = ledger.ParsePubkey(address); err != nil {
		return nil, err
	}
	if acct.Owner, err = ledger.ParsePubkey(owner); err != nil {
		return nil, err
	}
	if acct.Mint, err = ledger.ParsePubkey(mint); err != nil {
		return nil, err
	}
	if acct.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
		return nil, oops.Code("CORRUPT_RECORD").With("field", "amount").Wrap(err)
	}
	return &acct, nil
}

func isOverflow(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.CheckViolation || pgErr.Code == pgerrcode.NumericValueOutOfRange
}

var _ token.Ledger = (*Ledger)(nil)
