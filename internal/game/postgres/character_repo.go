// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/internal/store"
)

// CharacterRepository implements game.CharacterRepository using PostgreSQL.
type CharacterRepository struct {
	pool store.Querier
}

// NewCharacterRepository creates a new CharacterRepository.
func NewCharacterRepository(pool store.Querier) *CharacterRepository {
	return &CharacterRepository{pool: pool}
}

// Get retrieves a character lock by address.
func (r *CharacterRepository) Get(ctx context.Context, address ledger.Pubkey) (*game.CharacterLock, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT address, authority, mint_id, locked, last_locked_time
		FROM character_locks WHERE address = $1
	`, address.String())

	var (
		addr, authority string
		mintID          int16
		lastLocked      int64
		l               game.CharacterLock
	)
	err := row.Scan(&addr, &authority, &mintID, &l.Locked, &lastLocked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.CharacterNotFound(address)
	}
	if err != nil {
		return nil, oops.With("operation", "get character lock").With("address", address.String()).Wrap(err)
	}
	if l.Address, err = parseKey("address", addr); err != nil {
		return nil, err
	}
	if l.Authority, err = parseKey("authority", authority); err != nil {
		return nil, err
	}
	l.MintID = uint8(mintID)              //nolint:gosec // column is checked to 0..255
	l.LastLockedTime = uint64(lastLocked) //nolint:gosec // column is checked non-negative
	return &l, nil
}

// Save inserts or overwrites a character lock.
func (r *CharacterRepository) Save(ctx context.Context, l *game.CharacterLock) error {
	_, err := store.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO character_locks (address, authority, mint_id, locked, last_locked_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE SET
			mint_id = EXCLUDED.mint_id,
			locked = EXCLUDED.locked,
			last_locked_time = EXCLUDED.last_locked_time,
			updated_at = NOW()
	`, l.Address.String(), l.Authority.String(), int16(l.MintID), l.Locked, int64(l.LastLockedTime)) //nolint:gosec // unix seconds fit in int64
	if err != nil {
		return oops.With("operation", "save character lock").With("address", l.Address.String()).Wrap(err)
	}
	return nil
}

var _ game.CharacterRepository = (*CharacterRepository)(nil)
