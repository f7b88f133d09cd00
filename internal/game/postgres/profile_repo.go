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

// ProfileRepository implements game.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool store.Querier
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool store.Querier) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Get retrieves a profile by address.
func (r *ProfileRepository) Get(ctx context.Context, address ledger.Pubkey) (*game.Profile, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT address, authority, username, current_character_id, space
		FROM profiles WHERE address = $1
	`, address.String())
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ProfileNotFound(address)
	}
	if err != nil {
		return nil, oops.With("operation", "get profile").With("address", address.String()).Wrap(err)
	}
	return p, nil
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *game.Profile) error {
	if err := game.CheckSpace(p.Space); err != nil {
		return err
	}
	_, err := store.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO profiles (address, authority, username, current_character_id, space)
		VALUES ($1, $2, $3, $4, $5)
	`, p.Address.String(), p.Authority.String(), p.Username, int16(p.CurrentCharacterID), int32(p.Space)) //nolint:gosec // space is bounded by MaxRecordSize
	if isUniqueViolation(err) {
		return game.ProfileExists(p.Address)
	}
	if err != nil {
		return oops.With("operation", "create profile").With("address", p.Address.String()).Wrap(err)
	}
	return nil
}

// Update overwrites a profile and resizes it.
func (r *ProfileRepository) Update(ctx context.Context, p *game.Profile) error {
	conn := store.Conn(ctx, r.pool)

	var oldSpace int32
	err := conn.QueryRow(ctx, `SELECT space FROM profiles WHERE address = $1 FOR UPDATE`, p.Address.String()).Scan(&oldSpace)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.ProfileNotFound(p.Address)
	}
	if err != nil {
		return oops.With("operation", "update profile").With("address", p.Address.String()).Wrap(err)
	}
	if err := game.CheckResize(int(oldSpace), p.Space); err != nil {
		return err
	}

	_, err = conn.Exec(ctx, `
		UPDATE profiles SET username = $2, current_character_id = $3, space = $4, updated_at = NOW()
		WHERE address = $1
	`, p.Address.String(), p.Username, int16(p.CurrentCharacterID), int32(p.Space)) //nolint:gosec // space is bounded by MaxRecordSize
	if err != nil {
		return oops.With("operation", "update profile").With("address", p.Address.String()).Wrap(err)
	}
	return nil
}

func scanProfile(row pgx.Row) (*game.Profile, error) {
	var (
		address, authority string
		p                  game.Profile
		current            int16
		space              int32
	)
	if err := row.Scan(&address, &authority, &p.Username, &current, &space); err != nil {
		return nil, err
	}
	var err error
	if p.Address, err = parseKey("address", address); err != nil {
		return nil, err
	}
	if p.Authority, err = parseKey("authority", authority); err != nil {
		return nil, err
	}
	p.CurrentCharacterID = uint8(current) //nolint:gosec // column is checked to 0..255
	p.Space = int(space)
	return &p, nil
}

var _ game.ProfileRepository = (*ProfileRepository)(nil)
