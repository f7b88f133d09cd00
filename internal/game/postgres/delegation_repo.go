// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/internal/store"
)

// DelegationRepository reads session delegations written by the session
// issuance service.
type DelegationRepository struct {
	pool store.Querier
}

// NewDelegationRepository creates a new DelegationRepository.
func NewDelegationRepository(pool store.Querier) *DelegationRepository {
	return &DelegationRepository{pool: pool}
}

// Get retrieves a delegation by address.
func (r *DelegationRepository) Get(ctx context.Context, address ledger.Pubkey) (*access.Delegation, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT session_signer, authority, target_program, valid_until
		FROM session_tokens WHERE address = $1
	`, address.String())

	var (
		signer, authority, program string
		validUntil                 time.Time
	)
	err := row.Scan(&signer, &authority, &program, &validUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, access.SessionNotFound(address)
	}
	if err != nil {
		return nil, oops.With("operation", "get session").With("address", address.String()).Wrap(err)
	}

	d := &access.Delegation{Address: address, ValidUntil: validUntil}
	if d.SessionSigner, err = parseKey("session_signer", signer); err != nil {
		return nil, err
	}
	if d.Authority, err = parseKey("authority", authority); err != nil {
		return nil, err
	}
	if d.TargetProgram, err = parseKey("target_program", program); err != nil {
		return nil, err
	}
	return d, nil
}

var _ access.DelegationRepository = (*DelegationRepository)(nil)
