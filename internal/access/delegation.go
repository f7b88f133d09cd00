// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package access

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// Session validation errors raised by the host before the guard runs.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrSessionWrongProgram = errors.New("session issued for another program")
)

// Delegation is a session credential binding a delegate signing key to an
// owner. It is issued and revoked elsewhere; this service only reads it.
type Delegation struct {
	Address       ledger.Pubkey
	SessionSigner ledger.Pubkey // the delegate allowed to act
	Authority     ledger.Pubkey // the owner it acts for
	TargetProgram ledger.Pubkey
	ValidUntil    time.Time
}

// IsExpiredAt returns true if the delegation would be expired at the given time.
func (d *Delegation) IsExpiredAt(t time.Time) bool {
	return !t.Before(d.ValidUntil)
}

// CheckValidity performs the issuance subsystem's well-formedness checks:
// the delegation must be unexpired at now and scoped to program.
func (d *Delegation) CheckValidity(now time.Time, program ledger.Pubkey) error {
	if d.IsExpiredAt(now) {
		return oops.Code("SESSION_EXPIRED").
			With("session", d.Address.String()).
			With("valid_until", d.ValidUntil).
			Wrap(ErrSessionExpired)
	}
	if d.TargetProgram != program {
		return oops.Code("SESSION_WRONG_PROGRAM").
			With("session", d.Address.String()).
			With("target_program", d.TargetProgram.String()).
			Wrap(ErrSessionWrongProgram)
	}
	return nil
}

// DelegationRepository reads session delegations.
type DelegationRepository interface {
	// Get retrieves a delegation by its address.
	Get(ctx context.Context, address ledger.Pubkey) (*Delegation, error)
}

// SessionNotFound reports a missing delegation.
func SessionNotFound(address ledger.Pubkey) error {
	return oops.Code("SESSION_NOT_FOUND").With("session", address.String()).Wrap(ErrSessionNotFound)
}
