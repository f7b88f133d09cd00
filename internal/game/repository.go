// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package game

import (
	"context"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// ProfileRepository persists profiles by address.
type ProfileRepository interface {
	// Get returns the profile at address or a PROFILE_NOT_FOUND error.
	Get(ctx context.Context, address ledger.Pubkey) (*Profile, error)

	// Create stores a new profile. It fails with PROFILE_ALREADY_EXISTS when
	// the address is taken and RECORD_TOO_LARGE when Space is over the limit.
	Create(ctx context.Context, p *Profile) error

	// Update overwrites a profile, resizing it to p.Space.
	Update(ctx context.Context, p *Profile) error
}

// CharacterRepository persists character locks by address.
type CharacterRepository interface {
	// Get returns the lock at address or a CHARACTER_NOT_FOUND error.
	Get(ctx context.Context, address ledger.Pubkey) (*CharacterLock, error)

	// Save creates or overwrites a lock.
	Save(ctx context.Context, l *CharacterLock) error
}

// Transactor runs fn as one atomic unit holding exclusive access to the
// given record addresses. Nested calls join the outer unit and add their
// addresses to it.
type Transactor interface {
	InTransaction(ctx context.Context, addresses []ledger.Pubkey, fn func(ctx context.Context) error) error
}

// Custody moves tokens between a player and the vault.
type Custody interface {
	// Deposit pays amount from owner into the vault, signed by owner.
	Deposit(ctx context.Context, owner ledger.Pubkey, amount uint64, signers ledger.SignerSet) error

	// Withdraw pays amount from the vault to owner, signed by the program.
	Withdraw(ctx context.Context, owner ledger.Pubkey, amount uint64) error

	// Accounts returns the token accounts a transfer for owner touches.
	Accounts(owner ledger.Pubkey) ([]ledger.Pubkey, error)
}

// Recorder receives counts of state transitions.
type Recorder interface {
	RecordLockTransition(outcome string)
	RecordVaultTransfer(direction string, amount uint64)
}

type nopRecorder struct{}

func (nopRecorder) RecordLockTransition(string)         {}
func (nopRecorder) RecordVaultTransfer(string, uint64) {}
