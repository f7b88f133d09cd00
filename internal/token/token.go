// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package token defines the fungible-token ledger the vault moves value
// through. The ledger is an external collaborator: the game never keeps
// balances itself, it only asks the ledger to execute transfers and passes
// the ledger's errors back unchanged.
//
// Two implementations are provided for running outside the original host:
// MemoryLedger for tests and development, and the postgres subpackage.
package token

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// Well-known program ids used to derive associated token accounts.
var (
	ProgramID           = ledger.MustParsePubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedProgramID = ledger.MustParsePubkey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// Ledger errors.
var (
	ErrAccountNotFound   = errors.New("token account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOwnerMismatch     = errors.New("authority does not own the source account")
	ErrMintMismatch      = errors.New("accounts hold different mints")
	ErrMissingSignature  = errors.New("transfer authority did not sign")
	ErrOverflow          = errors.New("balance overflow")
)

// Account is a token balance owned by one key for one mint.
type Account struct {
	Address ledger.Pubkey
	Owner   ledger.Pubkey
	Mint    ledger.Pubkey
	Amount  uint64
}

// Transfer moves Amount from one account to another under Authority.
type Transfer struct {
	From      ledger.Pubkey
	To        ledger.Pubkey
	Authority ledger.Pubkey
	Amount    uint64
}

// Signatures is the proof a transfer's authority consented. Either the
// authority is among the verified Signers, or Program signs for a derived
// authority by presenting the Seeds (bump included) that derive it.
type Signatures struct {
	Signers ledger.SignerSet
	Program ledger.Pubkey
	Seeds   [][]byte
}

// Authorizes reports whether the signatures cover authority.
func (s Signatures) Authorizes(authority ledger.Pubkey) bool {
	if s.Signers.Has(authority) {
		return true
	}
	if len(s.Seeds) == 0 {
		return false
	}
	derived, err := ledger.CreateProgramAddress(s.Seeds, s.Program)
	return err == nil && derived == authority
}

// Ledger executes token transfers.
type Ledger interface {
	// Account retrieves a token account by address.
	Account(ctx context.Context, address ledger.Pubkey) (*Account, error)

	// Transfer debits t.From and credits t.To atomically.
	Transfer(ctx context.Context, t Transfer, sigs Signatures) error
}

// AssociatedAddress derives the canonical token account of owner for mint.
func AssociatedAddress(owner, mint ledger.Pubkey) (ledger.Pubkey, error) {
	addr, _, err := ledger.FindProgramAddress(
		[][]byte{owner.Bytes(), ProgramID.Bytes(), mint.Bytes()},
		AssociatedProgramID,
	)
	if err != nil {
		return ledger.Pubkey{}, oops.Code("TOKEN_ADDRESS_FAILED").
			With("owner", owner.String()).
			With("mint", mint.String()).
			Wrap(err)
	}
	return addr, nil
}

// CheckTransfer applies the ledger's transfer rules to the loaded accounts.
// Implementations call it with both rows held so the checks and the balance
// update are one atomic step.
func CheckTransfer(from, to *Account, t Transfer, sigs Signatures) error {
	if from.Mint != to.Mint {
		return oops.Code("MINT_MISMATCH").
			With("from_mint", from.Mint.String()).
			With("to_mint", to.Mint.String()).
			Wrap(ErrMintMismatch)
	}
	if from.Owner != t.Authority {
		return oops.Code("OWNER_MISMATCH").
			With("account", from.Address.String()).
			With("authority", t.Authority.String()).
			Wrap(ErrOwnerMismatch)
	}
	if !sigs.Authorizes(t.Authority) {
		return oops.Code("MISSING_SIGNATURE").
			With("authority", t.Authority.String()).
			Wrap(ErrMissingSignature)
	}
	if from.Amount < t.Amount {
		return oops.Code("INSUFFICIENT_FUNDS").
			With("account", from.Address.String()).
			With("balance", from.Amount).
			With("amount", t.Amount).
			Wrap(ErrInsufficientFunds)
	}
	if from.Address != to.Address && to.Amount+t.Amount < to.Amount {
		return oops.Code("BALANCE_OVERFLOW").With("account", to.Address.String()).Wrap(ErrOverflow)
	}
	return nil
}

// NotFound builds the error returned for a missing account.
func NotFound(address ledger.Pubkey) error {
	return oops.Code("TOKEN_ACCOUNT_NOT_FOUND").With("address", address.String()).Wrap(ErrAccountNotFound)
}
