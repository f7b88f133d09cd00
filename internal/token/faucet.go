// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package token

import (
	"context"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// Minter is a Ledger that can open and fund accounts.
type Minter interface {
	Ledger
	OpenAccount(ctx context.Context, owner, mint ledger.Pubkey) (*Account, error)
	MintTo(ctx context.Context, address ledger.Pubkey, amount uint64) error
}

// Faucet grants a fixed amount of one mint on request. It exists for
// development setups where no external issuer funds player accounts.
type Faucet struct {
	minter Minter
	mint   ledger.Pubkey
	amount uint64
}

// NewFaucet creates a Faucet granting amount of mint per call.
func NewFaucet(minter Minter, mint ledger.Pubkey, amount uint64) (*Faucet, error) {
	if minter == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("token minter is required")
	}
	if amount == 0 {
		return nil, oops.Code("INVALID_CONFIG").Errorf("faucet amount must be positive")
	}
	return &Faucet{minter: minter, mint: mint, amount: amount}, nil
}

// Amount returns the grant per call.
func (f *Faucet) Amount() uint64 { return f.amount }

// Fund opens owner's associated account if needed, mints the grant into it
// and returns the funded account.
func (f *Faucet) Fund(ctx context.Context, owner ledger.Pubkey) (*Account, error) {
	acct, err := f.minter.OpenAccount(ctx, owner, f.mint)
	if err != nil {
		return nil, err
	}
	if err := f.minter.MintTo(ctx, acct.Address, f.amount); err != nil {
		return nil, oops.With("owner", owner.String()).With("amount", f.amount).Wrapf(err, "faucet")
	}
	return f.minter.Account(ctx, acct.Address)
}

var _ Minter = (*MemoryLedger)(nil)
