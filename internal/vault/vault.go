// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package vault holds player tokens in custody under an address derived from
// the program, so only the program can pay out of it.
package vault

import (
	"context"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/internal/token"
)

// Seed derives the vault authority.
const Seed = "VAULT"

// Address derives the vault authority of program and its bump.
func Address(program ledger.Pubkey) (ledger.Pubkey, uint8, error) {
	addr, bump, err := ledger.FindProgramAddress([][]byte{[]byte(Seed)}, program)
	if err != nil {
		return ledger.Pubkey{}, 0, oops.Code("VAULT_ADDRESS_FAILED").With("program", program.String()).Wrap(err)
	}
	return addr, bump, nil
}

// Custody moves the game mint between players and the vault.
//
// Deposit and Withdraw are authorized by different principals: a deposit
// is signed by the paying owner, a withdrawal by the program through the
// vault's derivation seeds.
type Custody struct {
	tokens    token.Ledger
	program   ledger.Pubkey
	mint      ledger.Pubkey
	authority ledger.Pubkey
	bump      uint8
	account   ledger.Pubkey
}

// New returns the custody of mint for program.
func New(tokens token.Ledger, program, mint ledger.Pubkey) (*Custody, error) {
	if tokens == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("token ledger is required")
	}
	authority, bump, err := Address(program)
	if err != nil {
		return nil, err
	}
	account, err := token.AssociatedAddress(authority, mint)
	if err != nil {
		return nil, err
	}
	return &Custody{
		tokens:    tokens,
		program:   program,
		mint:      mint,
		authority: authority,
		bump:      bump,
		account:   account,
	}, nil
}

// Authority returns the vault authority address.
func (c *Custody) Authority() ledger.Pubkey { return c.authority }

// VaultAccount returns the vault's token account.
func (c *Custody) VaultAccount() ledger.Pubkey { return c.account }

// Mint returns the custodied mint.
func (c *Custody) Mint() ledger.Pubkey { return c.mint }

// Balance returns the vault's token balance.
func (c *Custody) Balance(ctx context.Context) (uint64, error) {
	acct, err := c.tokens.Account(ctx, c.account)
	if err != nil {
		return 0, err
	}
	return acct.Amount, nil
}

// Accounts returns owner's token account and the vault's, the records a
// transfer for owner touches.
func (c *Custody) Accounts(owner ledger.Pubkey) ([]ledger.Pubkey, error) {
	user, err := token.AssociatedAddress(owner, c.mint)
	if err != nil {
		return nil, err
	}
	return []ledger.Pubkey{user, c.account}, nil
}

// Deposit moves amount from owner's token account into the vault. signers
// must include owner. Ledger errors are returned as they are.
func (c *Custody) Deposit(ctx context.Context, owner ledger.Pubkey, amount uint64, signers ledger.SignerSet) error {
	from, err := token.AssociatedAddress(owner, c.mint)
	if err != nil {
		return err
	}
	return c.tokens.Transfer(ctx, token.Transfer{
		From:      from,
		To:        c.account,
		Authority: owner,
		Amount:    amount,
	}, token.Signatures{Signers: signers})
}

// Withdraw moves amount from the vault to owner's token account, signed by
// the program with the vault seeds. Ledger errors are returned as they are.
func (c *Custody) Withdraw(ctx context.Context, owner ledger.Pubkey, amount uint64) error {
	to, err := token.AssociatedAddress(owner, c.mint)
	if err != nil {
		return err
	}
	return c.tokens.Transfer(ctx, token.Transfer{
		From:      c.account,
		To:        to,
		Authority: c.authority,
		Amount:    amount,
	}, token.Signatures{
		Program: c.program,
		Seeds:   [][]byte{[]byte(Seed), {c.bump}},
	})
}
