// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package token

import (
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// MemoryLedger is an in-process Ledger. It is safe for concurrent use.
type MemoryLedger struct {
	mu       sync.Mutex
	accounts map[ledger.Pubkey]*Account
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{accounts: make(map[ledger.Pubkey]*Account)}
}

// OpenAccount creates the associated account of owner for mint if it does
// not exist, and returns it.
func (l *MemoryLedger) OpenAccount(_ context.Context, owner, mint ledger.Pubkey) (*Account, error) {
	addr, err := AssociatedAddress(owner, mint)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[addr]
	if !ok {
		acct = &Account{Address: addr, Owner: owner, Mint: mint}
		l.accounts[addr] = acct
	}
	cp := *acct
	return &cp, nil
}

// MintTo credits amount to an existing account.
func (l *MemoryLedger) MintTo(_ context.Context, address ledger.Pubkey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[address]
	if !ok {
		return NotFound(address)
	}
	if acct.Amount+amount < acct.Amount {
		return oops.Code("BALANCE_OVERFLOW").With("account", address.String()).Wrap(ErrOverflow)
	}
	acct.Amount += amount
	return nil
}

// Account implements Ledger.
func (l *MemoryLedger) Account(_ context.Context, address ledger.Pubkey) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[address]
	if !ok {
		return nil, NotFound(address)
	}
	cp := *acct
	return &cp, nil
}

// Transfer implements Ledger.
func (l *MemoryLedger) Transfer(_ context.Context, t Transfer, sigs Signatures) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.accounts[t.From]
	if !ok {
		return NotFound(t.From)
	}
	to, ok := l.accounts[t.To]
	if !ok {
		return NotFound(t.To)
	}
	if err := CheckTransfer(from, to, t, sigs); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	from.Amount -= t.Amount
	to.Amount += t.Amount
	return nil
}

// Compile-time interface check.
var _ Ledger = (*MemoryLedger)(nil)
