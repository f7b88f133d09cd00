// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package memory holds game records in process memory. It serializes
// requests per record address and applies a request's writes only when the
// request succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
)

// Store keeps profiles, character locks and session delegations.
type Store struct {
	mu          sync.RWMutex
	profiles    map[ledger.Pubkey]game.Profile
	locks       map[ledger.Pubkey]game.CharacterLock
	delegations map[ledger.Pubkey]access.Delegation

	semMu sync.Mutex
	sems  map[ledger.Pubkey]chan struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		profiles:    make(map[ledger.Pubkey]game.Profile),
		locks:       make(map[ledger.Pubkey]game.CharacterLock),
		delegations: make(map[ledger.Pubkey]access.Delegation),
		sems:        make(map[ledger.Pubkey]chan struct{}),
	}
}

// txn buffers the writes of one request.
type txn struct {
	held     []ledger.Pubkey
	profiles map[ledger.Pubkey]game.Profile
	locks    map[ledger.Pubkey]game.CharacterLock
}

type txnKey struct{}

func txnFrom(ctx context.Context) *txn {
	t, _ := ctx.Value(txnKey{}).(*txn)
	return t
}

func (t *txn) holds(addr ledger.Pubkey) bool {
	for _, h := range t.held {
		if h == addr {
			return true
		}
	}
	return false
}

func (s *Store) sem(addr ledger.Pubkey) chan struct{} {
	s.semMu.Lock()
	defer s.semMu.Unlock()
	ch, ok := s.sems[addr]
	if !ok {
		ch = make(chan struct{}, 1)
		s.sems[addr] = ch
	}
	return ch
}

func (s *Store) acquire(ctx context.Context, t *txn, addresses []ledger.Pubkey) error {
	for _, addr := range ledger.SortedUnique(addresses) {
		if t.holds(addr) {
			continue
		}
		select {
		case s.sem(addr) <- struct{}{}:
			t.held = append(t.held, addr)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Store) release(t *txn) {
	for _, addr := range t.held {
		<-s.sem(addr)
	}
	t.held = nil
}

// InTransaction implements game.Transactor. Addresses are acquired in
// sorted order; a nested call acquires only the addresses the outer call
// does not hold yet.
func (s *Store) InTransaction(ctx context.Context, addresses []ledger.Pubkey, fn func(ctx context.Context) error) error {
	if t := txnFrom(ctx); t != nil {
		if err := s.acquire(ctx, t, addresses); err != nil {
			return err
		}
		return fn(ctx)
	}

	t := &txn{
		profiles: make(map[ledger.Pubkey]game.Profile),
		locks:    make(map[ledger.Pubkey]game.CharacterLock),
	}
	defer s.release(t)
	if err := s.acquire(ctx, t, addresses); err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txnKey{}, t)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for addr, p := range t.profiles {
		s.profiles[addr] = p
	}
	for addr, l := range t.locks {
		s.locks[addr] = l
	}
	return nil
}

// PutDelegation stores a session delegation, standing in for the issuance
// subsystem.
func (s *Store) PutDelegation(d access.Delegation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegations[d.Address] = d
}

// Profiles returns the profile repository.
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s: s} }

// Characters returns the character lock repository.
func (s *Store) Characters() *CharacterRepository { return &CharacterRepository{s: s} }

// Delegations returns the session delegation repository.
func (s *Store) Delegations() *DelegationRepository { return &DelegationRepository{s: s} }

var _ game.Transactor = (*Store)(nil)
