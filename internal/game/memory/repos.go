// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package memory

import (
	"context"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
)

// ProfileRepository implements game.ProfileRepository.
type ProfileRepository struct {
	s *Store
}

func (r *ProfileRepository) load(ctx context.Context, addr ledger.Pubkey) (game.Profile, bool) {
	if t := txnFrom(ctx); t != nil {
		if p, ok := t.profiles[addr]; ok {
			return p, true
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[addr]
	return p, ok
}

func (r *ProfileRepository) store(ctx context.Context, p game.Profile) {
	if t := txnFrom(ctx); t != nil {
		t.profiles[p.Address] = p
		return
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.profiles[p.Address] = p
}

// Get implements game.ProfileRepository.
func (r *ProfileRepository) Get(ctx context.Context, address ledger.Pubkey) (*game.Profile, error) {
	p, ok := r.load(ctx, address)
	if !ok {
		return nil, game.ProfileNotFound(address)
	}
	return &p, nil
}

// Create implements game.ProfileRepository.
func (r *ProfileRepository) Create(ctx context.Context, p *game.Profile) error {
	if _, ok := r.load(ctx, p.Address); ok {
		return game.ProfileExists(p.Address)
	}
	if err := game.CheckSpace(p.Space); err != nil {
		return err
	}
	r.store(ctx, *p)
	return nil
}

// Update implements game.ProfileRepository.
func (r *ProfileRepository) Update(ctx context.Context, p *game.Profile) error {
	old, ok := r.load(ctx, p.Address)
	if !ok {
		return game.ProfileNotFound(p.Address)
	}
	if err := game.CheckResize(old.Space, p.Space); err != nil {
		return err
	}
	r.store(ctx, *p)
	return nil
}

// CharacterRepository implements game.CharacterRepository.
type CharacterRepository struct {
	s *Store
}

// Get implements game.CharacterRepository.
func (r *CharacterRepository) Get(ctx context.Context, address ledger.Pubkey) (*game.CharacterLock, error) {
	if t := txnFrom(ctx); t != nil {
		if l, ok := t.locks[address]; ok {
			return &l, nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locks[address]
	if !ok {
		return nil, game.CharacterNotFound(address)
	}
	return &l, nil
}

// Save implements game.CharacterRepository.
func (r *CharacterRepository) Save(ctx context.Context, l *game.CharacterLock) error {
	if t := txnFrom(ctx); t != nil {
		t.locks[l.Address] = *l
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locks[l.Address] = *l
	return nil
}

// DelegationRepository implements access.DelegationRepository.
type DelegationRepository struct {
	s *Store
}

// Get implements access.DelegationRepository.
func (r *DelegationRepository) Get(_ context.Context, address ledger.Pubkey) (*access.Delegation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.delegations[address]
	if !ok {
		return nil, access.SessionNotFound(address)
	}
	return &d, nil
}

// Compile-time interface checks.
var (
	_ game.ProfileRepository     = (*ProfileRepository)(nil)
	_ game.CharacterRepository   = (*CharacterRepository)(nil)
	_ access.DelegationRepository = (*DelegationRepository)(nil)
)
