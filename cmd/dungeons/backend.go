// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/config"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/game/memory"
	gamepg "github.com/soldungeons/dungeons/internal/game/postgres"
	"github.com/soldungeons/dungeons/internal/store"
	"github.com/soldungeons/dungeons/internal/token"
	tokenpg "github.com/soldungeons/dungeons/internal/token/postgres"
)

// Backend holds the storage a running service works against.
type Backend struct {
	Profiles    game.ProfileRepository
	Characters  game.CharacterRepository
	Delegations access.DelegationRepository
	Transactor  game.Transactor
	Tokens      token.Minter
	// Ping reports whether storage is reachable.
	Ping  func(ctx context.Context) error
	Close func()
}

// newBackend selects PostgreSQL when a database URL is configured and
// in-memory state otherwise.
func newBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("no database configured, state is kept in memory")
		return newMemoryBackend(), nil
	}
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Profiles:    gamepg.NewProfileRepository(pool),
		Characters:  gamepg.NewCharacterRepository(pool),
		Delegations: gamepg.NewDelegationRepository(pool),
		Transactor:  store.NewTransactor(pool),
		Tokens:      tokenpg.NewLedger(pool),
		Ping:        pool.Ping,
		Close:       pool.Close,
	}, nil
}

func newMemoryBackend() *Backend {
	s := memory.NewStore()
	return &Backend{
		Profiles:    s.Profiles(),
		Characters:  s.Characters(),
		Delegations: s.Delegations(),
		Transactor:  s,
		Tokens:      token.NewMemoryLedger(),
		Ping:        func(context.Context) error { return nil },
		Close:       func() {},
	}
}
