// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package game implements per-player game state: one profile per owning
// key, a cooldown-gated lock over the active character, and the entry points
// that move tokens between a player and the vault.
//
// Every record lives at an address derived from its key fields, so whether
// a record exists is known from its key alone. Each operation authorizes the
// caller first and then runs as one atomic transaction over the records it
// names.
package game
