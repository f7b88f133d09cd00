// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package ledger provides the host-ledger primitives the game logic is
// written against: 32-byte public keys, deterministic (program-derived)
// record addresses, the set of keys that signed a request, and a clock.
//
// # Deterministic addresses
//
// Every record is addressed by a pure function of its key fields and the
// owning program's id, so "does this record exist" can be answered before a
// read and no identifier is ever allocated:
//
//	addr, bump, err := ledger.FindProgramAddress([][]byte{[]byte("PLAYER"), owner.Bytes()}, program)
//
// Derived addresses are guaranteed to lie off the ed25519 curve, so no
// private key exists for them. Only the program can "sign" for such an
// address, by presenting the seeds (including the bump) it was derived from.
package ledger
