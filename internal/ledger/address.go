// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package ledger

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
	"github.com/samber/oops"
)

// Derivation limits, counted including the bump seed.
const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

var pdaMarker = []byte("ProgramDerivedAddress")

// Derivation errors.
var (
	ErrMaxSeedLength = errors.New("seed exceeds maximum length")
	ErrTooManySeeds  = errors.New("too many seeds")
	ErrOnCurve       = errors.New("derived address lies on the ed25519 curve")
	ErrNoViableBump  = errors.New("unable to find a viable bump seed")
)

// CreateProgramAddress derives the address for seeds under program.
// It fails with ErrOnCurve if the hash happens to be a valid ed25519 point,
// since such an address could have a private key.
func CreateProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return Pubkey{}, oops.Code("PDA_TOO_MANY_SEEDS").With("seeds", len(seeds)).Wrap(ErrTooManySeeds)
	}
	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Pubkey{}, oops.Code("PDA_SEED_TOO_LONG").
				With("index", i).
				With("length", len(seed)).
				Wrap(ErrMaxSeedLength)
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write(pdaMarker)

	var addr Pubkey
	copy(addr[:], h.Sum(nil))
	if IsOnCurve(addr) {
		return Pubkey{}, oops.Code("PDA_ON_CURVE").Wrap(ErrOnCurve)
	}
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 down and returns the first
// off-curve address together with its bump.
func FindProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return Pubkey{}, 0, err
		}
	}
	return Pubkey{}, 0, oops.Code("PDA_NO_VIABLE_BUMP").Wrap(ErrNoViableBump)
}

// MustFindProgramAddress is FindProgramAddress for fixed seeds that are
// known to be valid. It panics on error.
func MustFindProgramAddress(seeds [][]byte, program Pubkey) (Pubkey, uint8) {
	addr, bump, err := FindProgramAddress(seeds, program)
	if err != nil {
		panic("ledger: derive address: " + err.Error())
	}
	return addr, bump
}

// IsOnCurve reports whether k decodes to a point on the ed25519 curve.
func IsOnCurve(k Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(k[:])
	return err == nil
}
