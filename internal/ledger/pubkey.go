// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package ledger

import (
	"bytes"
	"errors"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/samber/oops"
)

// PubkeyLength is the size of a public key in bytes.
const PubkeyLength = 32

// ErrInvalidPubkey is returned when a key cannot be decoded.
var ErrInvalidPubkey = errors.New("invalid public key")

// Pubkey is a 32-byte ed25519 public key or program-derived address.
// Its text form is base58.
type Pubkey [PubkeyLength]byte

// PubkeyFromBytes copies b into a Pubkey. b must be exactly 32 bytes.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var k Pubkey
	if len(b) != PubkeyLength {
		return k, oops.Code("INVALID_PUBKEY").
			With("length", len(b)).
			Wrapf(ErrInvalidPubkey, "expected %d bytes", PubkeyLength)
	}
	copy(k[:], b)
	return k, nil
}

// ParsePubkey decodes a base58 public key.
func ParsePubkey(s string) (Pubkey, error) {
	if s == "" {
		return Pubkey{}, oops.Code("INVALID_PUBKEY").Wrapf(ErrInvalidPubkey, "empty key")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, oops.Code("INVALID_PUBKEY").With("value", s).Wrapf(ErrInvalidPubkey, "%v", err)
	}
	k, err := PubkeyFromBytes(raw)
	if err != nil {
		return Pubkey{}, oops.With("value", s).Wrap(err)
	}
	return k, nil
}

// MustParsePubkey is like ParsePubkey but panics on error.
// Intended for compile-time constants such as program ids.
func MustParsePubkey(s string) Pubkey {
	k, err := ParsePubkey(s)
	if err != nil {
		panic("ledger: invalid pubkey " + s + ": " + err.Error())
	}
	return k
}

// String returns the base58 encoding of the key.
func (k Pubkey) String() string {
	return base58.Encode(k[:])
}

// Bytes returns a copy of the raw key bytes.
func (k Pubkey) Bytes() []byte {
	b := make([]byte, PubkeyLength)
	copy(b, k[:])
	return b
}

// IsZero reports whether the key is all zeros.
func (k Pubkey) IsZero() bool {
	return k == Pubkey{}
}

// Compare orders keys bytewise.
func (k Pubkey) Compare(other Pubkey) int {
	return bytes.Compare(k[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (k Pubkey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SortedUnique returns keys in byte order with duplicates removed.
func SortedUnique(keys []Pubkey) []Pubkey {
	out := make([]Pubkey, 0, len(keys))
	seen := make(map[Pubkey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
