// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package ledger

import "sort"

// SignerSet holds the keys whose signatures the host verified for a request.
// The zero value is an empty set.
type SignerSet struct {
	keys map[Pubkey]struct{}
}

// NewSignerSet returns a set containing keys.
func NewSignerSet(keys ...Pubkey) SignerSet {
	s := SignerSet{keys: make(map[Pubkey]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

// Add returns a copy of the set with k included.
func (s SignerSet) Add(k Pubkey) SignerSet {
	out := NewSignerSet(s.Keys()...)
	out.keys[k] = struct{}{}
	return out
}

// Has reports whether k signed.
func (s SignerSet) Has(k Pubkey) bool {
	_, ok := s.keys[k]
	return ok
}

// Len returns the number of signers.
func (s SignerSet) Len() int {
	return len(s.keys)
}

// Keys returns the signers in byte order.
func (s SignerSet) Keys() []Pubkey {
	out := make([]Pubkey, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
