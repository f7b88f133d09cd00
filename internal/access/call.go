// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package access

import "github.com/soldungeons/dungeons/internal/ledger"

// Call is the verified identity behind one request, as established by the
// host before any game logic runs.
type Call struct {
	// Signer is the key that signed the request as its fee payer and actor.
	Signer ledger.Pubkey
	// Signers holds every key whose signature was verified, Signer included.
	Signers ledger.SignerSet
	// Session is the delegation presented with the request, or nil.
	Session *Delegation
}

// NewCall returns a Call signed by signer alone.
func NewCall(signer ledger.Pubkey, cosigners ...ledger.Pubkey) Call {
	return Call{
		Signer:  signer,
		Signers: ledger.NewSignerSet(append([]ledger.Pubkey{signer}, cosigners...)...),
	}
}

// WithSession returns a copy of c presenting the given delegation.
func (c Call) WithSession(d *Delegation) Call {
	c.Session = d
	return c
}
