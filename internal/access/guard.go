// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package access

import (
	"errors"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// ErrWrongAuthority is returned when the caller is neither the owner nor a
// session delegate scoped to the owner.
var ErrWrongAuthority = errors.New("wrong authority")

// Authorize permits a request acting for owner if it was signed by owner
// itself, or by the delegate of a session whose authority is owner.
// Expiry and program scoping are not checked here.
func Authorize(owner, signer ledger.Pubkey, session *Delegation) error {
	if signer == owner {
		return nil
	}
	if session != nil && session.SessionSigner == signer && session.Authority == owner {
		return nil
	}
	return oops.Code("WRONG_AUTHORITY").
		With("owner", owner.String()).
		With("signer", signer.String()).
		Wrap(ErrWrongAuthority)
}

// AuthorizeCall applies Authorize to a call.
func AuthorizeCall(owner ledger.Pubkey, call Call) error {
	return Authorize(owner, call.Signer, call.Session)
}
