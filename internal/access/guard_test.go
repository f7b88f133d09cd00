// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/pkg/errutil"
)

func TestAuthorize(t *testing.T) {
	owner := ledger.Pubkey{1}
	delegate := ledger.Pubkey{2}
	stranger := ledger.Pubkey{3}
	otherOwner := ledger.Pubkey{4}

	tests := []struct {
		name    string
		signer  ledger.Pubkey
		session *access.Delegation
		wantErr bool
	}{
		{name: "owner signs", signer: owner},
		{name: "owner signs and ignores session", signer: owner, session: &access.Delegation{SessionSigner: stranger, Authority: otherOwner}},
		{name: "delegate with scoped session", signer: delegate, session: &access.Delegation{SessionSigner: delegate, Authority: owner}},
		{name: "stranger without session", signer: stranger, wantErr: true},
		{name: "delegate of another owner", signer: delegate, session: &access.Delegation{SessionSigner: delegate, Authority: otherOwner}, wantErr: true},
		{name: "session for another delegate", signer: stranger, session: &access.Delegation{SessionSigner: delegate, Authority: owner}, wantErr: true},
		{name: "signer equals session authority but not owner", signer: otherOwner, session: &access.Delegation{SessionSigner: delegate, Authority: otherOwner}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := access.Authorize(owner, tt.signer, tt.session)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, access.ErrWrongAuthority)
			errutil.AssertErrorCode(t, err, "WRONG_AUTHORITY")
			errutil.AssertErrorContext(t, err, "owner", owner.String())
		})
	}
}

func TestAuthorizeCall(t *testing.T) {
	owner := ledger.Pubkey{1}
	delegate := ledger.Pubkey{2}

	call := access.NewCall(delegate)
	require.Error(t, access.AuthorizeCall(owner, call))

	session := &access.Delegation{SessionSigner: delegate, Authority: owner}
	require.NoError(t, access.AuthorizeCall(owner, call.WithSession(session)))
	assert.Nil(t, call.Session, "WithSession must not mutate the receiver")
}
