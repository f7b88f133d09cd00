// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/ledger"
)

type nestedContextKey struct{}

func TestCallFromContext(t *testing.T) {
	call := access.NewCall(ledger.Pubkey{0x01}, ledger.Pubkey{0x02})

	tests := []struct {
		name   string
		ctx    context.Context
		wantOK bool
	}{
		{"empty context", context.Background(), false},
		{"call stored", access.WithCall(context.Background(), call), true},
		{
			"call under nested value",
			context.WithValue(access.WithCall(context.Background(), call), nestedContextKey{}, "val"),
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := access.CallFromContext(tt.ctx)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, call.Signer, got.Signer)
				assert.True(t, got.Signers.Has(ledger.Pubkey{0x02}))
			}
		})
	}
}
