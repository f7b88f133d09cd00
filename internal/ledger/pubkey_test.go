// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package ledger_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/pkg/errutil"
)

const programIDText = "CW7thTzLfzZop6TtHrD4FgjcJzxNMiscHRR9XrdW4T14"

func TestParsePubkey(t *testing.T) {
	t.Run("round trips base58", func(t *testing.T) {
		k, err := ledger.ParsePubkey(programIDText)
		require.NoError(t, err)
		assert.Equal(t, programIDText, k.String())
		assert.False(t, k.IsZero())
	})

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"too short", "3mJr7AoUXx2Wqd"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := ledger.ParsePubkey(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ledger.ErrInvalidPubkey)
			errutil.AssertErrorCode(t, err, "INVALID_PUBKEY")
		})
	}
}

func TestPubkey_JSON(t *testing.T) {
	k := ledger.MustParsePubkey(programIDText)

	data, err := json.Marshal(struct {
		Key ledger.Pubkey `json:"key"`
	}{Key: k})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"`+programIDText+`"}`, string(data))

	var decoded struct {
		Key ledger.Pubkey `json:"key"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, k, decoded.Key)
}

func TestPubkeyFromBytes(t *testing.T) {
	_, err := ledger.PubkeyFromBytes(make([]byte, 31))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInvalidPubkey)

	raw := make([]byte, ledger.PubkeyLength)
	raw[0] = 7
	k, err := ledger.PubkeyFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, k.Bytes())
}

func TestMustParsePubkey_Panics(t *testing.T) {
	assert.Panics(t, func() { ledger.MustParsePubkey("bogus!") })
}

func TestSignerSet(t *testing.T) {
	a := ledger.Pubkey{1}
	b := ledger.Pubkey{2}

	var empty ledger.SignerSet
	assert.False(t, empty.Has(a))
	assert.Equal(t, 0, empty.Len())

	s := ledger.NewSignerSet(b)
	withA := s.Add(a)
	assert.False(t, s.Has(a), "Add must not mutate the receiver")
	assert.True(t, withA.Has(a))
	assert.True(t, withA.Has(b))
	assert.Equal(t, []ledger.Pubkey{a, b}, withA.Keys())
}

func TestSortedUnique(t *testing.T) {
	got := ledger.SortedUnique([]ledger.Pubkey{{5}, {1}, {5}, {3}})
	assert.Equal(t, []ledger.Pubkey{{1}, {3}, {5}}, got)
	assert.Empty(t, ledger.SortedUnique(nil))
}
