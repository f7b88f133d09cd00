// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/game/postgres"
	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/pkg/errutil"
)

var (
	addr  = ledger.Pubkey{0x10}
	owner = ledger.Pubkey{0x20}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestProfileRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("scans a row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT address, authority, username, current_character_id, space\s+FROM profiles WHERE address = \$1`).
			WithArgs(addr.String()).
			WillReturnRows(pgxmock.NewRows([]string{"address", "authority", "username", "current_character_id", "space"}).
				AddRow(addr.String(), owner.String(), "Hero", int16(3), int32(49)))

		p, err := postgres.NewProfileRepository(mock).Get(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, game.Profile{Address: addr, Authority: owner, Username: "Hero", CurrentCharacterID: 3, Space: 49}, *p)
	})

	t.Run("no rows is not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM profiles`).WithArgs(addr.String()).WillReturnError(pgx.ErrNoRows)

		_, err := postgres.NewProfileRepository(mock).Get(ctx, addr)
		errutil.AssertErrorCode(t, err, "PROFILE_NOT_FOUND")
		assert.ErrorIs(t, err, game.ErrNotFound)
	})

	t.Run("corrupt key", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM profiles`).WithArgs(addr.String()).
			WillReturnRows(pgxmock.NewRows([]string{"address", "authority", "username", "current_character_id", "space"}).
				AddRow("not-base58!", owner.String(), "Hero", int16(0), int32(45)))

		_, err := postgres.NewProfileRepository(mock).Get(ctx, addr)
		errutil.AssertErrorCode(t, err, "CORRUPT_RECORD")
	})
}

func TestProfileRepository_Create(t *testing.T) {
	ctx := context.Background()
	p := &game.Profile{Address: addr, Authority: owner, Username: "Hero", Space: game.ProfileSpace("Hero")}

	t.Run("inserts", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO profiles`).
			WithArgs(addr.String(), owner.String(), "Hero", int16(0), int32(49)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		require.NoError(t, postgres.NewProfileRepository(mock).Create(ctx, p))
	})

	t.Run("unique violation is already exists", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO profiles`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := postgres.NewProfileRepository(mock).Create(ctx, p)
		errutil.AssertErrorCode(t, err, "PROFILE_ALREADY_EXISTS")
		assert.ErrorIs(t, err, game.ErrAlreadyExists)
	})

	t.Run("oversized record never reaches the database", func(t *testing.T) {
		mock := newMock(t)
		big := *p
		big.Space = game.MaxRecordSize + 1
		errutil.AssertErrorCode(t, postgres.NewProfileRepository(mock).Create(ctx, &big), "RECORD_TOO_LARGE")
	})
}

func TestProfileRepository_Update(t *testing.T) {
	ctx := context.Background()
	p := &game.Profile{Address: addr, Authority: owner, Username: "Heroic", CurrentCharacterID: 3, Space: game.ProfileSpace("Heroic")}

	t.Run("locks the row and resizes", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT space FROM profiles WHERE address = \$1 FOR UPDATE`).
			WithArgs(addr.String()).
			WillReturnRows(pgxmock.NewRows([]string{"space"}).AddRow(int32(49)))
		mock.ExpectExec(`UPDATE profiles SET username`).
			WithArgs(addr.String(), "Heroic", int16(3), int32(51)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		require.NoError(t, postgres.NewProfileRepository(mock).Update(ctx, p))
	})

	t.Run("missing row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(addr.String()).WillReturnError(pgx.ErrNoRows)
		errutil.AssertErrorCode(t, postgres.NewProfileRepository(mock).Update(ctx, p), "PROFILE_NOT_FOUND")
	})

	t.Run("growth over the realloc limit", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FOR UPDATE`).WithArgs(addr.String()).
			WillReturnRows(pgxmock.NewRows([]string{"space"}).AddRow(int32(49)))
		grown := *p
		grown.Space = 49 + game.MaxReallocIncrease + 1
		errutil.AssertErrorCode(t, postgres.NewProfileRepository(mock).Update(ctx, &grown), "REALLOC_TOO_LARGE")
	})
}

func TestCharacterRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("get scans a row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM character_locks WHERE address = \$1`).
			WithArgs(addr.String()).
			WillReturnRows(pgxmock.NewRows([]string{"address", "authority", "mint_id", "locked", "last_locked_time"}).
				AddRow(addr.String(), owner.String(), int16(3), true, int64(1_700_000_000)))

		l, err := postgres.NewCharacterRepository(mock).Get(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, game.CharacterLock{Address: addr, Authority: owner, MintID: 3, Locked: true, LastLockedTime: 1_700_000_000}, *l)
	})

	t.Run("get no rows is not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM character_locks`).WillReturnError(pgx.ErrNoRows)
		_, err := postgres.NewCharacterRepository(mock).Get(ctx, addr)
		errutil.AssertErrorCode(t, err, "CHARACTER_NOT_FOUND")
	})

	t.Run("save upserts", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO character_locks .* ON CONFLICT \(address\) DO UPDATE`).
			WithArgs(addr.String(), owner.String(), int16(5), false, int64(0)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		require.NoError(t, postgres.NewCharacterRepository(mock).Save(ctx, &game.CharacterLock{Address: addr, Authority: owner, MintID: 5}))
	})

	t.Run("save failure is wrapped", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO character_locks`).WillReturnError(errors.New("connection reset"))
		err := postgres.NewCharacterRepository(mock).Save(ctx, &game.CharacterLock{Address: addr, Authority: owner})
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "save character lock")
	})
}

func TestDelegationRepository_Get(t *testing.T) {
	ctx := context.Background()
	signer := ledger.Pubkey{0x30}
	until := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("scans a row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM session_tokens WHERE address = \$1`).
			WithArgs(addr.String()).
			WillReturnRows(pgxmock.NewRows([]string{"session_signer", "authority", "target_program", "valid_until"}).
				AddRow(signer.String(), owner.String(), game.DefaultProgramID.String(), until))

		d, err := postgres.NewDelegationRepository(mock).Get(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, access.Delegation{
			Address:       addr,
			SessionSigner: signer,
			Authority:     owner,
			TargetProgram: game.DefaultProgramID,
			ValidUntil:    until,
		}, *d)
	})

	t.Run("no rows is session not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM session_tokens`).WillReturnError(pgx.ErrNoRows)
		_, err := postgres.NewDelegationRepository(mock).Get(ctx, addr)
		errutil.AssertErrorCode(t, err, "SESSION_NOT_FOUND")
	})
}
