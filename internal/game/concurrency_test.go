// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package game_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
)

// gatedProfiles parks the first Get after arm until release is closed.
type gatedProfiles struct {
	game.ProfileRepository
	armed   atomic.Bool
	entries atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedProfiles) arm() {
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
	g.entries.Store(0)
	g.armed.Store(true)
}

func (g *gatedProfiles) Get(ctx context.Context, address ledger.Pubkey) (*game.Profile, error) {
	g.entries.Add(1)
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.ProfileRepository.Get(ctx, address)
}

func newGatedFixture(t *testing.T) (*fixture, *gatedProfiles) {
	t.Helper()
	f := newFixture(t)
	gate := &gatedProfiles{ProfileRepository: f.store.Profiles()}
	svc, err := game.NewService(game.ServiceConfig{
		Profiles:   gate,
		Characters: f.store.Characters(),
		Transactor: f.store,
		Custody:    f.custody,
		ProgramID:  game.DefaultProgramID,
		Clock:      f.clock,
		Recorder:   f.recorder,
	})
	require.NoError(t, err)
	f.svc = svc
	return f, gate
}

// characterBeforeProfile returns a character id whose lock address orders
// before owner's profile address.
func characterBeforeProfile(t *testing.T, owner ledger.Pubkey, skip uint8) uint8 {
	t.Helper()
	profileAddr, err := game.ProfileAddress(game.DefaultProgramID, owner)
	require.NoError(t, err)
	for id := 1; id <= 255; id++ {
		if uint8(id) == skip {
			continue
		}
		addr, err := game.CharacterAddress(game.DefaultProgramID, owner, uint8(id))
		require.NoError(t, err)
		if addr.Compare(profileAddr) < 0 {
			return uint8(id)
		}
	}
	t.Fatal("no character address orders before the profile")
	return 0
}

type opResult struct {
	assign *game.AssignResult
	err    error
}

// runInterleaved starts first, waits until it holds the profile, starts
// second and checks second cannot reach the profile before first is
// released. It returns both results.
func runInterleaved(t *testing.T, gate *gatedProfiles, first, second func() opResult) (opResult, opResult) {
	t.Helper()
	gate.arm()
	firstDone := make(chan opResult, 1)
	secondDone := make(chan opResult, 1)

	go func() { firstDone <- first() }()
	select {
	case <-gate.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first operation never read the profile")
	}

	go func() { secondDone <- second() }()
	assert.Never(t, func() bool { return gate.entries.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond,
		"second operation read the profile while the first held it")
	close(gate.release)

	var r1, r2 opResult
	for _, wait := range []struct {
		ch  chan opResult
		dst *opResult
	}{{firstDone, &r1}, {secondDone, &r2}} {
		select {
		case *wait.dst = <-wait.ch:
		case <-time.After(5 * time.Second):
			t.Fatal("operations for one owner did not both finish")
		}
	}
	return r1, r2
}

func TestConcurrent_LockThenAssignSerializes(t *testing.T) {
	ctx := context.Background()
	f, gate := newGatedFixture(t)
	f.createProfile(t, ownerA, "al")
	_, err := f.svc.AssignCharacter(ctx, access.NewCall(ownerA), ownerA, 1)
	require.NoError(t, err)
	other := characterBeforeProfile(t, ownerA, 1)

	r1, r2 := runInterleaved(t, gate,
		func() opResult {
			_, err := f.svc.LockCurrentCharacter(ctx, access.NewCall(ownerA), ownerA)
			return opResult{err: err}
		},
		func() opResult {
			res, err := f.svc.AssignCharacter(ctx, access.NewCall(ownerA), ownerA, other)
			return opResult{assign: res, err: err}
		})

	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Equal(t, game.OutcomeCooldown, r2.assign.Outcome)

	assert.Equal(t, uint8(1), f.profileSnapshot(t, ownerA).CurrentCharacterID)
	lock := f.lockSnapshot(t, ownerA, 1)
	assert.True(t, lock.Locked)
	assert.Equal(t, uint64(t0.Unix()), lock.LastLockedTime)

	_, err = f.svc.GetCharacterLock(ctx, ownerA, other)
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestConcurrent_AssignsForOneOwnerSerialize(t *testing.T) {
	ctx := context.Background()
	f, gate := newGatedFixture(t)
	f.createProfile(t, ownerA, "al")
	_, err := f.svc.AssignCharacter(ctx, access.NewCall(ownerA), ownerA, 1)
	require.NoError(t, err)
	other := characterBeforeProfile(t, ownerA, 1)

	r1, r2 := runInterleaved(t, gate,
		func() opResult {
			res, err := f.svc.AssignCharacter(ctx, access.NewCall(ownerA), ownerA, other)
			return opResult{assign: res, err: err}
		},
		func() opResult {
			res, err := f.svc.AssignCharacter(ctx, access.NewCall(ownerA), ownerA, 1)
			return opResult{assign: res, err: err}
		})

	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.Equal(t, game.OutcomeAssigned, r1.assign.Outcome)
	assert.Equal(t, other, r1.assign.Profile.CurrentCharacterID)
	assert.Equal(t, game.OutcomeAssigned, r2.assign.Outcome)

	assert.Equal(t, uint8(1), f.profileSnapshot(t, ownerA).CurrentCharacterID)
	assert.Equal(t, other, f.lockSnapshot(t, ownerA, other).MintID)
	assert.Equal(t, uint8(1), f.lockSnapshot(t, ownerA, 1).MintID)
}

func TestConcurrent_OwnersDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	f, gate := newGatedFixture(t)
	f.createProfile(t, ownerA, "al")
	f.createProfile(t, ownerB, "bo")

	gate.arm()
	firstDone := make(chan error, 1)
	go func() {
		_, err := f.svc.AssignCharacter(ctx, access.NewCall(ownerA), ownerA, 1)
		firstDone <- err
	}()
	<-gate.entered

	_, err := f.svc.AssignCharacter(ctx, access.NewCall(ownerB), ownerB, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), f.profileSnapshot(t, ownerB).CurrentCharacterID)

	close(gate.release)
	require.NoError(t, <-firstDone)
}
