// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package game

import (
	"strconv"
	"time"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// LockinDuration is how long, in seconds, a locked character stays locked.
const LockinDuration = 1800

// CharacterLockSpace is the storage a character lock record occupies.
const CharacterLockSpace = discriminatorSize + 1 + 8 + 1

// CharacterLock records which character a player assigned and whether it is
// locked to them.
type CharacterLock struct {
	Address        ledger.Pubkey `json:"address"`
	Authority      ledger.Pubkey `json:"authority"`
	MintID         uint8         `json:"mint_id"`
	Locked         bool          `json:"locked"`
	LastLockedTime uint64        `json:"last_locked_time"`
}

// Elapsed returns the seconds since the lock was taken, as seen at now.
// It is negative when now precedes the lock time.
func (l *CharacterLock) Elapsed(now uint64) int64 {
	return int64(now) - int64(l.LastLockedTime) //nolint:gosec // timestamps fit in int64
}

// Expired reports whether the cooldown of a locked record has passed.
func (l *CharacterLock) Expired(now uint64) bool {
	return l.Elapsed(now) > LockinDuration
}

// Remaining returns how long until the lock expires.
func (l *CharacterLock) Remaining(now uint64) time.Duration {
	return time.Duration(LockinDuration+1-l.Elapsed(now)) * time.Second
}

// CharacterAddress derives the lock address of owner's character id.
func CharacterAddress(program, owner ledger.Pubkey, characterID uint8) (ledger.Pubkey, error) {
	seeds := [][]byte{[]byte(strconv.Itoa(int(characterID))), owner.Bytes()}
	addr, _, err := ledger.FindProgramAddress(seeds, program)
	if err != nil {
		return ledger.Pubkey{}, oops.Code("CHARACTER_ADDRESS_FAILED").
			With("owner", owner.String()).
			With("character_id", characterID).
			Wrap(err)
	}
	return addr, nil
}
