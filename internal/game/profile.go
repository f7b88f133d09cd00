// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package game

import (
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// DefaultProgramID is the program id records are derived under unless
// configured otherwise.
var DefaultProgramID = ledger.MustParsePubkey("CW7thTzLfzZop6TtHrD4FgjcJzxNMiscHRR9XrdW4T14")

// PlayerSeed prefixes the seeds of every profile address.
const PlayerSeed = "PLAYER"

// Platform storage limits.
const (
	// MaxRecordSize is the largest record the storage layer will hold.
	MaxRecordSize = 10 * 1024 * 1024
	// MaxReallocIncrease is how much one call may grow a record.
	MaxReallocIncrease = 10 * 1024
)

// Layout sizes of a serialized profile.
const (
	discriminatorSize = 8
	profileFixedSize  = discriminatorSize + ledger.PubkeyLength + 1 + 4
)

// Profile is the one record a player owns.
type Profile struct {
	Address            ledger.Pubkey `json:"address"`
	Authority          ledger.Pubkey `json:"authority"`
	Username           string        `json:"username"`
	CurrentCharacterID uint8         `json:"current_character_id"`
	Space              int           `json:"space"`
}

// ProfileSpace returns the storage a profile with the given username needs.
func ProfileSpace(username string) int {
	return profileFixedSize + len(username)
}

// ProfileAddress derives the address of owner's profile.
func ProfileAddress(program, owner ledger.Pubkey) (ledger.Pubkey, error) {
	addr, _, err := ledger.FindProgramAddress([][]byte{[]byte(PlayerSeed), owner.Bytes()}, program)
	if err != nil {
		return ledger.Pubkey{}, oops.Code("PROFILE_ADDRESS_FAILED").With("owner", owner.String()).Wrap(err)
	}
	return addr, nil
}
