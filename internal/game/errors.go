// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package game

import (
	"errors"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

// Storage errors. Repositories wrap these with a record-specific code.
var (
	ErrNotFound         = errors.New("record not found")
	ErrAlreadyExists    = errors.New("record already exists")
	ErrRecordTooLarge   = errors.New("record exceeds maximum size")
	ErrReallocTooLarge  = errors.New("record grew more than allowed in one call")
	ErrInvalidCharacter = errors.New("invalid character id")
)

// ProfileNotFound reports a missing profile.
func ProfileNotFound(address ledger.Pubkey) error {
	return oops.Code("PROFILE_NOT_FOUND").With("address", address.String()).Wrap(ErrNotFound)
}

// ProfileExists reports an address collision on profile creation.
func ProfileExists(address ledger.Pubkey) error {
	return oops.Code("PROFILE_ALREADY_EXISTS").With("address", address.String()).Wrap(ErrAlreadyExists)
}

// CharacterNotFound reports a missing character lock.
func CharacterNotFound(address ledger.Pubkey) error {
	return oops.Code("CHARACTER_NOT_FOUND").With("address", address.String()).Wrap(ErrNotFound)
}

// CheckSpace rejects a record allocation above MaxRecordSize.
func CheckSpace(space int) error {
	if space > MaxRecordSize {
		return oops.Code("RECORD_TOO_LARGE").
			With("space", space).
			With("max", MaxRecordSize).
			Wrap(ErrRecordTooLarge)
	}
	return nil
}

// CheckResize rejects resizing a record from oldSpace to newSpace when the
// result is too large or grows by more than MaxReallocIncrease.
func CheckResize(oldSpace, newSpace int) error {
	if err := CheckSpace(newSpace); err != nil {
		return err
	}
	if newSpace-oldSpace > MaxReallocIncrease {
		return oops.Code("REALLOC_TOO_LARGE").
			With("old_space", oldSpace).
			With("new_space", newSpace).
			With("max_increase", MaxReallocIncrease).
			Wrap(ErrReallocTooLarge)
	}
	return nil
}
