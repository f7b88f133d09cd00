// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/ledger"
)

// Outcome names the transition an AssignCharacter call made.
type Outcome string

// Assignment outcomes.
const (
	// OutcomeAssigned: the requested character became active.
	OutcomeAssigned Outcome = "assigned"
	// OutcomeUnlocked: an expired lock was released and its stored
	// character re-activated. The requested id was not assigned.
	OutcomeUnlocked Outcome = "unlocked"
	// OutcomeCooldown: a lock is still in force and nothing changed.
	OutcomeCooldown Outcome = "cooldown"
)

// OutcomeLocked is recorded when a character is locked.
const OutcomeLocked Outcome = "locked"

// Transfer directions.
const (
	DirectionDeposit  = "deposit"
	DirectionWithdraw = "withdraw"
)

// AssignResult describes the effect of AssignCharacter.
type AssignResult struct {
	Outcome Outcome
	Profile *Profile
	Lock    *CharacterLock
	// Remaining is how long the cooldown still runs. Set for OutcomeCooldown.
	Remaining time.Duration
}

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Profiles   ProfileRepository
	Characters CharacterRepository
	Transactor Transactor
	Custody    Custody
	ProgramID  ledger.Pubkey
	Clock      ledger.Clock // defaults to ledger.SystemClock
	Recorder   Recorder     // optional
	Logger     *slog.Logger // defaults to slog.Default()
}

// Service executes game operations. Every mutating operation authorizes the
// caller before it reads or writes any record.
//
// A mutating operation first takes its owner's profile address alone and
// then, in one nested call, every other record it touches. The profile
// serializes an owner's requests, so records are always acquired profile
// first.
type Service struct {
	profiles   ProfileRepository
	characters CharacterRepository
	tx         Transactor
	custody    Custody
	program    ledger.Pubkey
	clock      ledger.Clock
	recorder   Recorder
	logger     *slog.Logger
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Profiles == nil:
		return nil, oops.Code("INVALID_CONFIG").Errorf("profile repository is required")
	case cfg.Characters == nil:
		return nil, oops.Code("INVALID_CONFIG").Errorf("character repository is required")
	case cfg.Transactor == nil:
		return nil, oops.Code("INVALID_CONFIG").Errorf("transactor is required")
	case cfg.Custody == nil:
		return nil, oops.Code("INVALID_CONFIG").Errorf("custody is required")
	case cfg.ProgramID.IsZero():
		return nil, oops.Code("INVALID_CONFIG").Errorf("program id is required")
	}
	s := &Service{
		profiles:   cfg.Profiles,
		characters: cfg.Characters,
		tx:         cfg.Transactor,
		custody:    cfg.Custody,
		program:    cfg.ProgramID,
		clock:      cfg.Clock,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
	}
	if s.clock == nil {
		s.clock = ledger.SystemClock{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// ProgramID returns the program records are derived under.
func (s *Service) ProgramID() ledger.Pubkey {
	return s.program
}

// CreateProfile creates the profile of the call's signer. A session cannot
// create a profile on an owner's behalf.
func (s *Service) CreateProfile(ctx context.Context, call access.Call, username string) (*Profile, error) {
	owner := call.Signer
	addr, err := ProfileAddress(s.program, owner)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		Address:   addr,
		Authority: owner,
		Username:  username,
		Space:     ProfileSpace(username),
	}
	err = s.tx.InTransaction(ctx, []ledger.Pubkey{addr}, func(ctx context.Context) error {
		return s.profiles.Create(ctx, p)
	})
	if err != nil {
		return nil, oops.With("owner", owner.String()).Wrapf(err, "create profile")
	}

	s.logger.InfoContext(ctx, "profile created",
		"owner", owner.String(),
		"address", addr.String(),
		"space", p.Space)
	return p, nil
}

// RenameProfile changes owner's username and resizes the record to fit.
func (s *Service) RenameProfile(ctx context.Context, call access.Call, owner ledger.Pubkey, username string) (*Profile, error) {
	if err := access.AuthorizeCall(owner, call); err != nil {
		return nil, err
	}
	addr, err := ProfileAddress(s.program, owner)
	if err != nil {
		return nil, err
	}

	var (
		p        *Profile
		oldSpace int
	)
	err = s.tx.InTransaction(ctx, []ledger.Pubkey{addr}, func(ctx context.Context) error {
		var getErr error
		p, getErr = s.profiles.Get(ctx, addr)
		if getErr != nil {
			return getErr
		}
		oldSpace = p.Space
		p.Username = username
		p.Space = ProfileSpace(username)
		return s.profiles.Update(ctx, p)
	})
	if err != nil {
		return nil, oops.With("owner", owner.String()).Wrapf(err, "rename profile")
	}

	s.logger.InfoContext(ctx, "profile renamed",
		"owner", owner.String(),
		"payer", call.Signer.String(),
		"old_space", oldSpace,
		"new_space", p.Space)
	return p, nil
}

// GetProfile returns owner's profile.
func (s *Service) GetProfile(ctx context.Context, owner ledger.Pubkey) (*Profile, error) {
	addr, err := ProfileAddress(s.program, owner)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, addr)
	if err != nil {
		return nil, oops.With("owner", owner.String()).Wrapf(err, "get profile")
	}
	return p, nil
}

// GetCharacterLock returns the lock record of owner's character.
func (s *Service) GetCharacterLock(ctx context.Context, owner ledger.Pubkey, characterID uint8) (*CharacterLock, error) {
	addr, err := CharacterAddress(s.program, owner, characterID)
	if err != nil {
		return nil, err
	}
	l, err := s.characters.Get(ctx, addr)
	if err != nil {
		return nil, oops.With("owner", owner.String()).With("character_id", characterID).Wrapf(err, "get character lock")
	}
	return l, nil
}

// AssignCharacter makes characterID owner's active character, subject to
// the lock on the current character.
//
// The governing lock is the current character's record when it is locked
// and differs from the request, otherwise the requested character's record.
// An unlocked governing record assigns characterID. A locked one whose
// cooldown has passed is released and its stored character re-activated;
// characterID is not assigned by that call. A lock still in its cooldown
// leaves everything unchanged and returns OutcomeCooldown with a nil error.
func (s *Service) AssignCharacter(ctx context.Context, call access.Call, owner ledger.Pubkey, characterID uint8) (*AssignResult, error) {
	if characterID == 0 {
		return nil, oops.Code("INVALID_CHARACTER_ID").
			With("character_id", characterID).
			Wrap(ErrInvalidCharacter)
	}
	if err := access.AuthorizeCall(owner, call); err != nil {
		return nil, err
	}
	profileAddr, err := ProfileAddress(s.program, owner)
	if err != nil {
		return nil, err
	}
	requestedAddr, err := CharacterAddress(s.program, owner, characterID)
	if err != nil {
		return nil, err
	}

	var result *AssignResult
	err = s.tx.InTransaction(ctx, []ledger.Pubkey{profileAddr}, func(ctx context.Context) error {
		p, err := s.profiles.Get(ctx, profileAddr)
		if err != nil {
			return err
		}
		locked := []ledger.Pubkey{requestedAddr}
		var currentAddr ledger.Pubkey
		if p.CurrentCharacterID != 0 && p.CurrentCharacterID != characterID {
			if currentAddr, err = CharacterAddress(s.program, owner, p.CurrentCharacterID); err != nil {
				return err
			}
			locked = append(locked, currentAddr)
		}

		return s.tx.InTransaction(ctx, locked, func(ctx context.Context) error {
			lock, err := s.governingLock(ctx, p, currentAddr, requestedAddr)
			if err != nil {
				return err
			}

			now := ledger.UnixSeconds(s.clock)
			result = &AssignResult{Profile: p, Lock: lock}
			switch {
			case !lock.Locked:
				lock.MintID = characterID
				lock.Locked = false
				lock.LastLockedTime = 0
				p.CurrentCharacterID = characterID
				result.Outcome = OutcomeAssigned
			case lock.Expired(now):
				lock.Locked = false
				p.CurrentCharacterID = lock.MintID
				result.Outcome = OutcomeUnlocked
			default:
				result.Outcome = OutcomeCooldown
				result.Remaining = lock.Remaining(now)
				return nil
			}

			if err := s.characters.Save(ctx, lock); err != nil {
				return err
			}
			return s.profiles.Update(ctx, p)
		})
	})
	if err != nil {
		return nil, oops.With("owner", owner.String()).With("character_id", characterID).Wrapf(err, "assign character")
	}

	s.recorder.RecordLockTransition(string(result.Outcome))
	s.logger.InfoContext(ctx, "character assignment",
		"owner", owner.String(),
		"requested", characterID,
		"outcome", string(result.Outcome),
		"current", result.Profile.CurrentCharacterID,
		"remaining", result.Remaining)
	return result, nil
}

// governingLock resolves the record that decides an assignment. currentAddr
// is zero when the current character is unset or is the requested one. The
// caller holds both addresses.
func (s *Service) governingLock(ctx context.Context, p *Profile, currentAddr, requested ledger.Pubkey) (*CharacterLock, error) {
	if !currentAddr.IsZero() {
		current, err := s.characters.Get(ctx, currentAddr)
		switch {
		case err == nil && current.Locked:
			return current, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	lock, err := s.characters.Get(ctx, requested)
	if errors.Is(err, ErrNotFound) {
		return &CharacterLock{Address: requested, Authority: p.Authority}, nil
	}
	return lock, err
}

// LockCurrentCharacter locks owner's active character and restarts its
// cooldown, whether or not it was already locked.
func (s *Service) LockCurrentCharacter(ctx context.Context, call access.Call, owner ledger.Pubkey) (*CharacterLock, error) {
	if err := access.AuthorizeCall(owner, call); err != nil {
		return nil, err
	}
	profileAddr, err := ProfileAddress(s.program, owner)
	if err != nil {
		return nil, err
	}

	var lock *CharacterLock
	err = s.tx.InTransaction(ctx, []ledger.Pubkey{profileAddr}, func(ctx context.Context) error {
		p, err := s.profiles.Get(ctx, profileAddr)
		if err != nil {
			return err
		}
		addr, err := CharacterAddress(s.program, owner, p.CurrentCharacterID)
		if err != nil {
			return err
		}
		return s.tx.InTransaction(ctx, []ledger.Pubkey{addr}, func(ctx context.Context) error {
			var getErr error
			lock, getErr = s.characters.Get(ctx, addr)
			if getErr != nil {
				return getErr
			}
			lock.Locked = true
			lock.LastLockedTime = ledger.UnixSeconds(s.clock)
			return s.characters.Save(ctx, lock)
		})
	})
	if err != nil {
		return nil, oops.With("owner", owner.String()).Wrapf(err, "lock character")
	}

	s.recorder.RecordLockTransition(string(OutcomeLocked))
	s.logger.InfoContext(ctx, "character locked",
		"owner", owner.String(),
		"character_id", lock.MintID,
		"locked_at", lock.LastLockedTime)
	return lock, nil
}

// Deposit pays amount from owner's token account into the vault. The
// transfer is signed by owner, so a session call needs owner's co-signature.
func (s *Service) Deposit(ctx context.Context, call access.Call, owner ledger.Pubkey, amount uint64) error {
	return s.transfer(ctx, call, owner, amount, DirectionDeposit, func(ctx context.Context) error {
		return s.custody.Deposit(ctx, owner, amount, call.Signers)
	})
}

// Withdraw pays amount from the vault to owner's token account under the
// vault's program authority.
func (s *Service) Withdraw(ctx context.Context, call access.Call, owner ledger.Pubkey, amount uint64) error {
	return s.transfer(ctx, call, owner, amount, DirectionWithdraw, func(ctx context.Context) error {
		return s.custody.Withdraw(ctx, owner, amount)
	})
}

func (s *Service) transfer(ctx context.Context, call access.Call, owner ledger.Pubkey, amount uint64, direction string, move func(context.Context) error) error {
	if err := access.AuthorizeCall(owner, call); err != nil {
		return err
	}
	profileAddr, err := ProfileAddress(s.program, owner)
	if err != nil {
		return err
	}
	accounts, err := s.custody.Accounts(owner)
	if err != nil {
		return err
	}

	err = s.tx.InTransaction(ctx, []ledger.Pubkey{profileAddr}, func(ctx context.Context) error {
		if _, err := s.profiles.Get(ctx, profileAddr); err != nil {
			return err
		}
		return s.tx.InTransaction(ctx, accounts, move)
	})
	if err != nil {
		return oops.With("owner", owner.String()).With("amount", amount).Wrapf(err, "%s", direction)
	}

	s.recorder.RecordVaultTransfer(direction, amount)
	s.logger.InfoContext(ctx, "vault transfer",
		"direction", direction,
		"owner", owner.String(),
		"signer", call.Signer.String(),
		"amount", amount)
	return nil
}
