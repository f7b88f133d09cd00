// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

//go:build integration

package game_test

import (
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/pkg/errutil"
)

var _ = Describe("Profiles", Ordered, func() {
	owner := ledger.Pubkey{0x01, 0x01}

	It("creates, reads and resizes a profile", func() {
		created, err := env.Service.CreateProfile(env.ctx, access.NewCall(owner), "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Space).To(Equal(game.ProfileSpace("alice")))

		got, err := env.Service.GetProfile(env.ctx, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Username).To(Equal("alice"))
		Expect(got.CurrentCharacterID).To(BeZero())

		renamed, err := env.Service.RenameProfile(env.ctx, access.NewCall(owner), owner, "al")
		Expect(err).NotTo(HaveOccurred())
		Expect(renamed.Space).To(Equal(game.ProfileSpace("al")))
	})

	It("rejects a second profile for the same owner", func() {
		_, err := env.Service.CreateProfile(env.ctx, access.NewCall(owner), "again")
		Expect(errutil.Code(err)).To(Equal("PROFILE_ALREADY_EXISTS"))
	})

	It("rejects growth above the per-call limit", func() {
		name := strings.Repeat("x", game.MaxReallocIncrease+10)
		_, err := env.Service.RenameProfile(env.ctx, access.NewCall(owner), owner, name)
		Expect(errutil.Code(err)).To(Equal("REALLOC_TOO_LARGE"))

		got, err := env.Service.GetProfile(env.ctx, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Username).To(Equal("al"))
	})

	It("rejects a stranger", func() {
		_, err := env.Service.RenameProfile(env.ctx, access.NewCall(ledger.Pubkey{0x99}), owner, "mallory")
		Expect(errutil.Code(err)).To(Equal("WRONG_AUTHORITY"))
	})
})

var _ = Describe("Character locks", Ordered, func() {
	owner := ledger.Pubkey{0x02, 0x02}
	call := access.NewCall(owner)

	BeforeAll(func() {
		_, err := env.Service.CreateProfile(env.ctx, call, "bob")
		Expect(err).NotTo(HaveOccurred())
	})

	It("assigns, locks, holds the cooldown and unlocks", func() {
		res, err := env.Service.AssignCharacter(env.ctx, call, owner, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(game.OutcomeAssigned))

		lock, err := env.Service.LockCurrentCharacter(env.ctx, call, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(lock.Locked).To(BeTrue())
		Expect(lock.LastLockedTime).To(Equal(ledger.UnixSeconds(env.Clock)))

		env.Clock.Advance(game.LockinDuration * time.Second)
		res, err = env.Service.AssignCharacter(env.ctx, call, owner, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(game.OutcomeCooldown))
		Expect(res.Remaining).To(Equal(time.Second))

		env.Clock.Advance(time.Second)
		res, err = env.Service.AssignCharacter(env.ctx, call, owner, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(game.OutcomeUnlocked))
		Expect(res.Profile.CurrentCharacterID).To(Equal(uint8(1)))

		res, err = env.Service.AssignCharacter(env.ctx, call, owner, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(game.OutcomeAssigned))
		Expect(res.Profile.CurrentCharacterID).To(Equal(uint8(2)))

		stored, err := env.Service.GetCharacterLock(env.ctx, owner, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.MintID).To(Equal(uint8(2)))
		Expect(stored.Locked).To(BeFalse())
	})

	It("serializes concurrent assignments for one owner", func() {
		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = env.Service.AssignCharacter(env.ctx, call, owner, uint8(3+i%2))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}

		p, err := env.Service.GetProfile(env.ctx, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.CurrentCharacterID).To(BeElementOf(uint8(3), uint8(4)))
	})
})

var _ = Describe("Sessions", func() {
	owner := ledger.Pubkey{0x03, 0x03}
	delegate := ledger.Pubkey{0x03, 0xD0}
	session := ledger.Pubkey{0x03, 0x5E}

	BeforeEach(func() {
		_, err := env.pool.Exec(env.ctx,
			`INSERT INTO session_tokens (address, session_signer, authority, target_program, valid_until)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (address) DO NOTHING`,
			session.String(), delegate.String(), owner.String(), game.DefaultProgramID.String(), t0.Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
	})

	It("lets a delegate act for the owner", func() {
		_, err := env.Service.CreateProfile(env.ctx, access.NewCall(owner), "carol")
		Expect(err).NotTo(HaveOccurred())

		d, err := env.Delegations.Get(env.ctx, session)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.CheckValidity(t0, game.DefaultProgramID)).To(Succeed())

		p, err := env.Service.RenameProfile(env.ctx, access.NewCall(delegate).WithSession(d), owner, "carol2")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Username).To(Equal("carol2"))
	})

	It("reports a missing session", func() {
		_, err := env.Delegations.Get(env.ctx, ledger.Pubkey{0x03, 0x00})
		Expect(errutil.Code(err)).To(Equal("SESSION_NOT_FOUND"))
	})
})

var _ = Describe("Vault custody", Ordered, func() {
	owner := ledger.Pubkey{0x04, 0x04}
	call := access.NewCall(owner)
	var userAccount ledger.Pubkey

	BeforeAll(func() {
		_, err := env.Service.CreateProfile(env.ctx, call, "dave")
		Expect(err).NotTo(HaveOccurred())
		userAccount = env.fund(owner, 100)
	})

	It("moves tokens in and out of the vault", func() {
		before := env.balance(env.Custody.VaultAccount())

		Expect(env.Service.Deposit(env.ctx, call, owner, 60)).To(Succeed())
		Expect(env.balance(userAccount)).To(Equal(uint64(40)))
		Expect(env.balance(env.Custody.VaultAccount())).To(Equal(before + 60))

		Expect(env.Service.Withdraw(env.ctx, call, owner, 25)).To(Succeed())
		Expect(env.balance(userAccount)).To(Equal(uint64(65)))
		Expect(env.balance(env.Custody.VaultAccount())).To(Equal(before + 35))
	})

	It("leaves balances unchanged when funds are short", func() {
		err := env.Service.Deposit(env.ctx, call, owner, 1_000)
		Expect(errutil.Code(err)).To(Equal("INSUFFICIENT_FUNDS"))
		Expect(env.balance(userAccount)).To(Equal(uint64(65)))
	})

	It("requires the owner's signature on deposits", func() {
		err := env.Custody.Deposit(env.ctx, owner, 1, ledger.NewSignerSet(ledger.Pubkey{0x77}))
		Expect(errutil.Code(err)).To(Equal("MISSING_SIGNATURE"))
	})
})
