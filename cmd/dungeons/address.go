// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/internal/token"
	"github.com/soldungeons/dungeons/internal/vault"
)

// NewAddressCmd creates the address command group.
func NewAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Derive record and account addresses",
	}
	addProgramFlag(cmd.PersistentFlags())

	cmd.AddCommand(&cobra.Command{
		Use:   "profile <owner>",
		Short: "Print the profile address of owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, owner, err := programAndOwner(cmd, args[0])
			if err != nil {
				return err
			}
			addr, err := game.ProfileAddress(program, owner)
			if err != nil {
				return err
			}
			cmd.Println(addr.String())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "character <owner> <id>",
		Short: "Print the character lock address of owner's character id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, owner, err := programAndOwner(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return oops.Code("INVALID_CHARACTER_ID").With("value", args[1]).Wrap(err)
			}
			addr, err := game.CharacterAddress(program, owner, uint8(id))
			if err != nil {
				return err
			}
			cmd.Println(addr.String())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "vault",
		Short: "Print the vault authority and its token account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			authority, bump, err := vault.Address(cfg.Program())
			if err != nil {
				return err
			}
			account, err := token.AssociatedAddress(authority, cfg.Mint())
			if err != nil {
				return err
			}
			cmd.Println("authority: " + authority.String())
			cmd.Println("bump:      " + strconv.Itoa(int(bump)))
			cmd.Println("account:   " + account.String())
			return nil
		},
	})
	return cmd
}

func programAndOwner(cmd *cobra.Command, rawOwner string) (ledger.Pubkey, ledger.Pubkey, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return ledger.Pubkey{}, ledger.Pubkey{}, err
	}
	owner, err := ledger.ParsePubkey(rawOwner)
	if err != nil {
		return ledger.Pubkey{}, ledger.Pubkey{}, oops.Code("INVALID_OWNER").Wrap(err)
	}
	return cfg.Program(), owner, nil
}
