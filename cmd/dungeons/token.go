// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package main

import (
	"context"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/soldungeons/dungeons/internal/config"
	"github.com/soldungeons/dungeons/internal/ledger"
)

// tokenBackendFactory opens the persistent backend for token commands.
var tokenBackendFactory = func(ctx context.Context, cfg config.Config) (*Backend, error) {
	if cfg.DatabaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	return newBackend(ctx, cfg)
}

// NewTokenCmd creates the token command group.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Administer game token accounts",
	}
	addDatabaseFlag(cmd.PersistentFlags())

	mint := &cobra.Command{
		Use:   "mint <owner> <amount>",
		Short: "Open owner's game token account and mint amount into it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			owner, err := ledger.ParsePubkey(args[0])
			if err != nil {
				return oops.Code("INVALID_OWNER").Wrap(err)
			}
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return oops.Code("INVALID_AMOUNT").With("value", args[1]).Wrap(err)
			}

			ctx := cmd.Context()
			backend, err := tokenBackendFactory(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			acct, err := backend.Tokens.OpenAccount(ctx, owner, cfg.Mint())
			if err != nil {
				return err
			}
			if err := backend.Tokens.MintTo(ctx, acct.Address, amount); err != nil {
				return err
			}
			funded, err := backend.Tokens.Account(ctx, acct.Address)
			if err != nil {
				return err
			}
			cmd.Println(acct.Address.String() + " balance " + strconv.FormatUint(funded.Amount, 10))
			return nil
		},
	}
	mint.Flags().String("game-mint", "", "mint of the game token (base58)")
	cmd.AddCommand(mint)
	return cmd
}
