// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/soldungeons/dungeons/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the dungeons CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dungeons",
		Short: "SolDungeons - player profiles, character locks and the token vault",
		Long: `dungeons runs the SolDungeons game service: player profiles, the
character lock-in state machine and the program-owned token vault, served
as a signed JSON API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: ./"+config.DefaultPath+" if present)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAddressCmd())
	cmd.AddCommand(NewKeygenCmd())
	cmd.AddCommand(NewTokenCmd())

	return cmd
}

// addProgramFlag registers --program-id on fs.
func addProgramFlag(fs *pflag.FlagSet) {
	fs.String("program-id", "", "program id records are derived under (base58)")
}

// addDatabaseFlag registers --database-url on fs.
func addDatabaseFlag(fs *pflag.FlagSet) {
	fs.String("database-url", "", "PostgreSQL URL")
}

// loadConfig reads the configuration with cmd's flags applied and validates it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
