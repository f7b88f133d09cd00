// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package config loads service configuration. Sources apply in order:
// built-in defaults, the YAML file, DUNGEONS_* environment variables, then
// command-line flags the user set explicitly.
package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "DUNGEONS_"

// DefaultPath is the config file read when no path is given. It may be absent.
const DefaultPath = "dungeons.yaml"

// Config is the service configuration.
type Config struct {
	ListenAddr  string `koanf:"listen_addr" env:"LISTEN_ADDR" json:"listen_addr,omitempty" jsonschema:"description=API listen address (host:port)"`
	MetricsAddr string `koanf:"metrics_addr" env:"METRICS_ADDR" json:"metrics_addr,omitempty" jsonschema:"description=Metrics and health listen address; empty disables it"`
	DatabaseURL string `koanf:"database_url" env:"DATABASE_URL" json:"database_url,omitempty" jsonschema:"description=PostgreSQL URL; empty keeps state in memory"`
	ProgramID   string `koanf:"program_id" env:"PROGRAM_ID" json:"program_id,omitempty" jsonschema:"description=Program id records are derived under (base58)"`
	GameMint    string `koanf:"game_mint" env:"GAME_MINT" json:"game_mint,omitempty" jsonschema:"description=Mint of the token held in the vault (base58)"`
	LogFormat   string `koanf:"log_format" env:"LOG_FORMAT" json:"log_format,omitempty" jsonschema:"enum=json,enum=text"`
	LogLevel    string `koanf:"log_level" env:"LOG_LEVEL" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	DevFaucet   uint64 `koanf:"dev_faucet" env:"DEV_FAUCET" json:"dev_faucet,omitempty" jsonschema:"description=Tokens granted per faucet request; 0 disables the faucet route. Development only"`
}

// DefaultGameMint is the development mint used when none is configured.
var DefaultGameMint = ledger.MustParsePubkey("So11111111111111111111111111111111111111112")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:  "127.0.0.1:8080",
		MetricsAddr: "127.0.0.1:9100",
		ProgramID:   game.DefaultProgramID.String(),
		GameMint:    DefaultGameMint.String(),
		LogFormat:   "json",
		LogLevel:    "info",
	}
}

// legacyEnv holds variables read without the prefix.
type legacyEnv struct {
	DatabaseURL string `env:"DATABASE_URL"`
}

// Load builds the configuration from path, the environment and flags. An
// empty path reads DefaultPath if it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := loadFile(path, explicit, &cfg); err != nil {
		return Config{}, err
	}

	var legacy legacyEnv
	if err := env.Parse(&legacy); err != nil {
		return Config{}, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}
	if legacy.DatabaseURL != "" {
		cfg.DatabaseURL = legacy.DatabaseURL
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if flags != nil {
		if err := loadFlags(flags, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func loadFile(path string, required bool, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateSchema(data); err != nil {
		return oops.With("path", path).Wrap(err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
	}
	return nil
}

// loadFlags applies the flags the user changed. Flag names use dashes where
// config keys use underscores.
func loadFlags(flags *pflag.FlagSet, cfg *Config) error {
	k := koanf.New(".")
	provider := posflag.ProviderWithFlag(flags, ".", nil, func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}
	return nil
}

// Validate checks addresses, keys and log settings.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return oops.Code("INVALID_CONFIG").With("field", "listen_addr").Wrap(err)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return oops.Code("INVALID_CONFIG").With("field", "metrics_addr").Wrap(err)
		}
	}
	if _, err := ledger.ParsePubkey(c.ProgramID); err != nil {
		return oops.Code("INVALID_CONFIG").With("field", "program_id").Errorf("program_id: %v", err)
	}
	if _, err := ledger.ParsePubkey(c.GameMint); err != nil {
		return oops.Code("INVALID_CONFIG").With("field", "game_mint").Errorf("game_mint: %v", err)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("INVALID_CONFIG").With("field", "log_format").
			Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("INVALID_CONFIG").With("field", "log_level").
			Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// Program returns the parsed program id. Call Validate first.
func (c Config) Program() ledger.Pubkey {
	k, _ := ledger.ParsePubkey(c.ProgramID) //nolint:errcheck // checked by Validate
	return k
}

// Mint returns the parsed game mint. Call Validate first.
func (c Config) Mint() ledger.Pubkey {
	k, _ := ledger.ParsePubkey(c.GameMint) //nolint:errcheck // checked by Validate
	return k
}
