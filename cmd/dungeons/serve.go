// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/soldungeons/dungeons/internal/api"
	"github.com/soldungeons/dungeons/internal/config"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/logging"
	"github.com/soldungeons/dungeons/internal/observability"
	"github.com/soldungeons/dungeons/internal/token"
	"github.com/soldungeons/dungeons/internal/vault"
)

const shutdownTimeout = 5 * time.Second

// ServeDeps contains injectable dependencies for the serve command.
// Nil fields use their default implementations.
type ServeDeps struct {
	// BackendFactory opens storage for cfg. Default: newBackend.
	BackendFactory func(ctx context.Context, cfg config.Config) (*Backend, error)

	// OnReady is called with the API address once both servers listen.
	OnReady func(apiAddr string)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game API",
		Long: `Run the signed JSON API together with the metrics and health
server. State is kept in PostgreSQL when a database URL is configured and
in memory otherwise.

Player token accounts are funded outside the service. For local work,
--dev-faucet N mounts POST /v1/profiles/{owner}/faucet, which grants N
tokens of the game mint per signed request. With the in-memory store this is
the only way to fund accounts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	fs := cmd.Flags()
	fs.String("listen-addr", "", "API listen address")
	fs.String("metrics-addr", "", "metrics/health HTTP address")
	fs.String("game-mint", "", "mint of the vault token (base58)")
	fs.String("log-format", "", "log format (json or text)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Uint64("dev-faucet", 0, "tokens granted per faucet request (0 disables)")
	addDatabaseFlag(fs)
	addProgramFlag(fs)

	return cmd
}

// runServeWithDeps runs the service until a signal arrives, ctx ends or a
// server fails.
func runServeWithDeps(ctx context.Context, cfg config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.BackendFactory == nil {
		deps.BackendFactory = newBackend
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: "dungeons",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	backend, err := deps.BackendFactory(ctx, cfg)
	if err != nil {
		return oops.With("operation", "open storage").Wrap(err)
	}
	defer backend.Close()

	custody, err := vault.New(backend.Tokens, cfg.Program(), cfg.Mint())
	if err != nil {
		return err
	}
	if _, err := backend.Tokens.OpenAccount(ctx, custody.Authority(), custody.Mint()); err != nil {
		return oops.With("operation", "open vault account").Wrap(err)
	}

	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Second)
			defer pingCancel()
			return backend.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()
	}

	svcCfg := game.ServiceConfig{
		Profiles:   backend.Profiles,
		Characters: backend.Characters,
		Transactor: backend.Transactor,
		Custody:    custody,
		ProgramID:  cfg.Program(),
		Logger:     logger,
	}
	apiCfg := api.Config{
		Addr:        cfg.ListenAddr,
		Vault:       custody,
		Delegations: backend.Delegations,
		Logger:      logger,
	}
	if metrics != nil {
		svcCfg.Recorder = metrics
		apiCfg.Metrics = metrics
	}
	if cfg.DevFaucet > 0 {
		faucet, err := token.NewFaucet(backend.Tokens, custody.Mint(), cfg.DevFaucet)
		if err != nil {
			return err
		}
		apiCfg.Faucet = faucet
		logger.Warn("development faucet enabled", "amount", cfg.DevFaucet)
	}
	svc, err := game.NewService(svcCfg)
	if err != nil {
		return err
	}
	apiCfg.Service = svc
	apiServer, err := api.NewServer(apiCfg)
	if err != nil {
		return err
	}

	if obsServer != nil {
		obsErr, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErr, "observability")
		defer stopServer(obsServer, "observability")
	}

	apiErr, err := apiServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErr, "api")
	defer stopServer(apiServer, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("dungeons serving on " + apiServer.Addr())
	logger.Info("service ready",
		"api_addr", apiServer.Addr(),
		"program_id", cfg.ProgramID,
		"vault_authority", custody.Authority().String(),
		"vault_account", custody.VaultAccount().String())
	if deps.OnReady != nil {
		deps.OnReady(apiServer.Addr())
	}

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}
	return nil
}

type stopper interface {
	Stop(ctx context.Context) error
}

func stopServer(s stopper, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports a failure.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
