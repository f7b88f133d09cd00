// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package api serves the game operations as signed JSON over HTTP.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
	"github.com/soldungeons/dungeons/internal/token"
)

// Vault exposes the vault's public accounts.
type Vault interface {
	Authority() ledger.Pubkey
	VaultAccount() ledger.Pubkey
	Mint() ledger.Pubkey
	Balance(ctx context.Context) (uint64, error)
}

// Faucet grants development tokens to an owner.
type Faucet interface {
	Amount() uint64
	Fund(ctx context.Context, owner ledger.Pubkey) (*token.Account, error)
}

// RequestRecorder counts served requests.
type RequestRecorder interface {
	RecordRequest(operation, status string)
}

type nopRequestRecorder struct{}

func (nopRequestRecorder) RecordRequest(string, string) {}

// Config holds dependencies for Server.
type Config struct {
	Addr        string
	Service     *game.Service
	Vault       Vault
	Delegations access.DelegationRepository
	Clock       ledger.Clock    // defaults to ledger.SystemClock
	Metrics     RequestRecorder // optional
	Faucet      Faucet          // optional; mounts the faucet route when set
	Logger      *slog.Logger    // defaults to slog.Default()
}

// Server is the game HTTP API.
type Server struct {
	addr        string
	service     *game.Service
	vault       Vault
	delegations access.DelegationRepository
	clock       ledger.Clock
	metrics     RequestRecorder
	faucet      Faucet
	logger      *slog.Logger
	router      *mux.Router

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a Server and its routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("game service is required")
	}
	if cfg.Vault == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("vault is required")
	}
	if cfg.Delegations == nil {
		return nil, oops.Code("INVALID_CONFIG").Errorf("delegation repository is required")
	}
	s := &Server{
		addr:        cfg.Addr,
		service:     cfg.Service,
		vault:       cfg.Vault,
		delegations: cfg.Delegations,
		clock:       cfg.Clock,
		metrics:     cfg.Metrics,
		faucet:      cfg.Faucet,
		logger:      cfg.Logger,
	}
	if s.clock == nil {
		s.clock = ledger.SystemClock{}
	}
	if s.metrics == nil {
		s.metrics = nopRequestRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.trace, s.observe)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet).Name("healthz")
	r.HandleFunc("/v1/vault", s.handleVault).Methods(http.MethodGet).Name("vault")

	r.HandleFunc("/v1/profiles", s.signed(s.handleCreateProfile)).Methods(http.MethodPost).Name("create_profile")

	v1 := r.PathPrefix("/v1/profiles").Subrouter()
	v1.HandleFunc("/{owner}", s.handleGetProfile).Methods(http.MethodGet).Name("get_profile")
	v1.HandleFunc("/{owner}/username", s.signed(s.handleRenameProfile)).Methods(http.MethodPut).Name("rename_profile")
	v1.HandleFunc("/{owner}/character", s.signed(s.handleAssignCharacter)).Methods(http.MethodPost).Name("assign_character")
	v1.HandleFunc("/{owner}/character/lock", s.signed(s.handleLockCharacter)).Methods(http.MethodPost).Name("lock_character")
	v1.HandleFunc("/{owner}/characters/{id}", s.handleGetCharacter).Methods(http.MethodGet).Name("get_character")
	v1.HandleFunc("/{owner}/deposit", s.signed(s.handleDeposit)).Methods(http.MethodPost).Name("deposit")
	v1.HandleFunc("/{owner}/reduce-token", s.signed(s.handleDeposit)).Methods(http.MethodPost).Name("reduce_token")
	v1.HandleFunc("/{owner}/withdraw", s.signed(s.handleWithdraw)).Methods(http.MethodPost).Name("withdraw")
	v1.HandleFunc("/{owner}/add-token", s.signed(s.handleWithdraw)).Methods(http.MethodPost).Name("add_token")
	if s.faucet != nil {
		v1.HandleFunc("/{owner}/faucet", s.signed(s.handleFaucet)).Methods(http.MethodPost).Name("faucet")
	}
	return r
}

// Start listens and serves in the background. The returned channel carries
// a serve failure and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("API_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests and shuts the server down. Stopping a
// stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown api server").Wrap(err)
		}
	}
	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
