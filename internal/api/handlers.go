// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/game"
	"github.com/soldungeons/dungeons/internal/ledger"
)

type usernameRequest struct {
	Username string `json:"username"`
}

type characterRequest struct {
	CharacterID uint8 `json:"character_id"`
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

type assignResponse struct {
	Outcome          game.Outcome        `json:"outcome"`
	Profile          *game.Profile       `json:"profile"`
	Lock             *game.CharacterLock `json:"lock"`
	RemainingSeconds int64               `json:"remaining_seconds,omitempty"`
}

type transferResponse struct {
	Owner     ledger.Pubkey `json:"owner"`
	Direction string        `json:"direction"`
	Amount    uint64        `json:"amount"`
}

type faucetResponse struct {
	Account ledger.Pubkey `json:"account"`
	Granted uint64        `json:"granted"`
	Balance uint64        `json:"balance"`
}

type vaultResponse struct {
	Authority ledger.Pubkey `json:"authority"`
	Account   ledger.Pubkey `json:"account"`
	Mint      ledger.Pubkey `json:"mint"`
	Balance   uint64        `json:"balance"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may disconnect
	w.Write([]byte("ok\n"))
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return oops.Code("INVALID_REQUEST_BODY").Wrap(err)
	}
	return nil
}

func ownerVar(r *http.Request) (ledger.Pubkey, error) {
	owner, err := ledger.ParsePubkey(mux.Vars(r)["owner"])
	if err != nil {
		return ledger.Pubkey{}, oops.Code("INVALID_OWNER").Wrap(err)
	}
	return owner, nil
}

// callFrom returns the identity stored by signed.
func callFrom(r *http.Request) access.Call {
	call, _ := access.CallFromContext(r.Context())
	return call
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.service.CreateProfile(r.Context(), callFrom(r), req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.service.GetProfile(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRenameProfile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req usernameRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.service.RenameProfile(r.Context(), callFrom(r), owner, req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAssignCharacter(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req characterRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.service.AssignCharacter(r.Context(), callFrom(r), owner, req.CharacterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{
		Outcome:          res.Outcome,
		Profile:          res.Profile,
		Lock:             res.Lock,
		RemainingSeconds: int64(res.Remaining.Seconds()),
	})
}

func (s *Server) handleLockCharacter(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lock, err := s.service.LockCurrentCharacter(r.Context(), callFrom(r), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lock)
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 8)
	if err != nil {
		s.writeError(w, r, oops.Code("INVALID_CHARACTER_ID").Wrap(err))
		return
	}
	lock, err := s.service.GetCharacterLock(r.Context(), owner, uint8(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lock)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, game.DirectionDeposit, s.service.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, game.DirectionWithdraw, s.service.Withdraw)
}

type transferFunc func(ctx context.Context, call access.Call, owner ledger.Pubkey, amount uint64) error

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, direction string, move transferFunc) {
	owner, err := ownerVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := move(r.Context(), callFrom(r), owner, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transferResponse{Owner: owner, Direction: direction, Amount: req.Amount})
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	balance, err := s.vault.Balance(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vaultResponse{
		Authority: s.vault.Authority(),
		Account:   s.vault.VaultAccount(),
		Mint:      s.vault.Mint(),
		Balance:   balance,
	})
}

func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerVar(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := access.AuthorizeCall(owner, callFrom(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	acct, err := s.faucet.Fund(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "faucet grant",
		"owner", owner.String(),
		"account", acct.Address.String(),
		"amount", s.faucet.Amount())
	writeJSON(w, http.StatusOK, faucetResponse{Account: acct.Address, Granted: s.faucet.Amount(), Balance: acct.Amount})
}
