// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/soldungeons/dungeons/pkg/errutil"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var unprocessable = map[string]bool{
	"INSUFFICIENT_FUNDS": true,
	"MISSING_SIGNATURE":  true,
	"OWNER_MISMATCH":     true,
	"MINT_MISMATCH":      true,
	"BALANCE_OVERFLOW":   true,
	"RECORD_TOO_LARGE":   true,
	"REALLOC_TOO_LARGE":  true,
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch {
	case code == "WRONG_AUTHORITY":
		return http.StatusForbidden
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_ALREADY_EXISTS"):
		return http.StatusConflict
	case unprocessable[code]:
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errutil.Code(err)
	status := StatusFor(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		errutil.LogError(r.Context(), s.logger, "request failed", err, "path", r.URL.Path)
		msg = "internal error"
		if code == "" {
			code = "INTERNAL"
		}
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func (s *Server) writeUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	code := errutil.Code(err)
	if code == "" {
		code = "UNAUTHENTICATED"
	}
	errutil.LogWarn(r.Context(), s.logger, "request rejected", err, "path", r.URL.Path)
	writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(body)
}
