// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/access"
	"github.com/soldungeons/dungeons/internal/ledger"
)

// Request signing headers.
const (
	HeaderSigner      = "X-Dungeons-Signer"
	HeaderTimestamp   = "X-Dungeons-Timestamp"
	HeaderSignature   = "X-Dungeons-Signature"
	HeaderCosigner    = "X-Dungeons-Cosigner"
	HeaderCosignature = "X-Dungeons-Cosignature"
	HeaderSession     = "X-Dungeons-Session"
)

// MaxClockSkew bounds the distance between a request timestamp and the
// server clock.
const MaxClockSkew = 2 * time.Minute

const maxBodyBytes = 1 << 20

// ErrUnauthenticated is returned when a request signature cannot be verified.
var ErrUnauthenticated = errors.New("unauthenticated")

// SigningMessage returns the bytes a request signature covers.
func SigningMessage(method, path string, timestamp int64, body []byte) []byte {
	sum := sha256.Sum256(body)
	var b bytes.Buffer
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString(strconv.FormatInt(timestamp, 10))
	b.WriteByte('\n')
	b.WriteString(hex.EncodeToString(sum[:]))
	return b.Bytes()
}

// SignRequest signs req as key at time now. body must be the bytes req
// will send.
func SignRequest(req *http.Request, key ed25519.PrivateKey, now time.Time, body []byte) {
	ts := now.Unix()
	msg := SigningMessage(req.Method, req.URL.Path, ts, body)
	req.Header.Set(HeaderSigner, base58.Encode(key.Public().(ed25519.PublicKey)))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSignature, base58.Encode(ed25519.Sign(key, msg)))
}

// CosignRequest adds key's signature over the message already signed by
// SignRequest.
func CosignRequest(req *http.Request, key ed25519.PrivateKey, body []byte) {
	ts, _ := strconv.ParseInt(req.Header.Get(HeaderTimestamp), 10, 64) //nolint:errcheck // set by SignRequest
	msg := SigningMessage(req.Method, req.URL.Path, ts, body)
	req.Header.Add(HeaderCosigner, base58.Encode(key.Public().(ed25519.PublicKey)))
	req.Header.Add(HeaderCosignature, base58.Encode(ed25519.Sign(key, msg)))
}

func unauthenticated(format string, args ...any) error {
	return oops.Code("UNAUTHENTICATED").Wrapf(ErrUnauthenticated, format, args...)
}

// authenticate verifies the request signatures and resolves the session.
// The body is restored on the request for the handler.
func (s *Server) authenticate(r *http.Request) (access.Call, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return access.Call{}, unauthenticated("read body: %v", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	signer, err := ledger.ParsePubkey(r.Header.Get(HeaderSigner))
	if err != nil {
		return access.Call{}, unauthenticated("signer: %v", err)
	}
	ts, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return access.Call{}, unauthenticated("timestamp: %v", err)
	}
	now := s.clock.Now()
	skew := now.Sub(time.Unix(ts, 0))
	if skew > MaxClockSkew || skew < -MaxClockSkew {
		return access.Call{}, oops.Code("UNAUTHENTICATED").With("skew", skew.String()).
			Wrapf(ErrUnauthenticated, "timestamp outside allowed skew")
	}

	msg := SigningMessage(r.Method, r.URL.Path, ts, body)
	if err := verify(signer, r.Header.Get(HeaderSignature), msg); err != nil {
		return access.Call{}, err
	}

	cosigners := r.Header.Values(HeaderCosigner)
	cosigs := r.Header.Values(HeaderCosignature)
	if len(cosigners) != len(cosigs) {
		return access.Call{}, unauthenticated("%d cosigners with %d cosignatures", len(cosigners), len(cosigs))
	}
	extra := make([]ledger.Pubkey, 0, len(cosigners))
	for i, raw := range cosigners {
		k, err := ledger.ParsePubkey(raw)
		if err != nil {
			return access.Call{}, unauthenticated("cosigner: %v", err)
		}
		if err := verify(k, cosigs[i], msg); err != nil {
			return access.Call{}, err
		}
		extra = append(extra, k)
	}
	call := access.NewCall(signer, extra...)

	if raw := r.Header.Get(HeaderSession); raw != "" {
		d, err := s.resolveSession(r.Context(), raw, now)
		if err != nil {
			return access.Call{}, err
		}
		call = call.WithSession(d)
	}
	return call, nil
}

func (s *Server) resolveSession(ctx context.Context, raw string, now time.Time) (*access.Delegation, error) {
	addr, err := ledger.ParsePubkey(raw)
	if err != nil {
		return nil, unauthenticated("session: %v", err)
	}
	d, err := s.delegations.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := d.CheckValidity(now, s.service.ProgramID()); err != nil {
		return nil, err
	}
	return d, nil
}

func verify(key ledger.Pubkey, encoded string, msg []byte) error {
	sig, err := base58.Decode(encoded)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return oops.Code("UNAUTHENTICATED").With("key", key.String()).
			Wrapf(ErrUnauthenticated, "malformed signature")
	}
	if !ed25519.Verify(ed25519.PublicKey(key.Bytes()), msg, sig) {
		return oops.Code("UNAUTHENTICATED").With("key", key.String()).
			Wrapf(ErrUnauthenticated, "signature does not verify")
	}
	return nil
}
