// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var client = &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0", ready)
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, server.Stop(ctx))
	})
	return server
}

func get(t *testing.T, server *Server, path string) (int, string) {
	t.Helper()
	resp, err := client.Get("http://" + server.Addr() + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	server := startServer(t, nil)

	m := server.Metrics()
	m.RecordRequest("assign_character", "200")
	m.RecordLockTransition("cooldown")
	m.RecordVaultTransfer("deposit", 40)
	m.RecordVaultTransfer("deposit", 2)

	status, body := get(t, server, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "process_")
	assert.Contains(t, body, `dungeons_requests_total{operation="assign_character",status="200"} 1`)
	assert.Contains(t, body, `dungeons_lock_transitions_total{outcome="cooldown"} 1`)
	assert.Contains(t, body, `dungeons_vault_transfers_total{direction="deposit"} 2`)
	assert.Contains(t, body, `dungeons_vault_transfer_amount_total{direction="deposit"} 42`)
}

func TestServer_Probes(t *testing.T) {
	tests := []struct {
		name       string
		ready      ReadinessChecker
		wantStatus int
		wantBody   string
	}{
		{"nil checker is ready", nil, http.StatusOK, "ok"},
		{"ready", func() bool { return true }, http.StatusOK, "ok"},
		{"not ready", func() bool { return false }, http.StatusServiceUnavailable, "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startServer(t, tt.ready)

			status, body := get(t, server, "/healthz/liveness")
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "ok", strings.TrimSpace(body))

			status, body = get(t, server, "/healthz/readiness")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, strings.TrimSpace(body))
		})
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := startServer(t, nil)
	_, err := server.Start()
	require.Error(t, err)
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	assert.Empty(t, server.Addr())
	require.NoError(t, server.Stop(context.Background()))
}

func TestServer_ErrorChannel(t *testing.T) {
	t.Run("reports serve errors", func(t *testing.T) {
		server := NewServer("127.0.0.1:0", nil)
		errCh, err := server.Start()
		require.NoError(t, err)
		require.NoError(t, server.listener.Close())

		select {
		case serveErr := <-errCh:
			require.Error(t, serveErr)
		case <-time.After(2 * time.Second):
			t.Fatal("serve error was not reported")
		}
		_ = server.Stop(context.Background())
	})

	t.Run("closes on shutdown", func(t *testing.T) {
		server := NewServer("127.0.0.1:0", nil)
		errCh, err := server.Start()
		require.NoError(t, err)
		require.NoError(t, server.Stop(context.Background()))

		select {
		case serveErr, ok := <-errCh:
			assert.False(t, ok && serveErr != nil, "unexpected error %v", serveErr)
		case <-time.After(2 * time.Second):
			t.Fatal("error channel was not closed")
		}
	})
}
