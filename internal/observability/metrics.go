// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus counters.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	LockTransitions     *prometheus.CounterVec
	VaultTransfers      *prometheus.CounterVec
	VaultTransferAmount *prometheus.CounterVec
}

// NewMetrics creates the service counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dungeons_requests_total",
				Help: "Total number of API requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		LockTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dungeons_lock_transitions_total",
				Help: "Total number of character lock transitions by outcome",
			},
			[]string{"outcome"},
		),
		VaultTransfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dungeons_vault_transfers_total",
				Help: "Total number of vault transfers by direction",
			},
			[]string{"direction"},
		),
		VaultTransferAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dungeons_vault_transfer_amount_total",
				Help: "Total token amount moved through the vault by direction",
			},
			[]string{"direction"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.LockTransitions, m.VaultTransfers, m.VaultTransferAmount)
	return m
}

// RecordRequest counts one API request.
func (m *Metrics) RecordRequest(operation, status string) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordLockTransition counts one character lock transition.
func (m *Metrics) RecordLockTransition(outcome string) {
	m.LockTransitions.WithLabelValues(outcome).Inc()
}

// RecordVaultTransfer counts one vault transfer and its amount.
func (m *Metrics) RecordVaultTransfer(direction string, amount uint64) {
	m.VaultTransfers.WithLabelValues(direction).Inc()
	m.VaultTransferAmount.WithLabelValues(direction).Add(float64(amount))
}
