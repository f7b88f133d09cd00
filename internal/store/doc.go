// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package store provides the PostgreSQL plumbing shared by repositories:
// connection setup, embedded schema migrations, and a Transactor that runs
// one request as one transaction holding per-record locks.
package store
