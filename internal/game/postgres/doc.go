// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

// Package postgres stores game records in PostgreSQL. Repositories join the
// transaction started by store.Transactor when one is in the context.
package postgres
