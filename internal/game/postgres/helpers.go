// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/soldungeons/dungeons/internal/ledger"
)

func parseKey(field, s string) (ledger.Pubkey, error) {
	k, err := ledger.ParsePubkey(s)
	if err != nil {
		return ledger.Pubkey{}, oops.Code("CORRUPT_RECORD").With("field", field).Wrap(err)
	}
	return k, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
