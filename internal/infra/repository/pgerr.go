package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fleetbook/internal/infra"
)

// PostgreSQL error codes the repositories translate into kinds.
const (
	pgUniqueViolation    = "23505"
	pgForeignKeyViolated = "23503"
	pgExclusionViolation = "23P01"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func kindOf(err error) infra.RepositoryErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return infra.KindDuplicateKey
		case pgExclusionViolation:
			return infra.KindConflict
		case pgForeignKeyViolated:
			return infra.KindForeignKeyViolated
		}
	}
	return infra.KindDBFailure
}
