package commands

import (
	"errors"

	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/errs"
)

// loadErr translates repository error kinds into usecase sentinels. Errors
// that already carry the sentinel pass through untouched.
func loadErr(err, notFound error) error {
	switch {
	case errors.Is(err, notFound):
		return err
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, notFound)
	default:
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
}
