package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/schemadrift/internal/errs"
)

// PostgreSQL SQLSTATE codes that get a dedicated kind.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrInvalidAuthorization  = "28000"
	pgErrInvalidPassword       = "28P01"
	pgErrInsufficientPrivilege = "42501"
	pgErrUndefinedTable        = "42P01"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// NotFound is reserved for missing reference documents.
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		msg = fmt.Sprintf("%s: %s", msg, pgErr.Message)
		switch {
		case pgErr.Code == pgErrInvalidAuthorization || pgErr.Code == pgErrInvalidPassword:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		case pgErr.Code == pgErrInsufficientPrivilege:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case pgErr.Code == pgErrUndefinedTable:
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			// Class 08: connection exception
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
	}

	// Fallthrough: connection-level errors (TLS, network, DNS)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
