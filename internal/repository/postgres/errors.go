package postgres

import (
	"errors"

	"github.com/dom/ridecore/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidTextRep      = "22P02"
)

// translateError maps driver and gorm failures onto domain error codes.
// Typed domain errors pass through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if domain.AsError(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.WrapError(domain.CodeNotFound, err, domain.ErrNotFound.Message)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.WrapError(domain.CodeConflict, err, domain.ErrConflict.Message)
		case pgForeignKeyViolation:
			return domain.WrapError(domain.CodeNotFound, err, "referenced record not found")
		case pgCheckViolation, pgInvalidTextRep:
			return domain.WrapError(domain.CodeValidation, err, domain.ErrInvalid.Message)
		}
	}
	return err
}

// notFoundAs swaps a generic not-found for a more specific sentinel.
func notFoundAs(err error, sentinel *domain.Error) error {
	err = translateError(err)
	if domain.CodeOf(err) == domain.CodeNotFound && errors.Is(err, domain.ErrNotFound) {
		return sentinel
	}
	return err
}

// conflictAs swaps a unique violation for a more specific sentinel.
func conflictAs(err error, sentinel *domain.Error) error {
	err = translateError(err)
	if errors.Is(err, domain.ErrConflict) {
		return domain.WrapError(sentinel.Code, err, sentinel.Message)
	}
	return err
}
