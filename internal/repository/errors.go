package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"reviewhub/internal/apperror"
)

// uniqueViolation is the SQLSTATE postgres reports when an insert or update
// races past an application-level existence check and hits a unique index.
const uniqueViolation = "23505"

// translateUnique converts a postgres unique-violation into the Conflict
// error class so a lost write race surfaces as 409 instead of 500.
func translateUnique(err error, message string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperror.Conflict(message)
	}
	return err
}
