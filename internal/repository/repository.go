// ===========================================
// Package repository - Data Access Layer
// ===========================================
// PostgreSQL repositories over a shared pgxpool. Services depend on
// small store interfaces; these types satisfy them, as does the
// in-memory memstore package used by tests and STORAGE_DRIVER=memory.
//
// NAMING CONVENTION:
// - Methods named after what they do: Create, GetByID, Delete
// - Input: domain models or primitives
// - Output: domain models or errors
// ===========================================

package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors returned by repository methods.
// Callers check them with errors.Is().
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// isDuplicateKeyError reports whether err is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
