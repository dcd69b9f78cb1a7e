package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	sqlStateUniqueViolation    = "23505"
	sqlStateExclusionViolation = "23P01"
	sqlStateSerialization      = "40001"
	sqlStateDeadlock           = "40P01"
)

// SQLState extracts the Postgres error code from either driver, or "".
func SQLState(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports a unique constraint failure on Postgres or
// SQLite. A non-empty constraintName must also appear in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	return SQLState(err) == sqlStateUniqueViolation ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsExclusionViolation reports that the reservations overlap constraint
// rejected a write, meaning another stay claimed the room first.
func IsExclusionViolation(err error) bool {
	return err != nil && SQLState(err) == sqlStateExclusionViolation
}

// IsRetryable reports serialization failures and deadlocks that a fresh
// transaction may get past.
func IsRetryable(err error) bool {
	switch SQLState(err) {
	case sqlStateSerialization, sqlStateDeadlock:
		return true
	}
	return false
}
