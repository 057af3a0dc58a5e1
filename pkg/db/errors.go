package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation from
// Postgres (pgx or lib/pq) or SQLite. When constraint names are given, at
// least one must appear in the constraint or message text.
func IsUniqueViolation(err error, constraints ...string) bool {
	text, ok := uniqueViolationText(err)
	if !ok {
		return false
	}

	named := false
	for _, name := range constraints {
		if name == "" {
			continue
		}
		named = true
		if strings.Contains(text, name) {
			return true
		}
	}
	return !named
}

func uniqueViolationText(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName + " " + pgErr.Message, pgErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint + " " + pqErr.Message, string(pqErr.Code) == pgUniqueViolation
	}

	msg := err.Error()
	if strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed") {
		return msg, true
	}
	return "", false
}
