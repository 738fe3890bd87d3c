package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/mydetailarea/access/pkg/domain/shared"
)

// nullString converts a string to sql.NullString. Empty strings are
// treated as NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue extracts a string from sql.NullString.
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullIDValue converts a shared.ID to sql.NullString, NULL if zero.
func nullIDValue(id shared.ID) sql.NullString {
	if id.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

// parseNullID parses a sql.NullString into a shared.ID, returning the
// zero ID when NULL or malformed.
func parseNullID(ns sql.NullString) shared.ID {
	if !ns.Valid || ns.String == "" {
		return shared.ID{}
	}
	id, err := shared.ParseID(ns.String)
	if err != nil {
		return shared.ID{}
	}
	return id
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
