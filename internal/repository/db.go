package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// quoteLiteral renders a string as a safely quoted SQL literal for DDL
// statements, which cannot take bind parameters.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// isDuplicateTable reports whether err is Postgres 42P07 (relation already
// exists), the benign outcome of two callers racing to create the same
// partition.
func isDuplicateTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P07"
}
