package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	return hasCode(err, "23503")
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// nullString convierte "" en NULL para columnas opcionales (uuid o texto).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString inverso de nullString al escanear.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pageArgs normaliza limit/offset; limit <= 0 se traduce en NULL (sin límite).
func pageArgs(limit, offset int) (*int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return nil, offset
	}
	return &limit, offset
}
