package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
// Acepta también el texto del driver cuando el error llega sin *pgconn.PgError.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	return hasCode(err, "23503")
}

// isRetryable: serialization_failure (40001) o deadlock_detected (40P01).
func isRetryable(err error) bool {
	return hasCode(err, "40001") || hasCode(err, "40P01")
}

// hasCode compara solo el SQLSTATE de un *pgconn.PgError.
func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// nullString convierte "" en NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isInvalidText: invalid_text_representation (22P02), p. ej. un id que no es UUID.
func isInvalidText(err error) bool {
	return hasCode(err, "22P02")
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
