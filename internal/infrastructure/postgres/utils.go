package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

// isCheckViolation verifica si un error es una violación de CHECK (23514), p. ej. rol fuera del enum.
func isCheckViolation(err error) bool {
	return hasCode(err, "23514")
}

// isInsufficientPrivilege 42501: la política de fila o los permisos rechazaron la sentencia.
func isInsufficientPrivilege(err error) bool {
	return hasCode(err, "42501")
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return strings.Contains(err.Error(), "SQLSTATE "+code)
}
