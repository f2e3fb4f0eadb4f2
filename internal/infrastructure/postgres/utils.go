package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/tienda-pos/internal/domain"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// isCheckViolation CHECK constraint (23514), p. ej. stock >= 0.
func isCheckViolation(err error) bool {
	return pgCode(err) == "23514"
}

// isOutOfRange numeric_value_out_of_range (22003): el valor no cabe en NUMERIC(14,2) o INTEGER.
func isOutOfRange(err error) bool {
	return pgCode(err) == "22003"
}

// mapTxError traduce serialization_failure (40001) y deadlock_detected (40P01) a domain.ErrTxConflict.
func mapTxError(err error) error {
	if err == nil || errors.Is(err, domain.ErrTxConflict) {
		return err
	}
	switch pgCode(err) {
	case "40001", "40P01":
		return fmt.Errorf("%w: %v", domain.ErrTxConflict, err)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern arma '%term%' escapando comodines.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}
