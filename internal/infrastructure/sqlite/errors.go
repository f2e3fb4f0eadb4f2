package sqlite

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/jhoicas/tienda-pos/internal/domain"
)

func sqliteErr(err error) (sqlite3.Error, bool) {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se, true
	}
	return se, false
}

func isUniqueViolation(err error) bool {
	se, ok := sqliteErr(err)
	return ok && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isCheckViolation(err error) bool {
	se, ok := sqliteErr(err)
	return ok && se.ExtendedCode == sqlite3.ErrConstraintCheck
}

// mapTxError SQLITE_BUSY / SQLITE_LOCKED -> domain.ErrTxConflict.
func mapTxError(err error) error {
	if err == nil || errors.Is(err, domain.ErrTxConflict) {
		return err
	}
	if se, ok := sqliteErr(err); ok && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", domain.ErrTxConflict, err)
	}
	return err
}
