// Package sqlite implementa los puertos de persistencia sobre un archivo SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/sale"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Querier es lo común entre *sql.DB y *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store conexión SQLite con un único escritor.
type Store struct {
	db *sql.DB
}

// Open crea o abre la base en path y aplica los pragmas. El esquema lo aplica Migrate.
//
// Configuración:
//   - WAL + synchronous NORMAL
//   - busy_timeout de 5 s
//   - foreign keys activas
//   - transacciones BEGIN IMMEDIATE: el lock de escritura se toma al iniciar
func Open(path string) (*Store, error) {
	dsn := path + "?_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("conectar sqlite: %w", err)
	}

	// SQLite admite un solo escritor: una conexión serializa las transacciones
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Migrate aplica el esquema (idempotente) y registra la versión en user_version.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("registrar versión de esquema: %w", err)
	}
	return nil
}

// Close cierra la conexión.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping chequeo de salud.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB acceso directo para herramientas (seed, pruebas).
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("ejecutar %q: %w", p, err)
		}
	}
	return nil
}

// toCents convierte importes a centavos. Un importe fuera de NUMERIC(14,2) es entrada inválida,
// igual que en postgres.
func toCents(amounts ...decimal.Decimal) ([]int64, error) {
	out := make([]int64, len(amounts))
	for i, d := range amounts {
		d = d.Round(2)
		if !sale.WithinAmount(d) {
			return nil, fmt.Errorf("%w: importe %s fuera de rango", domain.ErrInvalidInput, d.String())
		}
		out[i] = d.Shift(2).IntPart()
	}
	return out, nil
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
