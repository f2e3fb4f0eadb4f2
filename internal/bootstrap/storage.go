// Package bootstrap arma los adaptadores de persistencia según la configuración.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
	"github.com/jhoicas/tienda-pos/internal/infrastructure/memory"
	"github.com/jhoicas/tienda-pos/internal/infrastructure/postgres"
	"github.com/jhoicas/tienda-pos/internal/infrastructure/sqlite"
	"github.com/jhoicas/tienda-pos/pkg/config"
)

// Storage repositorios del driver elegido.
type Storage struct {
	Driver   string
	Products repository.ProductRepository
	Sales    repository.SaleRepository
	Stats    repository.StatsRepository
	TxRunner sales.TxRunner
	Ping     func(ctx context.Context) error
	close    func() error
}

// Close libera conexiones.
func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage abre el driver configurado. Con migrate=true aplica el esquema antes de devolver.
func OpenStorage(ctx context.Context, cfg config.DBConfig, migrate bool, log zerolog.Logger) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := postgres.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &Storage{
			Driver:   cfg.Driver,
			Products: postgres.NewProductRepository(pool),
			Sales:    postgres.NewSaleRepository(pool),
			Stats:    postgres.NewStatsRepository(pool),
			TxRunner: postgres.NewTxRunner(pool),
			Ping:     pool.Ping,
			close:    func() error { pool.Close(); return nil },
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := store.Migrate(ctx); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		db := store.DB()
		return &Storage{
			Driver:   cfg.Driver,
			Products: sqlite.NewProductRepository(db),
			Sales:    sqlite.NewSaleRepository(db),
			Stats:    sqlite.NewStatsRepository(db),
			TxRunner: sqlite.NewTxRunner(store),
			Ping:     store.Ping,
			close:    store.Close,
		}, nil

	case config.DriverMemory:
		store := memory.NewStore()
		return &Storage{
			Driver:   cfg.Driver,
			Products: memory.NewProductRepository(store),
			Sales:    memory.NewSaleRepository(store),
			Stats:    memory.NewStatsRepository(store),
			TxRunner: memory.NewTxRunner(store),
			Ping:     store.Ping,
		}, nil
	}
	return nil, fmt.Errorf("driver de almacenamiento desconocido: %q", cfg.Driver)
}
