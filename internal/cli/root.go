// Package cli comandos de administración (posctl).
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jhoicas/tienda-pos/pkg/config"
	"github.com/jhoicas/tienda-pos/pkg/logger"
)

// RootOptions flags globales.
type RootOptions struct {
	Driver  string // sobreescribe DB_DRIVER
	Verbose bool

	// loadConfig reemplazable en pruebas
	loadConfig func() (*config.Config, error)
}

func (o *RootOptions) config() (*config.Config, error) {
	load := o.loadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if o.Driver != "" {
		cfg.DB.Driver = o.Driver
	}
	return cfg, nil
}

func (o *RootOptions) logger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	level := cfg.App.LogLevel
	if o.Verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Env: "development", Level: level, Service: "posctl", Out: cmd.ErrOrStderr()}).Zerolog()
}

// NewRootCommand comando raíz de posctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "posctl",
		Short:         "Administración de la tienda: esquema y catálogo",
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "driver de almacenamiento (postgres|sqlite); por defecto DB_DRIVER")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log detallado")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	return cmd
}
