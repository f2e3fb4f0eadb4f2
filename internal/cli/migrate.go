package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/tienda-pos/internal/bootstrap"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Aplica el esquema de base de datos",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			log := opts.logger(cmd, cfg)
			st, err := bootstrap.OpenStorage(cmd.Context(), cfg.DB, true, log)
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "esquema aplicado (%s)\n", st.Driver)
			return nil
		},
	}
}
