package commands

import (
	"github.com/spf13/cobra"

	"airbnb-reconciler/server"
	"airbnb-reconciler/services"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API used by the linking UI.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			srv := server.New(store, store, services.NewReconciler(a.logger, a.cfg.TitlePrefixLen),
				a.logger, []byte(a.cfg.APISecret))
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", a.cfg.AdminAddr, "listen address")
	return cmd
}
