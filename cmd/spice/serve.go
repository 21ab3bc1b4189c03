package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-forecast/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the forecasting API over HTTP",
		Long: `Run the JSON HTTP API until interrupted.

Set lock.backend to redis when several servers share one database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := appConfig.ServerAddr
			return withApp(cmd, func(a *app) error {
				srv := api.NewServer(a.engine, a.logger)
				return srv.ListenAndServe(cmd.Context(), addr)
			})
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
