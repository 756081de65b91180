package cmd

import (
	"github.com/spf13/cobra"

	"github.com/TFMV/liquiditymap/server"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive bubble map over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			cat, table, err := dataSources()
			if err != nil {
				return err
			}

			srv := server.New(server.Config{
				Port:         cfg.Server.Port,
				Catalog:      cat,
				Table:        table,
				Layout:       layoutConfig(),
				PolicyNodes:  cfg.Data.PolicyNodes,
				TickInterval: cfg.Layout.TickInterval.Duration,
				SessionTTL:   cfg.Server.SessionTTL.Duration,
				Logger:       logger,
			})
			banner(cmd.ErrOrStderr(), Info.Sprintf("listening on :%d", cfg.Server.Port))
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	return cmd
}
