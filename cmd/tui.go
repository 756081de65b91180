package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/tui"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Explore the bubble map in the terminal",
		Long:  "Drag bubbles with the mouse and click one to show its indicator. Press q to quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, table, err := dataSources()
			if err != nil {
				return err
			}
			g := buildGraph(cat, table, cfg.Data.PolicyNodes)

			selected, err := tui.Run(cmd.Context(), g, tui.Options{
				Layout:       layoutConfig(),
				TickInterval: cfg.Layout.TickInterval.Duration,
				OnSelect: func(ind models.Indicator) {
					logger.Debug("indicator selected", zap.String("id", ind.ID), zap.String("code", ind.Code))
				},
				Logger: logger,
			})
			if err != nil {
				return err
			}
			if selected != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", Brand.Sprint(selected.Code), selected.Value, selected.Unit)
			}
			return nil
		},
	}
}
