package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/liquiditymap/graph"
	"github.com/TFMV/liquiditymap/render"
)

func renderCmd() *cobra.Command {
	var (
		format     string
		outputPath string
		width      float64
		height     float64
		seed       int64
		maxTicks   int
		title      string
		timestamp  bool
		noLegend   bool
		legacy     bool
		cols, rows int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Lay out the bubble map offline and write it to a file",
		Example: "  liquiditymap render -f svg -o map.svg\n" +
			"  liquiditymap render -f ascii --cols 100 --rows 30",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := render.GetRenderer(format); err != nil {
				return fmt.Errorf("%w (choose one of %s)", err, strings.Join(render.Formats(), ", "))
			}
			if cmd.Flags().Changed("width") {
				cfg.Layout.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Layout.Height = height
			}
			if cmd.Flags().Changed("seed") {
				cfg.Layout.Seed = seed
			}
			if cmd.Flags().Changed("max-ticks") {
				cfg.Layout.MaxTicks = maxTicks
			}

			cat, table, err := dataSources()
			if err != nil {
				return err
			}
			if legacy {
				table = graph.LegacyTable()
			}
			g := buildGraph(cat, table, cfg.Data.PolicyNodes)

			opts := render.NewDefaultOptions(format)
			opts.Timestamp = timestamp
			opts.ShowLegend = !noLegend
			if title != "" {
				opts.Title = title
			}
			if cols > 0 {
				opts.Columns = cols
			}
			if rows > 0 {
				opts.Rows = rows
			}

			data, err := render.Generate(cmd.Context(), g, layoutConfig(), cfg.Layout.MaxTicks, opts)
			if err != nil {
				return err
			}

			if outputPath == "" {
				outputPath = "liquiditymap" + render.Extension(format)
			}
			w, err := output(outputPath)
			if err != nil {
				return err
			}
			defer w.Close()
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			logger.Info("rendered bubble map",
				zap.String("format", format),
				zap.String("output", outputPath),
				zap.Int("nodes", len(g.Nodes)),
				zap.Int("edges", len(g.Edges)),
			)
			if outputPath != "-" {
				fmt.Fprintf(os.Stderr, "%s wrote %s\n", statusIcon(true), outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "Output format: "+strings.Join(render.Formats(), ", "))
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file, - for stdout (default liquiditymap.<ext>)")
	cmd.Flags().Float64Var(&width, "width", 1200, "Layout width")
	cmd.Flags().Float64Var(&height, "height", 600, "Layout height")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Seed for initial placement and jitter")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 1000, "Maximum simulation ticks")
	cmd.Flags().StringVar(&title, "title", "", "Heading for text output")
	cmd.Flags().BoolVar(&timestamp, "timestamp", false, "Include a timestamp")
	cmd.Flags().BoolVar(&noLegend, "no-legend", false, "Omit the group legend")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the first-generation relationship table")
	cmd.Flags().IntVar(&cols, "cols", 0, "Character columns for ascii output")
	cmd.Flags().IntVar(&rows, "rows", 0, "Character rows for ascii output")
	return cmd
}
