package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TFMV/liquiditymap/graph"
)

func validateCmd() *cobra.Command {
	var (
		legacy bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog and relationship table for problems",
		Long: "Reports relationship entries whose codes are missing from the catalog, duplicate\n" +
			"indicator codes and out-of-range strengths. Only a broken catalog is an error\n" +
			"unless --strict is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cat, rels, err := dataSources()
			if err != nil {
				return err
			}
			if legacy {
				rels = graph.LegacyTable()
			}

			banner(w, "validate")
			if err := cat.Validate(); err != nil {
				fmt.Fprintf(w, "  %s catalog\n", statusIcon(false))
				for _, line := range strings.Split(err.Error(), "\n") {
					fmt.Fprintf(w, "    %s\n", line)
				}
				return errors.New("catalog is invalid")
			}
			fmt.Fprintf(w, "  %s catalog: %d indicators, %d events\n", statusIcon(true), len(cat.All()), len(cat.Events))

			g := buildGraph(cat, rels, cfg.Data.PolicyNodes)
			report := graph.Validate(rels, g.Nodes)
			fmt.Fprintf(w, "  %s %s\n", statusIcon(report.Clean()), report)

			if len(report.Orphans) > 0 {
				fmt.Fprintln(w)
				var rows [][]string
				for _, o := range report.Orphans {
					rows = append(rows, []string{
						o.Entry.SourceCode,
						o.Entry.TargetCode,
						fmt.Sprintf("%.2f", o.Entry.Strength),
						strings.Join(o.Missing, ", "),
					})
				}
				table(w, []string{"Source", "Target", "Strength", "Missing"}, rows)
			}
			for _, e := range report.SelfLoops {
				Warn.Fprintf(w, "  self-loop on %q dropped\n", e.SourceCode)
			}
			for _, d := range report.Duplicates {
				Warn.Fprintf(w, "  duplicate code %q on %s; edges use %s\n", d.Code, strings.Join(d.IDs, ", "), d.IDs[0])
			}
			for _, e := range report.Invalid {
				Bad.Fprintf(w, "  %v\n", e)
			}

			if strict && !report.Clean() {
				return fmt.Errorf("relationship table %s has %d problems", report.Version, report.Problems())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&legacy, "legacy", false, "Check the first-generation relationship table")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on any diagnostic")
	return cmd
}
