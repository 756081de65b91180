package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TFMV/liquiditymap/catalog"
)

func calendarCmd() *cobra.Command {
	var (
		limit  int
		all    bool
		asJSON bool
		from   string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show upcoming monetary-policy events",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cat, _, err := dataSources()
			if err != nil {
				return err
			}

			now := time.Now()
			if from != "" {
				t, err := time.Parse("2006-01-02", from)
				if err != nil {
					return fmt.Errorf("invalid --from date: %w", err)
				}
				now = t
			}

			events := cat.Events
			if !all {
				events = catalog.Upcoming(cat.Events, now, limit)
			}
			if asJSON {
				return writeIndented(cmd, events)
			}

			banner(w, "policy calendar")
			if len(events) == 0 {
				fmt.Fprintln(w, "  No upcoming events.")
				return nil
			}
			for _, ev := range events {
				summary := ev.SummaryEn
				if summary == "" {
					summary = ev.Summary
				}
				fmt.Fprintf(w, "  %s  %-8s %-7s %s\n",
					ev.Date, ev.Type, impactColor(ev.Impact).Sprintf("%-6s", ev.Impact), summary)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n events")
	cmd.Flags().BoolVar(&all, "all", false, "Include past events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().StringVar(&from, "from", "", "Treat this date (YYYY-MM-DD) as today")
	return cmd
}
