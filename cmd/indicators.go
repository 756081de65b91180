package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TFMV/liquiditymap/catalog"
	"github.com/TFMV/liquiditymap/models"
)

func indicatorsCmd() *cobra.Command {
	var (
		group   string
		asJSON  bool
		showAll bool
	)

	cmd := &cobra.Command{
		Use:     "indicators [id]",
		Aliases: []string{"ls"},
		Short:   "List catalog indicators grouped by sub-category",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cat, _, err := dataSources()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				ind, ok := cat.Find(args[0])
				if !ok {
					return fmt.Errorf("no indicator with id %q", args[0])
				}
				if asJSON {
					return writeIndented(cmd, ind)
				}
				printIndicator(cmd, ind)
				return nil
			}

			sections := map[models.Group][]models.Indicator{
				models.GroupOnshore:  cat.Onshore,
				models.GroupOffshore: cat.Offshore,
				models.GroupFed:      cat.Fed,
			}
			if group != "" && !models.Group(group).Valid() {
				return fmt.Errorf("unknown group %q", group)
			}
			if asJSON {
				if group != "" {
					return writeIndented(cmd, catalog.GroupBySubCategory(sections[models.Group(group)]))
				}
				return writeIndented(cmd, cat)
			}

			banner(w, "indicators")
			for _, g := range models.Groups {
				if group != "" && string(g) != group {
					continue
				}
				inds := sections[g]
				if len(inds) == 0 {
					continue
				}
				Info.Fprintf(w, "%s\n", strings.ToUpper(string(g)))
				for _, sec := range catalog.GroupBySubCategory(inds) {
					fmt.Fprintf(w, "  %s\n", Subtle.Sprint(sec.SubCategory))
					var rows [][]string
					for _, ind := range sec.Indicators {
						row := []string{ind.ID, ind.Code, ind.DisplayValue(), fmt.Sprintf("%+g", ind.Change), fmt.Sprintf("%g", ind.Weight)}
						if showAll {
							row = append(row, ind.Source, ind.LastUpdated)
						}
						rows = append(rows, row)
					}
					headers := []string{"ID", "Code", "Value", "Change", "Weight"}
					if showAll {
						headers = append(headers, "Source", "Updated")
					}
					table(w, headers, rows)
					fmt.Fprintln(w)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Only show one group: onshore, offshore, fed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "Include source columns")
	return cmd
}

func printIndicator(cmd *cobra.Command, ind models.Indicator) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s  %s\n", Brand.Sprint(ind.Code), ind.Name)
	change := Good
	if ind.Change < 0 {
		change = Bad
	}
	fmt.Fprintf(w, "  %s  %s\n", ind.DisplayValue(), change.Sprintf("%+g", ind.Change))
	if ind.Description != "" {
		fmt.Fprintf(w, "  %s\n", ind.Description)
	}
	if ind.Source != "" {
		fmt.Fprintf(w, "  %s %s %s\n", Subtle.Sprint("source:"), ind.Source, Subtle.Sprint(ind.SourceURL))
	}
}

func writeIndented(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
