package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) careSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "care-settings",
		Short: "List the care settings of the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			settings, err := cat.ListCareSettings(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUNIT\tACTIVITIES")
			for _, cs := range settings {
				unit := cs.UnitName
				if unit == "" {
					unit = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", cs.ID, cs.Name, unit, len(cs.ActivityIDs))
			}
			return w.Flush()
		},
	}
}

func (a *app) gapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gap",
		Short: "Print the coverage matrix of the team",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Gap(cmd.Context(), id)
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("nothing to analyse: select activities and at least one team member")
			}
			return writeJSON(a.out, result)
		},
	}
}

func (a *app) suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Rank occupations that would strengthen the team",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Suggestions(cmd.Context(), id, a.list("exclude"), a.v.GetInt("page"), a.v.GetInt("page-size"))
			if err != nil {
				return err
			}
			return writeJSON(a.out, result)
		},
	}
	cmd.Flags().StringSlice("exclude", nil, "staged occupation IDs counted as coverage but never suggested")
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("page-size", 10, "suggestions per page")
	cmd.Flags().Int("max-page-size", 50, "largest accepted page size")
	return cmd
}

func (a *app) minimumTeamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "minimum-team",
		Short: "Propose a small team covering the selected activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.MinimumTeam(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(a.out, result)
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the coverage matrix as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			out := a.out
			if path := a.v.GetString("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return svc.ExportCSV(cmd.Context(), id, out)
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
