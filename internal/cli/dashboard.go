package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mbswitch/internal/render"
	"mbswitch/internal/switcher"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <dashboard-id>",
	Short: "Duplicate a dashboard onto another database",
	Long: `Duplicate a dashboard onto another database.

Every contained question is migrated through the question flow, tabs and
parameters are recreated with fresh ids, and every cross-reference between
cards, tabs, parameters and bound columns is rewritten consistently before
the new dashboard is populated in a single update.`,
	Args: cobra.ExactArgs(1),
	RunE: runDashboard,
}

var (
	dashboardSourceDB   int
	dashboardTargetDB   int
	dashboardCollection string
	dashboardDryRun     bool
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().IntVar(&dashboardSourceDB, "source-db", 0, "Source database ID")
	dashboardCmd.Flags().IntVar(&dashboardTargetDB, "target-db", 0, "Target database ID")
	dashboardCmd.Flags().StringVar(&dashboardCollection, "collection", "", `Destination collection ("root" or numeric ID; default: inherit)`)
	dashboardCmd.Flags().BoolVar(&dashboardDryRun, "dry-run", false, "Show the planned dashboard without creating anything")
	_ = dashboardCmd.MarkFlagRequired("source-db")
	_ = dashboardCmd.MarkFlagRequired("target-db")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	dashboardID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid dashboard id: %s", args[0])
	}

	collection, err := switcher.ParseCollection(dashboardCollection)
	if err != nil {
		return err
	}

	s, err := newSwitcher(cmd)
	if err != nil {
		return err
	}

	res, err := s.SwitchDashboard(cmd.Context(), dashboardID, switcher.Options{
		SourceDB:   dashboardSourceDB,
		TargetDB:   dashboardTargetDB,
		Collection: collection,
		DryRun:     dashboardDryRun,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dashboardDryRun {
		fmt.Fprintf(out, "Dry run: would create dashboard %q with %d cards, %d tabs, %d parameters\n",
			fmt.Sprintf("%s (switched to DB %d)", res.Original.Name, dashboardTargetDB),
			len(res.PlannedDashcards), len(res.PlannedTabs), len(res.PlannedParameters))
		for _, qres := range res.CardResults {
			fmt.Fprintf(out, "--- card %d: %s\n", qres.Original.ID, qres.Original.Name)
			if err := render.QueryDiff(out, qres.Original.DatasetQuery, qres.PlannedQuery); err != nil {
				return err
			}
		}
		return render.JSON(out, map[string]any{
			"tabs":         res.PlannedTabs,
			"parameters":   res.PlannedParameters,
			"dashcards":    res.PlannedDashcards,
			"param_fields": res.PlannedParamFields,
		})
	}

	fmt.Fprintf(out, "Created dashboard %d in database %d\n", res.NewDashboardID, dashboardTargetDB)
	for _, qres := range res.CardResults {
		fmt.Fprintf(out, "  card %d -> %d\n", qres.Original.ID, qres.NewCardID)
	}
	if len(res.StaleBindingFields) > 0 {
		fmt.Fprintf(out, "Warning: bindings still reference source columns %v (no target counterpart)\n", res.StaleBindingFields)
	}
	return nil
}
