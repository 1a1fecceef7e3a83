package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mbswitch/internal/render"
	"mbswitch/internal/switcher"
)

var questionCmd = &cobra.Command{
	Use:   "question <question-id>",
	Short: "Duplicate a saved question onto another database",
	Long: `Duplicate a saved question onto another database.

The original is preserved as an untouched copy. The new question's query
has every table and column reference remapped to the target database by
schema-qualified name; references with no counterpart there are left
unchanged and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuestion,
}

var (
	questionSourceDB   int
	questionTargetDB   int
	questionCollection string
	questionDryRun     bool
)

func init() {
	rootCmd.AddCommand(questionCmd)
	questionCmd.Flags().IntVar(&questionSourceDB, "source-db", 0, "Source database ID")
	questionCmd.Flags().IntVar(&questionTargetDB, "target-db", 0, "Target database ID")
	questionCmd.Flags().StringVar(&questionCollection, "collection", "", `Destination collection ("root" or numeric ID; default: inherit)`)
	questionCmd.Flags().BoolVar(&questionDryRun, "dry-run", false, "Show the planned query without creating anything")
	_ = questionCmd.MarkFlagRequired("source-db")
	_ = questionCmd.MarkFlagRequired("target-db")
}

func runQuestion(cmd *cobra.Command, args []string) error {
	questionID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid question id: %s", args[0])
	}

	// Validate before any remote call.
	collection, err := switcher.ParseCollection(questionCollection)
	if err != nil {
		return err
	}

	s, err := newSwitcher(cmd)
	if err != nil {
		return err
	}

	res, err := s.SwitchQuestion(cmd.Context(), questionID, switcher.Options{
		SourceDB:   questionSourceDB,
		TargetDB:   questionTargetDB,
		Collection: collection,
		DryRun:     questionDryRun,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if questionDryRun {
		fmt.Fprintf(out, "Dry run: would create question %q in database %d\n",
			fmt.Sprintf("%s (switched to DB %d)", res.Original.Name, questionTargetDB), questionTargetDB)
		if err := render.QueryDiff(out, res.Original.DatasetQuery, res.PlannedQuery); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Preserved original as question %d\n", res.DuplicateID)
		fmt.Fprintf(out, "Created question %d in database %d\n", res.NewCardID, questionTargetDB)
	}
	if len(res.UnresolvedFields) > 0 {
		fmt.Fprintf(out, "Unresolved columns kept as-is: %v\n", res.UnresolvedFields)
	}
	return nil
}
