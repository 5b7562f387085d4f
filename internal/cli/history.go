package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/docfactory/internal/config"
	"github.com/lucasnoah/docfactory/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Recorded evaluation history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded evaluations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		evals, err := db.ListEvaluations(limit)
		if err != nil {
			return err
		}
		if len(evals) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No evaluations recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "id\trecorded_at\toutputs_dir\truns\tsequences")
		for _, e := range evals {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", e.ID, e.RecordedAt, e.OutputsDir, e.RunCount, e.SequenceCount)
		}
		return tw.Flush()
	},
}

var historyTrendCmd = &cobra.Command{
	Use:   "trend [sequence-id]",
	Short: "Show how a sequence's verdict evolved across evaluations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		points, err := db.SequenceTrend(args[0])
		if err != nil {
			return err
		}
		if len(points) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No recorded results for sequence %s.\n", args[0])
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "eval\trecorded_at\truns\tfinal\tissues\tconverged\treason")
		for _, p := range points {
			issues := ""
			if p.FinalIssueCount != nil {
				issues = fmt.Sprintf("%d", *p.FinalIssueCount)
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%t\t%s\n",
				p.EvaluationID, p.RecordedAt, p.Length, p.FinalQAStatus, issues, p.Converged, p.Reason)
		}
		return tw.Flush()
	},
}

func openHistory() (*history.DB, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	path := cfg.Evaluator.HistoryDB
	if path == "" {
		path, err = history.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return history.Open(path)
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "Maximum evaluations to list")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyTrendCmd)
}
