// Package report renders evaluation results for humans (table) and
// spreadsheets (CSV). JSON output is handled by the evaluate package.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/lucasnoah/docfactory/internal/evaluate"
)

// Table writes a fixed-width run table followed by one line per sequence
// summary.
func Table(w io.Writer, result *evaluate.Result) error {
	if len(result.RunMetrics) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "run_id\tseq\tidx\tqa\tissues\tcompletion%\tdelta\tconv")
	for _, m := range result.RunMetrics {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%.1f\t%s\t%s\n",
			m.RunID,
			m.SequenceID,
			m.SequenceIndex,
			m.QAStatus,
			formatInt(m.QAIssueCount),
			m.RequiredSectionsCompletionPct,
			formatDelta(m.QAIssueDeltaVsParent),
			m.ConvergenceLabel,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sequence summaries:")
	for _, s := range result.SequenceSummaries {
		fmt.Fprintf(w, "- %s: runs=%d final=%s best_issues=%s final_issues=%s best_completion=%.1f%% oscillation=%t converged=%t\n",
			s.SequenceID,
			s.Length,
			s.FinalQAStatus,
			formatInt(s.BestQAIssueCount),
			formatInt(s.FinalQAIssueCount),
			s.BestCompletionPct,
			s.OscillationDetected,
			s.Converged,
		)
	}
	return nil
}

// csvFields is the column order of the CSV export.
var csvFields = []string{
	"run_id",
	"sequence_id",
	"sequence_index",
	"timestamp",
	"parent_run_id",
	"qa_status",
	"qa_issue_count",
	"required_sections_completion_pct",
	"section_artifacts_completion_pct",
	"qa_issue_delta_vs_parent",
	"completion_delta_pct_vs_parent",
	"doc_similarity_vs_parent",
	"convergence_score",
	"convergence_label",
}

// CSV writes one row per run with the headline metric columns.
func CSV(w io.Writer, result *evaluate.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvFields); err != nil {
		return err
	}
	for _, m := range result.RunMetrics {
		row := []string{
			m.RunID,
			m.SequenceID,
			strconv.Itoa(m.SequenceIndex),
			m.Timestamp,
			formatStr(m.ParentRunID),
			m.QAStatus,
			formatInt(m.QAIssueCount),
			formatFloat1(m.RequiredSectionsCompletionPct),
			formatFloat1(m.SectionArtifactsCompletionPct),
			formatInt(m.QAIssueDeltaVsParent),
			formatFloatPtr(m.CompletionDeltaVsParent),
			formatFloatPtr(m.DocSimilarityVsParent),
			formatFloatPtr(m.ConvergenceScore),
			m.ConvergenceLabel,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatDelta(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%+d", *v)
}

func formatStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatFloat1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
