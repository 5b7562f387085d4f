package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/lucasnoah/docfactory/internal/evaluate"
	"github.com/lucasnoah/docfactory/internal/metrics"
)

func sampleResult() *evaluate.Result {
	parent := "run_a"
	count := 5
	delta := -2
	score := 0.75
	return &evaluate.Result{
		OutputsDir:    "outputs",
		RunCount:      2,
		SequenceCount: 1,
		RunMetrics: []metrics.RunMetric{
			{
				RunID:                         "run_a",
				SequenceID:                    "seq_2026-02-25_001",
				SequenceIndex:                 1,
				Timestamp:                     "20260225T100000Z",
				QAStatus:                      "FAIL",
				RequiredSectionsCompletionPct: 85.7,
				ConvergenceLabel:              "baseline",
			},
			{
				RunID:                         "run_b",
				SequenceID:                    "seq_2026-02-25_001",
				SequenceIndex:                 2,
				Timestamp:                     "20260225T110000Z",
				ParentRunID:                   &parent,
				QAStatus:                      "FAIL",
				QAIssueCount:                  &count,
				RequiredSectionsCompletionPct: 92.9,
				QAIssueDeltaVsParent:          &delta,
				ConvergenceScore:              &score,
				ConvergenceLabel:              "converging",
			},
		},
		SequenceSummaries: []metrics.SequenceSummary{{
			SequenceID:        "seq_2026-02-25_001",
			Length:            2,
			FinalQAStatus:     "FAIL",
			FinalQAIssueCount: &count,
			BestCompletionPct: 92.9,
			Converged:         false,
			ConvergenceReason: "no pass and no stable plateau",
		}},
	}
}

func TestTableListsRunsAndSummaries(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, sampleResult()); err != nil {
		t.Fatalf("Table: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"run_a", "run_b", "baseline", "converging", "-2", "Sequence summaries:", "seq_2026-02-25_001"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "oscillation=false converged=false") {
		t.Errorf("summary line missing verdict flags:\n%s", out)
	}
}

func TestTableEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, &evaluate.Result{}); err != nil {
		t.Fatalf("Table: %v", err)
	}
	if got := buf.String(); got != "No runs found.\n" {
		t.Errorf("empty output = %q", got)
	}
}

func TestCSVRowsAndNullColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sampleResult()); err != nil {
		t.Fatalf("CSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 runs", len(rows))
	}
	header := rows[0]
	if header[0] != "run_id" || header[len(header)-1] != "convergence_label" {
		t.Errorf("header = %v", header)
	}
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			t.Errorf("row has %d columns, want %d", len(row), len(header))
		}
	}

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %q", name)
		return -1
	}

	// The baseline run renders unavailable metrics as empty cells.
	baseline := rows[1]
	if baseline[col("parent_run_id")] != "" || baseline[col("qa_issue_count")] != "" {
		t.Errorf("baseline nullable columns = %q/%q, want empty",
			baseline[col("parent_run_id")], baseline[col("qa_issue_count")])
	}
	if baseline[col("required_sections_completion_pct")] != "85.7" {
		t.Errorf("completion = %q, want 85.7", baseline[col("required_sections_completion_pct")])
	}

	child := rows[2]
	if child[col("parent_run_id")] != "run_a" {
		t.Errorf("parent = %q, want run_a", child[col("parent_run_id")])
	}
	if child[col("qa_issue_delta_vs_parent")] != "-2" {
		t.Errorf("issue delta = %q, want -2", child[col("qa_issue_delta_vs_parent")])
	}
	if child[col("convergence_score")] != "0.75" {
		t.Errorf("score = %q, want 0.75", child[col("convergence_score")])
	}
}
