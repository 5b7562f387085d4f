package evaluate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasnoah/docfactory/internal/metrics"
	"github.com/lucasnoah/docfactory/internal/run"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func makeRun(t *testing.T, outputsDir, name, timestamp string) string {
	t.Helper()
	runDir := filepath.Join(outputsDir, "2026-02-25", name)
	manifest, err := json.Marshal(map[string]interface{}{
		"timestamp":  timestamp,
		"output_dir": filepath.Join("2026-02-25", name),
	})
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	writeFile(t, filepath.Join(runDir, run.ManifestName), string(manifest))
	return runDir
}

func docWithSections(sections []string) string {
	chunks := make([]string, len(sections))
	for i, s := range sections {
		chunks[i] = "## " + s + "\nText for " + s + "."
	}
	return strings.Join(chunks, "\n\n") + "\n"
}

func reviewJSON(t *testing.T, status string, sections []string) string {
	t.Helper()
	issues := make([]map[string]string, len(sections))
	for i, s := range sections {
		issues[i] = map[string]string{"section": s, "issue": "x", "fix": "y"}
	}
	data, err := json.Marshal(map[string]interface{}{"status": status, "issues": issues})
	if err != nil {
		t.Fatalf("marshal review: %v", err)
	}
	return string(data)
}

func metricFor(t *testing.T, result *Result, runID string) *metrics.RunMetric {
	t.Helper()
	for i := range result.RunMetrics {
		if result.RunMetrics[i].RunID == runID {
			return &result.RunMetrics[i]
		}
	}
	t.Fatalf("no metric for %s", runID)
	return nil
}

func TestEvaluateMissingDirectory(t *testing.T) {
	result := Evaluate(filepath.Join(t.TempDir(), "does-not-exist"), Options{})

	if result.RunCount != 0 || result.SequenceCount != 0 {
		t.Errorf("runs=%d sequences=%d, want 0/0 for missing directory", result.RunCount, result.SequenceCount)
	}
	if len(result.RunMetrics) != 0 || len(result.SequenceSummaries) != 0 {
		t.Errorf("non-empty metrics for missing directory")
	}
}

func TestEvaluateExcludesManifestlessDirectories(t *testing.T) {
	outputsDir := t.TempDir()
	makeRun(t, outputsDir, "run_20260225T100000Z_a", "20260225T100000Z")

	stray := filepath.Join(outputsDir, "2026-02-25", "run_20260225T110000Z_b")
	writeFile(t, filepath.Join(stray, run.DocName), "## Goals\nText.\n")

	result := Evaluate(outputsDir, Options{})
	if result.RunCount != 1 {
		t.Fatalf("run count = %d, want 1 (manifest-less directory is not a run)", result.RunCount)
	}
	if result.RunMetrics[0].RunID != "run_20260225T100000Z_a" {
		t.Errorf("run id = %q", result.RunMetrics[0].RunID)
	}
}

func TestEvaluateOscillatingChain(t *testing.T) {
	outputsDir := t.TempDir()
	sections := []string{"Goals", "Assumptions", "Risks & Mitigations"}

	docA := docWithSections(sections) + "\nRevision A.\n"
	docB := docWithSections(sections) + "\nRevision B.\n"
	docC := docWithSections(sections) + "\nRevision C.\n"

	a := makeRun(t, outputsDir, "run_20260225T100000Z_a", "20260225T100000Z")
	writeFile(t, filepath.Join(a, run.DocName), docA)
	writeFile(t, filepath.Join(a, run.ReviewName),
		reviewJSON(t, run.StatusFail, []string{"s1", "s2", "s3", "s4"}))

	b := makeRun(t, outputsDir, "run_20260225T110000Z_b", "20260225T110000Z")
	writeFile(t, filepath.Join(b, run.DocName), docB)
	writeFile(t, filepath.Join(b, run.ReviewName),
		reviewJSON(t, run.StatusFail, []string{"s1", "s2", "s3", "s4", "s5", "s6"}))
	writeFile(t, filepath.Join(b, run.InputsDirName, run.PrevDocName), docA)

	c := makeRun(t, outputsDir, "run_20260225T120000Z_c", "20260225T120000Z")
	writeFile(t, filepath.Join(c, run.DocName), docC)
	writeFile(t, filepath.Join(c, run.ReviewName),
		reviewJSON(t, run.StatusFail, []string{"s1", "s2", "s3", "s4", "s5"}))
	writeFile(t, filepath.Join(c, run.InputsDirName, run.PrevDocName), docB)

	result := Evaluate(outputsDir, Options{})

	if result.RunCount != 3 || result.SequenceCount != 1 {
		t.Fatalf("runs=%d sequences=%d, want 3 runs in 1 sequence", result.RunCount, result.SequenceCount)
	}

	mb := metricFor(t, result, "run_20260225T110000Z_b")
	if mb.ParentRunID == nil || *mb.ParentRunID != "run_20260225T100000Z_a" {
		t.Fatalf("b parent = %v, want run a", mb.ParentRunID)
	}
	if *mb.QAIssueDeltaVsParent != -2 {
		t.Errorf("b issue delta = %d, want -2 (4 -> 6 issues)", *mb.QAIssueDeltaVsParent)
	}
	if *mb.IntroducedIssuesVsParent != 2 || *mb.ResolvedIssuesVsParent != 0 {
		t.Errorf("b introduced/resolved = %d/%d, want 2/0",
			*mb.IntroducedIssuesVsParent, *mb.ResolvedIssuesVsParent)
	}

	mc := metricFor(t, result, "run_20260225T120000Z_c")
	if mc.ParentRunID == nil || *mc.ParentRunID != "run_20260225T110000Z_b" {
		t.Fatalf("c parent = %v, want run b", mc.ParentRunID)
	}
	if *mc.QAIssueDeltaVsParent != 1 {
		t.Errorf("c issue delta = %d, want +1 (6 -> 5 issues)", *mc.QAIssueDeltaVsParent)
	}

	s := result.SequenceSummaries[0]
	if !s.OscillationDetected {
		t.Error("oscillation not detected for counts 4 -> 6 -> 5")
	}
	if *s.BestQAIssueCount != 4 || *s.FinalQAIssueCount != 5 {
		t.Errorf("best/final = %d/%d, want 4/5", *s.BestQAIssueCount, *s.FinalQAIssueCount)
	}
	if s.Converged {
		t.Errorf("converged = true, want false (%s)", s.ConvergenceReason)
	}
}

func TestEvaluateReviewHashFallbackLinksRuns(t *testing.T) {
	outputsDir := t.TempDir()
	review := reviewJSON(t, run.StatusFail, []string{"Goals"})

	a := makeRun(t, outputsDir, "run_20260225T100000Z_a", "20260225T100000Z")
	writeFile(t, filepath.Join(a, run.ReviewName), review)

	// No previous doc at all: lineage falls back to the copied review report.
	b := makeRun(t, outputsDir, "run_20260225T110000Z_b", "20260225T110000Z")
	writeFile(t, filepath.Join(b, run.DocName), "## Goals\nText.\n")
	writeFile(t, filepath.Join(b, run.InputsDirName, run.PrevReviewName), review)

	result := Evaluate(outputsDir, Options{})
	mb := metricFor(t, result, "run_20260225T110000Z_b")
	if mb.ParentRunID == nil || *mb.ParentRunID != "run_20260225T100000Z_a" {
		t.Errorf("b parent = %v, want run a via review-hash fallback", mb.ParentRunID)
	}
	if result.SequenceCount != 1 {
		t.Errorf("sequence count = %d, want 1", result.SequenceCount)
	}
}

func TestEvaluateFinalPassConverges(t *testing.T) {
	outputsDir := t.TempDir()
	doc := docWithSections([]string{"Goals", "Assumptions"})

	a := makeRun(t, outputsDir, "run_20260225T100000Z_a", "20260225T100000Z")
	writeFile(t, filepath.Join(a, run.DocName), doc)
	writeFile(t, filepath.Join(a, run.ReviewName), reviewJSON(t, run.StatusFail, []string{"Goals"}))

	b := makeRun(t, outputsDir, "run_20260225T110000Z_b", "20260225T110000Z")
	writeFile(t, filepath.Join(b, run.DocName), doc)
	writeFile(t, filepath.Join(b, run.ReviewName), reviewJSON(t, run.StatusPass, nil))
	writeFile(t, filepath.Join(b, run.InputsDirName, run.PrevDocName), doc)

	result := Evaluate(outputsDir, Options{})
	s := result.SequenceSummaries[0]

	if !s.Converged || s.ConvergenceReason != "final run passed" {
		t.Errorf("converged=%v reason=%q, want final-pass verdict", s.Converged, s.ConvergenceReason)
	}
	if s.FinalQAStatus != run.StatusPass {
		t.Errorf("final status = %q, want PASS", s.FinalQAStatus)
	}
}

func TestEvaluateStablePlateauConverges(t *testing.T) {
	outputsDir := t.TempDir()
	doc := docWithSections([]string{"Goals", "Assumptions"})
	review := reviewJSON(t, run.StatusFail, []string{"Goals", "Assumptions", "Open Questions"})

	a := makeRun(t, outputsDir, "run_20260225T100000Z_a", "20260225T100000Z")
	writeFile(t, filepath.Join(a, run.DocName), doc)
	writeFile(t, filepath.Join(a, run.ReviewName), review)

	b := makeRun(t, outputsDir, "run_20260225T110000Z_b", "20260225T110000Z")
	writeFile(t, filepath.Join(b, run.DocName), doc)
	writeFile(t, filepath.Join(b, run.ReviewName), review)
	writeFile(t, filepath.Join(b, run.InputsDirName, run.PrevDocName), doc)

	result := Evaluate(outputsDir, Options{})
	s := result.SequenceSummaries[0]

	if !s.Converged || s.ConvergenceReason != "stable plateau" {
		t.Errorf("converged=%v reason=%q, want plateau verdict", s.Converged, s.ConvergenceReason)
	}
	if s.FinalQAStatus != run.StatusFail {
		t.Errorf("final status = %q, want FAIL despite convergence", s.FinalQAStatus)
	}
}

func TestEvaluateSplitsUnrelatedRunsIntoSequences(t *testing.T) {
	outputsDir := t.TempDir()

	a := makeRun(t, outputsDir, "run_20260225T100000Z_a", "20260225T100000Z")
	writeFile(t, filepath.Join(a, run.DocName), "## Goals\nAlpha project.\n")
	x := makeRun(t, outputsDir, "run_20260225T110000Z_x", "20260225T110000Z")
	writeFile(t, filepath.Join(x, run.DocName), "## Goals\nUnrelated project.\n")

	result := Evaluate(outputsDir, Options{})
	if result.SequenceCount != 2 {
		t.Fatalf("sequence count = %d, want 2 for unlinked runs", result.SequenceCount)
	}
	for _, m := range result.RunMetrics {
		if m.ConvergenceLabel != "baseline" {
			t.Errorf("%s: label = %q, want baseline", m.RunID, m.ConvergenceLabel)
		}
	}
}

func TestWriteResultRoundTrip(t *testing.T) {
	outputsDir := t.TempDir()
	a := makeRun(t, outputsDir, "run_20260225T100000Z_a", "20260225T100000Z")
	writeFile(t, filepath.Join(a, run.DocName), "## Goals\nText.\n")

	result := Evaluate(outputsDir, Options{})
	path := filepath.Join(t.TempDir(), "reports", "evaluation.json")
	if err := WriteResult(path, result); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	var decoded Result
	if err := run.ReadJSON(path, &decoded); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if decoded.RunCount != 1 || len(decoded.RunMetrics) != 1 {
		t.Errorf("decoded runs = %d metrics = %d, want 1/1", decoded.RunCount, len(decoded.RunMetrics))
	}
	if decoded.RunMetrics[0].RunID != "run_20260225T100000Z_a" {
		t.Errorf("decoded run id = %q", decoded.RunMetrics[0].RunID)
	}
}
