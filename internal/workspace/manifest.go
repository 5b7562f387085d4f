package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/lucasnoah/docfactory/internal/run"
)

// Manifest is the run metadata record. Its presence is what makes a
// directory a run; the evaluator skips directories without one.
type Manifest struct {
	Timestamp            string  `json:"timestamp"`
	RunDir               string  `json:"run_dir"`
	OutputDir            string  `json:"output_dir"`
	PreviousDesignDoc    string  `json:"previous_design_doc,omitempty"`
	PreviousReviewReport string  `json:"previous_review_report,omitempty"`
	QAStatus             *string `json:"qa_status"`
	QAIssues             *int    `json:"qa_issues"`
}

// WriteManifest persists run metadata for traceability. prevDoc and
// prevReview are the workspace-relative copied-input paths from CopyInputs,
// empty when nothing was copied.
func (w *Workspace) WriteManifest(runDir, timestamp, prevDoc, prevReview string) (string, error) {
	rel, err := filepath.Rel(w.root, runDir)
	if err != nil {
		rel = runDir
	}
	m := Manifest{
		Timestamp:            timestamp,
		RunDir:               rel,
		OutputDir:            rel,
		PreviousDesignDoc:    prevDoc,
		PreviousReviewReport: prevReview,
	}
	path := filepath.Join(runDir, run.ManifestName)
	if err := run.WriteJSON(path, &m); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// UpdateManifest records the review outcome after the reviewer has run, so
// the manifest reflects final run status.
func UpdateManifest(path string, status string, issues int) error {
	var m map[string]interface{}
	if err := run.ReadJSON(path, &m); err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	m["qa_status"] = status
	m["qa_issues"] = issues
	return run.WriteJSON(path, m)
}
