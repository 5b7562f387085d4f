// Package workspace scaffolds run directories for the external generation
// collaborator: per-run folder layout, copied-in previous artifacts, and the
// run manifest that marks a directory as a real run.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/docfactory/internal/run"
)

// Workspace is rooted at the project directory holding the outputs tree.
type Workspace struct {
	root string
}

// New creates a Workspace rooted at root.
func New(root string) *Workspace {
	return &Workspace{root: root}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// Head names the artifacts a new run should copy in as its starting point.
// It is an explicit value chosen by the caller, never ambient state; a zero
// Head means a first run with nothing to copy.
type Head struct {
	DocPath    string
	ReviewPath string
}

// EnsurePaths creates the run-scoped folders that keep artifacts isolated.
func EnsurePaths(runDir string) error {
	for _, sub := range []string{run.SectionsDir, "adrs", run.InputsDirName, "logs"} {
		if err := os.MkdirAll(filepath.Join(runDir, sub), 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", sub, err)
		}
	}
	return nil
}

// CreateRunDir creates outputs/<date>/run_<timestamp>_<id> with the standard
// subfolders and returns the directory plus its sortable UTC timestamp.
func (w *Workspace) CreateRunDir() (string, string, error) {
	now := time.Now().UTC()
	timestamp := now.Format("20060102T150405Z")
	runID := strings.ReplaceAll(uuid.NewString(), "-", "")
	runDir := filepath.Join(w.root, "outputs", now.Format("2006-01-02"), fmt.Sprintf("run_%s_%s", timestamp, runID))
	if err := EnsurePaths(runDir); err != nil {
		return "", "", err
	}
	return runDir, timestamp, nil
}

// FindLatestPriorRun returns the newest run directory under outputs/ holding
// a reusable design doc or review report, excluding excludeDir. Empty string
// when no prior run exists. Run directory names embed sortable UTC
// timestamps, so lexical order is chronological.
func (w *Workspace) FindLatestPriorRun(excludeDir string) string {
	var candidates []string
	outputsDir := filepath.Join(w.root, "outputs")
	filepath.WalkDir(outputsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == outputsDir {
				return fs.SkipAll
			}
			return nil
		}
		if !d.IsDir() || !strings.HasPrefix(d.Name(), "run_") {
			return nil
		}
		if excludeDir != "" && sameDir(path, excludeDir) {
			return nil
		}
		if exists(filepath.Join(path, run.DocName)) || exists(filepath.Join(path, run.ReviewName)) {
			candidates = append(candidates, path)
		}
		return nil
	})
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[len(candidates)-1]
}

// HeadFor picks the starting-point artifacts for a new run: the latest prior
// run's outputs when one exists, otherwise the top-level outputs files.
func (w *Workspace) HeadFor(runDir string) Head {
	if prior := w.FindLatestPriorRun(runDir); prior != "" {
		h := Head{
			DocPath:    filepath.Join(prior, run.DocName),
			ReviewPath: filepath.Join(prior, run.ReviewName),
		}
		if exists(h.DocPath) || exists(h.ReviewPath) {
			return h
		}
	}
	return Head{
		DocPath:    filepath.Join(w.root, "outputs", run.DocName),
		ReviewPath: filepath.Join(w.root, "outputs", run.ReviewName),
	}
}

// CopyInputs copies the head artifacts into the run's inputs folder so the
// generation collaborator can reference them. It returns the workspace-
// relative paths of the copies; "" where the head artifact was absent,
// which is the normal state for a first run.
func (w *Workspace) CopyInputs(head Head, runDir string) (prevDoc, prevReview string, err error) {
	inputsDir := filepath.Join(runDir, run.InputsDirName)

	prevDoc, err = w.copyIfPresent(head.DocPath, filepath.Join(inputsDir, run.PrevDocName))
	if err != nil {
		return "", "", err
	}
	prevReview, err = w.copyIfPresent(head.ReviewPath, filepath.Join(inputsDir, run.PrevReviewName))
	if err != nil {
		return prevDoc, "", err
	}
	return prevDoc, prevReview, nil
}

// copyIfPresent copies src to dst when src exists, returning dst relative to
// the workspace root.
func (w *Workspace) copyIfPresent(src, dst string) (string, error) {
	if src == "" || !exists(src) {
		return "", nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src, err)
	}
	if err := run.WriteAtomic(dst, data); err != nil {
		return "", err
	}
	rel, err := filepath.Rel(w.root, dst)
	if err != nil {
		return dst, nil
	}
	return rel, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sameDir(a, b string) bool {
	ra, errA := filepath.Abs(a)
	rb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ra == rb
}
