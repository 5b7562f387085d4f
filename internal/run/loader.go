package run

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// hashFile returns the sha256 hex digest of a file's content, or "" if the
// file does not exist or is not a regular file. The hash is a pure function
// of byte content; location never matters.
func hashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// readText returns the file's content, or "" if it does not exist.
func readText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// loadJSONObject reads path as a JSON object. ok is false when the file is
// missing, unparsable, or parses to something other than an object.
func loadJSONObject(path string) (obj map[string]interface{}, exists, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, false
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, true, false
	}
	if obj == nil {
		// JSON null unmarshals into a nil map without error.
		return nil, true, false
	}
	return obj, true, true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// countRequiredSections counts how many required "## <heading>" sections the
// document contains. An empty document completes nothing.
func countRequiredSections(doc string, required []string) (total, completed int, pct float64) {
	total = len(required)
	if doc == "" || total == 0 {
		return total, 0, 0.0
	}
	for _, section := range required {
		if strings.Contains(doc, "## "+section) {
			completed++
		}
	}
	return total, completed, round1(float64(completed) / float64(total) * 100.0)
}

// evaluateSectionArtifacts checks the sections/ subdirectory against the
// configured filename -> required headings map. The completion percentage is
// based on valid files, not merely present ones.
func evaluateSectionArtifacts(runDir string, artifacts map[string][]string) (total, present, valid int, pct float64) {
	total = len(artifacts)
	if total == 0 {
		return 0, 0, 0, 0.0
	}
	sectionsDir := filepath.Join(runDir, SectionsDir)
	for filename, headers := range artifacts {
		content, err := os.ReadFile(filepath.Join(sectionsDir, filename))
		if err != nil {
			continue
		}
		present++
		text := string(content)
		allFound := true
		for _, header := range headers {
			if !strings.Contains(text, "## "+header) {
				allFound = false
				break
			}
		}
		if allFound {
			valid++
		}
	}
	return total, present, valid, round1(float64(valid) / float64(total) * 100.0)
}

// parseReviewReport reads the run's review report permissively. A report that
// exists but is not a JSON object yields StatusMissing with no issue count;
// an absent report yields an empty status. That distinction matters to
// downstream completeness checks.
func parseReviewReport(runDir string) (status string, count *int, sections map[string]bool, hash string) {
	path := filepath.Join(runDir, ReviewName)
	hash = hashFile(path)
	sections = make(map[string]bool)

	data, exists, ok := loadJSONObject(path)
	if !ok {
		if exists {
			return StatusMissing, nil, sections, hash
		}
		return "", nil, sections, hash
	}

	if s, isStr := data["status"].(string); isStr {
		status = s
	}
	issues, _ := data["issues"].([]interface{})
	n := len(issues)
	count = &n
	for _, item := range issues {
		if obj, isObj := item.(map[string]interface{}); isObj {
			if section, isStr := obj["section"].(string); isStr {
				sections[section] = true
			}
		}
	}
	return status, count, sections, hash
}

// Load reads a single run directory into a Record. It returns (nil, false)
// when the manifest is absent or unparsable: a run with no manifest is not a
// run. Every other missing artifact degrades to a safe default.
func Load(outputsDir, runDir string, rules Rules) (*Record, bool) {
	manifest, _, ok := loadJSONObject(filepath.Join(runDir, ManifestName))
	if !ok {
		return nil, false
	}

	runID := filepath.Base(runDir)

	outputDir := ""
	if s, isStr := manifest["output_dir"].(string); isStr {
		outputDir = s
	} else if rel, err := filepath.Rel(outputsDir, runDir); err == nil {
		outputDir = rel
	} else {
		outputDir = runDir
	}

	timestamp := runID
	if s, isStr := manifest["timestamp"].(string); isStr {
		timestamp = s
	}

	docPath := filepath.Join(runDir, DocName)
	docText := readText(docPath)
	reqTotal, reqDone, reqPct := countRequiredSections(docText, rules.RequiredSections)
	artTotal, artPresent, artValid, artPct := evaluateSectionArtifacts(runDir, rules.SectionArtifacts)
	status, issueCount, issueSections, reviewHash := parseReviewReport(runDir)

	_, statErr := os.Stat(docPath)

	return &Record{
		RunID:     runID,
		RunDir:    runDir,
		OutputDir: outputDir,
		Timestamp: timestamp,
		Manifest:  manifest,

		QAStatus:        status,
		QAIssueCount:    issueCount,
		QAIssueSections: issueSections,

		DesignDocExists: statErr == nil,
		DesignDocText:   docText,

		DesignDocHash:        hashFile(docPath),
		ReviewReportHash:     reviewHash,
		PrevDesignDocHash:    hashFile(filepath.Join(runDir, InputsDirName, PrevDocName)),
		PrevReviewReportHash: hashFile(filepath.Join(runDir, InputsDirName, PrevReviewName)),

		RequiredSectionsTotal:         reqTotal,
		RequiredSectionsCompleted:     reqDone,
		RequiredSectionsCompletionPct: reqPct,
		SectionArtifactsTotal:         artTotal,
		SectionArtifactsPresent:       artPresent,
		SectionArtifactsValid:         artValid,
		SectionArtifactsCompletionPct: artPct,
	}, true
}

// Discover enumerates every run directory under outputsDir (any directory
// named run_* holding a parsable manifest) and loads each one. Runs are
// returned sorted by (timestamp, run_id) to fix a deterministic processing
// order. A missing outputsDir yields zero runs, not an error.
func Discover(outputsDir string, rules Rules) []*Record {
	var runs []*Record
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
		if rec, ok := Load(outputsDir, path, rules); ok {
			runs = append(runs, rec)
		}
		return nil
	})
	Sort(runs)
	return runs
}

// Sort orders runs by (timestamp, run_id), the canonical ordering used
// throughout the pipeline.
func Sort(runs []*Record) {
	sort.Slice(runs, func(i, j int) bool {
		return Less(runs[i], runs[j])
	})
}

// Less reports whether a orders before b by (timestamp, run_id).
func Less(a, b *Record) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.RunID < b.RunID
}
