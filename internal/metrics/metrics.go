// Package metrics computes per-run quality deltas and sequence-level
// convergence verdicts from loaded run records.
package metrics

import (
	"sort"

	"github.com/lucasnoah/docfactory/internal/run"
)

// Convergence score weights. The thresholds are configurable; the weighting
// of the score components is part of the metric's definition.
const (
	weightQuality    = 0.40
	weightCompletion = 0.30
	weightStability  = 0.20
	weightRegression = 0.10
)

// Convergence labels.
const (
	LabelBaseline   = "baseline"
	LabelConverging = "converging"
	LabelMixed      = "mixed"
	LabelRegressing = "regressing"
)

// Config holds the tunable thresholds for convergence labeling.
type Config struct {
	// ConvergingThreshold is the minimum convergence score labeled
	// "converging".
	ConvergingThreshold float64
	// RegressingThreshold is the score below which a run is labeled
	// "regressing".
	RegressingThreshold float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{ConvergingThreshold: 0.75, RegressingThreshold: 0.45}
}

// RunMetric is the read-only per-run projection: an absolute snapshot plus,
// when a parent was resolved, deltas against that parent. Pointer fields are
// nil when the underlying value is unavailable.
type RunMetric struct {
	RunID         string  `json:"run_id"`
	OutputDir     string  `json:"output_dir"`
	Timestamp     string  `json:"timestamp"`
	SequenceID    string  `json:"sequence_id"`
	SequenceIndex int     `json:"sequence_index"`
	ParentRunID   *string `json:"parent_run_id"`

	QAStatus        string   `json:"qa_status"`
	QAIssueCount    *int     `json:"qa_issue_count"`
	QAIssueSections []string `json:"qa_issue_sections"`

	RequiredSectionsTotal         int     `json:"required_sections_total"`
	RequiredSectionsCompleted     int     `json:"required_sections_completed"`
	RequiredSectionsCompletionPct float64 `json:"required_sections_completion_pct"`
	SectionArtifactsTotal         int     `json:"section_artifacts_total"`
	SectionArtifactsPresent       int     `json:"section_artifacts_present"`
	SectionArtifactsValid         int     `json:"section_artifacts_valid"`
	SectionArtifactsCompletionPct float64 `json:"section_artifacts_completion_pct"`

	ResolvedIssuesVsParent   *int     `json:"resolved_issues_vs_parent"`
	IntroducedIssuesVsParent *int     `json:"introduced_issues_vs_parent"`
	UnchangedIssuesVsParent  *int     `json:"unchanged_issues_vs_parent"`
	IssueJaccardVsParent     *float64 `json:"issue_jaccard_vs_parent"`
	DocSimilarityVsParent    *float64 `json:"doc_similarity_vs_parent"`
	CompletionDeltaVsParent  *float64 `json:"completion_delta_pct_vs_parent"`
	QAIssueDeltaVsParent     *int     `json:"qa_issue_delta_vs_parent"`

	ConvergenceScore *float64 `json:"convergence_score"`
	ConvergenceLabel string   `json:"convergence_label"`
}

// ComputeRunMetrics builds a RunMetric for every run. Relative fields are
// populated only when the run's parent id resolves to a loaded run.
func ComputeRunMetrics(runs []*run.Record, cfg Config) []RunMetric {
	byID := make(map[string]*run.Record, len(runs))
	for _, r := range runs {
		byID[r.RunID] = r
	}

	out := make([]RunMetric, 0, len(runs))
	for _, r := range runs {
		m := RunMetric{
			RunID:         r.RunID,
			OutputDir:     r.OutputDir,
			Timestamp:     r.Timestamp,
			SequenceID:    r.SequenceID,
			SequenceIndex: r.SequenceIndex,

			QAStatus:        r.QAStatus,
			QAIssueCount:    r.QAIssueCount,
			QAIssueSections: sortedSections(r.QAIssueSections),

			RequiredSectionsTotal:         r.RequiredSectionsTotal,
			RequiredSectionsCompleted:     r.RequiredSectionsCompleted,
			RequiredSectionsCompletionPct: r.RequiredSectionsCompletionPct,
			SectionArtifactsTotal:         r.SectionArtifactsTotal,
			SectionArtifactsPresent:       r.SectionArtifactsPresent,
			SectionArtifactsValid:         r.SectionArtifactsValid,
			SectionArtifactsCompletionPct: r.SectionArtifactsCompletionPct,

			ConvergenceLabel: LabelBaseline,
		}

		var parent *run.Record
		if r.ParentRunID != "" {
			parent = byID[r.ParentRunID]
		}
		if parent != nil {
			pid := parent.RunID
			m.ParentRunID = &pid
			computeDeltas(&m, parent, r, cfg)
		}
		out = append(out, m)
	}
	return out
}

// computeDeltas fills the relative fields and the convergence score for a
// run with a resolved parent.
func computeDeltas(m *RunMetric, parent, r *run.Record, cfg Config) {
	resolved, introduced, unchanged, union := setAlgebra(parent.QAIssueSections, r.QAIssueSections)
	m.ResolvedIssuesVsParent = &resolved
	m.IntroducedIssuesVsParent = &introduced
	m.UnchangedIssuesVsParent = &unchanged

	jaccard := 0.0
	if union > 0 {
		jaccard = round4(float64(unchanged) / float64(union))
	}
	m.IssueJaccardVsParent = &jaccard

	m.DocSimilarityVsParent = Similarity(parent.DesignDocText, r.DesignDocText)

	completionDelta := round1(r.RequiredSectionsCompletionPct - parent.RequiredSectionsCompletionPct)
	m.CompletionDeltaVsParent = &completionDelta

	if parent.QAIssueCount != nil && r.QAIssueCount != nil {
		delta := *parent.QAIssueCount - *r.QAIssueCount
		m.QAIssueDeltaVsParent = &delta
	}

	// Quality: normalized issue-count improvement relative to the parent's
	// count. Unknown counts contribute a neutral 0.5.
	qualityNorm := 0.5
	if parent.QAIssueCount != nil && r.QAIssueCount != nil {
		raw := float64(*parent.QAIssueCount-*r.QAIssueCount) / float64(maxInt(*parent.QAIssueCount, 1))
		qualityNorm = remap(clamp(raw, -1.0, 1.0))
	}

	completionNorm := remap(clamp(completionDelta/100.0, -1.0, 1.0))

	// No computable similarity means maximally unstable.
	stability := 0.0
	if m.DocSimilarityVsParent != nil {
		stability = *m.DocSimilarityVsParent
	}

	regressionPenalty := 0.5
	if r.QAIssueCount != nil {
		denom := maxInt(*r.QAIssueCount+introduced, 1)
		regressionPenalty = 1.0 - clamp(float64(introduced)/float64(denom), 0.0, 1.0)
	}

	score := round4(weightQuality*qualityNorm +
		weightCompletion*completionNorm +
		weightStability*stability +
		weightRegression*regressionPenalty)
	m.ConvergenceScore = &score

	switch {
	case score >= cfg.ConvergingThreshold:
		m.ConvergenceLabel = LabelConverging
	case score < cfg.RegressingThreshold:
		m.ConvergenceLabel = LabelRegressing
	default:
		m.ConvergenceLabel = LabelMixed
	}
}

// setAlgebra returns |parent−current|, |current−parent|, |parent∩current|,
// and |parent∪current| over issue-section sets.
func setAlgebra(parent, current map[string]bool) (resolved, introduced, unchanged, union int) {
	for s := range parent {
		if current[s] {
			unchanged++
		} else {
			resolved++
		}
	}
	for s := range current {
		if !parent[s] {
			introduced++
		}
	}
	union = resolved + introduced + unchanged
	return resolved, introduced, unchanged, union
}

func sortedSections(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
