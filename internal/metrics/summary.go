package metrics

import (
	"math"

	"github.com/lucasnoah/docfactory/internal/run"
)

// Convergence verdict reasons.
const (
	ReasonFinalPassed  = "final run passed"
	ReasonPlateau      = "stable plateau"
	ReasonNotConverged = "no pass and no stable plateau"
)

// SequenceSummary aggregates a sequence's per-run metrics into oscillation
// and convergence verdicts.
type SequenceSummary struct {
	SequenceID     string   `json:"sequence_id"`
	RunIDs         []string `json:"run_ids"`
	Length         int      `json:"length"`
	StartTimestamp string   `json:"start_timestamp"`
	EndTimestamp   string   `json:"end_timestamp"`

	FinalQAStatus      string  `json:"final_qa_status"`
	BestQAIssueCount   *int    `json:"best_qa_issue_count"`
	FinalQAIssueCount  *int    `json:"final_qa_issue_count"`
	BestCompletionPct  float64 `json:"best_completion_pct"`
	FinalCompletionPct float64 `json:"final_completion_pct"`

	OscillationDetected bool   `json:"oscillation_detected"`
	Converged           bool   `json:"converged"`
	ConvergenceReason   string `json:"convergence_reason"`
}

// SummarizeSequences builds a summary per sequence. Runs within each
// sequence are considered in (timestamp, run_id) order.
func SummarizeSequences(sequences [][]*run.Record, runMetrics []RunMetric, plateauWindow int) []SequenceSummary {
	byID := make(map[string]*RunMetric, len(runMetrics))
	for i := range runMetrics {
		byID[runMetrics[i].RunID] = &runMetrics[i]
	}

	summaries := make([]SequenceSummary, 0, len(sequences))
	for _, seq := range sequences {
		members := make([]*run.Record, len(seq))
		copy(members, seq)
		run.Sort(members)

		ids := make([]string, len(members))
		ms := make([]*RunMetric, len(members))
		for i, r := range members {
			ids[i] = r.RunID
			ms[i] = byID[r.RunID]
		}
		final := ms[len(ms)-1]
		best := bestMetric(ms)

		converged, reason := convergenceVerdict(ms, plateauWindow)

		summaries = append(summaries, SequenceSummary{
			SequenceID:     members[0].SequenceID,
			RunIDs:         ids,
			Length:         len(ids),
			StartTimestamp: members[0].Timestamp,
			EndTimestamp:   members[len(members)-1].Timestamp,

			FinalQAStatus:      final.QAStatus,
			BestQAIssueCount:   best.QAIssueCount,
			FinalQAIssueCount:  final.QAIssueCount,
			BestCompletionPct:  best.RequiredSectionsCompletionPct,
			FinalCompletionPct: final.RequiredSectionsCompletionPct,

			OscillationDetected: detectOscillation(ms),
			Converged:           converged,
			ConvergenceReason:   reason,
		})
	}
	return summaries
}

// detectOscillation walks consecutive issue-count deltas (over runs with a
// known count) and flags the sequence when two consecutive nonzero deltas
// disagree in sign: improvement and regression alternating rather than
// trending.
func detectOscillation(ms []*RunMetric) bool {
	var deltas []int
	var prev *int
	for _, m := range ms {
		if m.QAIssueCount == nil {
			continue
		}
		if prev != nil {
			deltas = append(deltas, *m.QAIssueCount-*prev)
		}
		prev = m.QAIssueCount
	}

	lastSign := 0
	for _, d := range deltas {
		s := sign(d)
		if s == 0 {
			continue
		}
		if lastSign != 0 && s != lastSign {
			return true
		}
		lastSign = s
	}
	return false
}

// convergenceVerdict decides whether a sequence has converged: either its
// final run passed review, or its tail shows a stable plateau. The plateau
// check requires every run in the window to share one issue count, no newly
// introduced issues after the window's first run (an unavailable delta
// counts as zero), document similarity >= 0.95, and an absolute completion
// delta <= 1.0 percentage point.
func convergenceVerdict(ms []*RunMetric, plateauWindow int) (bool, string) {
	final := ms[len(ms)-1]
	if final.QAStatus == run.StatusPass {
		return true, ReasonFinalPassed
	}
	if plateauWindow >= 2 && len(ms) >= plateauWindow {
		tail := ms[len(ms)-plateauWindow:]
		if isPlateau(tail) {
			return true, ReasonPlateau
		}
	}
	return false, ReasonNotConverged
}

func isPlateau(tail []*RunMetric) bool {
	first := tail[0].QAIssueCount
	for _, m := range tail {
		if m.QAIssueCount == nil || first == nil || *m.QAIssueCount != *first {
			return false
		}
	}
	for _, m := range tail[1:] {
		if m.IntroducedIssuesVsParent != nil && *m.IntroducedIssuesVsParent != 0 {
			return false
		}
		if m.DocSimilarityVsParent == nil || *m.DocSimilarityVsParent < 0.95 {
			return false
		}
		if m.CompletionDeltaVsParent == nil || math.Abs(*m.CompletionDeltaVsParent) > 1.0 {
			return false
		}
	}
	return true
}

// bestMetric selects the sequence's best run: passing status first, then
// fewest issues (an unknown count sorts as worst), then highest completion
// percentage, then the most recent timestamp.
func bestMetric(ms []*RunMetric) *RunMetric {
	best := ms[0]
	for _, m := range ms[1:] {
		if betterThan(m, best) {
			best = m
		}
	}
	return best
}

func betterThan(a, b *RunMetric) bool {
	ap, bp := boolToInt(a.QAStatus == run.StatusPass), boolToInt(b.QAStatus == run.StatusPass)
	if ap != bp {
		return ap > bp
	}
	ai, bi := issueRank(a.QAIssueCount), issueRank(b.QAIssueCount)
	if ai != bi {
		return ai < bi
	}
	if a.RequiredSectionsCompletionPct != b.RequiredSectionsCompletionPct {
		return a.RequiredSectionsCompletionPct > b.RequiredSectionsCompletionPct
	}
	return a.Timestamp > b.Timestamp
}

// issueRank treats an unknown issue count as a very large one.
func issueRank(count *int) int {
	if count == nil {
		return int(1e9)
	}
	return *count
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
