// Package lineage infers parent links between runs and groups them into
// sequences. No run records an explicit ancestor id, so ancestry is
// reconstructed content-addressed: a run's copied-in "previous artifact"
// hashes are matched against other runs' own artifact hashes.
package lineage

import (
	"github.com/lucasnoah/docfactory/internal/run"
)

// ReconstructParents sets ParentRunID on every run it can resolve.
//
// Candidate parents for a run are all runs whose design-doc hash equals the
// run's previous-design-doc hash; when that yields nothing, all runs whose
// review-report hash equals the run's previous-review-report hash. Candidates
// must not be the run itself and must have a strictly earlier timestamp (a
// run cannot descend from something created after it). Among survivors the
// latest (timestamp, run_id) wins: an older copy could have been superseded
// before this run started. Two unrelated runs that copied identical content
// are indistinguishable; the ambiguity is accepted.
func ReconstructParents(runs []*run.Record) {
	byDocHash := make(map[string][]*run.Record)
	byReportHash := make(map[string][]*run.Record)
	for _, r := range runs {
		if r.DesignDocHash != "" {
			byDocHash[r.DesignDocHash] = append(byDocHash[r.DesignDocHash], r)
		}
		if r.ReviewReportHash != "" {
			byReportHash[r.ReviewReportHash] = append(byReportHash[r.ReviewReportHash], r)
		}
	}

	for _, r := range runs {
		var candidates []*run.Record
		if r.PrevDesignDocHash != "" {
			candidates = append(candidates, byDocHash[r.PrevDesignDocHash]...)
		}
		if len(candidates) == 0 && r.PrevReviewReportHash != "" {
			candidates = append(candidates, byReportHash[r.PrevReviewReportHash]...)
		}

		var parent *run.Record
		for _, c := range candidates {
			if c.RunID == r.RunID || c.Timestamp >= r.Timestamp {
				continue
			}
			if parent == nil || run.Less(parent, c) {
				parent = c
			}
		}
		if parent != nil {
			r.ParentRunID = parent.RunID
		}
	}
}
