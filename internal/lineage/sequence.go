package lineage

import (
	"fmt"
	"path/filepath"

	"github.com/lucasnoah/docfactory/internal/run"
)

// AssignSequences partitions runs into chains connected by parent links,
// stamping each run with a sequence id and a 1-based index in
// (timestamp, run_id) order. It returns the sequences in assignment order.
//
// Roots are runs without a parent, or whose parent id matches no loaded run
// (a dangling reference starts a new sequence). Each root's descendant forest
// is collected breadth-first. Any run never reached from a root — a parent
// that was itself skipped, or a cycle produced by hash collisions — lands in
// its own singleton sequence, so every run belongs to exactly one sequence
// and the traversal always terminates.
func AssignSequences(runs []*run.Record) [][]*run.Record {
	byID := make(map[string]*run.Record, len(runs))
	for _, r := range runs {
		byID[r.RunID] = r
	}

	children := make(map[string][]*run.Record)
	var roots []*run.Record
	for _, r := range runs {
		if r.ParentRunID != "" && byID[r.ParentRunID] != nil {
			children[r.ParentRunID] = append(children[r.ParentRunID], r)
		} else {
			roots = append(roots, r)
		}
	}
	for _, kids := range children {
		run.Sort(kids)
	}
	run.Sort(roots)

	visited := make(map[string]bool)
	var sequences [][]*run.Record
	seqNum := 0

	for _, root := range roots {
		if visited[root.RunID] {
			continue
		}
		seqNum++
		seqID := sequenceID(root, seqNum)

		queue := []*run.Record{root}
		var members []*run.Record
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if visited[current.RunID] {
				continue
			}
			visited[current.RunID] = true
			members = append(members, current)
			queue = append(queue, children[current.RunID]...)
		}

		run.Sort(members)
		for i, r := range members {
			r.SequenceID = seqID
			r.SequenceIndex = i + 1
		}
		sequences = append(sequences, members)
	}

	// Leftovers from cycles or skipped parents become singletons.
	for _, r := range runs {
		if visited[r.RunID] {
			continue
		}
		seqNum++
		r.SequenceID = sequenceID(r, seqNum)
		r.SequenceIndex = 1
		sequences = append(sequences, []*run.Record{r})
	}
	return sequences
}

// sequenceID derives a stable identifier from the run's parent directory
// (typically a date folder) and a counter.
func sequenceID(r *run.Record, n int) string {
	return fmt.Sprintf("seq_%s_%03d", filepath.Base(filepath.Dir(r.RunDir)), n)
}
