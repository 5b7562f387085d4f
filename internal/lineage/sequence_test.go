package lineage

import (
	"testing"

	"github.com/lucasnoah/docfactory/internal/run"
)

func TestAssignSequencesChainIndices(t *testing.T) {
	a := rec("run_a", "t1")
	b := rec("run_b", "t2")
	b.ParentRunID = "run_a"
	c := rec("run_c", "t3")
	c.ParentRunID = "run_b"

	seqs := AssignSequences([]*run.Record{a, b, c})

	if len(seqs) != 1 {
		t.Fatalf("got %d sequences, want 1", len(seqs))
	}
	for i, r := range seqs[0] {
		if r.SequenceIndex != i+1 {
			t.Errorf("%s: index = %d, want %d", r.RunID, r.SequenceIndex, i+1)
		}
		if r.SequenceID != a.SequenceID {
			t.Errorf("%s: sequence id = %q, want %q", r.RunID, r.SequenceID, a.SequenceID)
		}
	}
}

func TestAssignSequencesSplitsUnrelatedRuns(t *testing.T) {
	a := rec("run_a", "t1")
	b := rec("run_b", "t2")
	b.ParentRunID = "run_a"
	x := rec("run_x", "t3")

	seqs := AssignSequences([]*run.Record{a, b, x})

	if len(seqs) != 2 {
		t.Fatalf("got %d sequences, want 2", len(seqs))
	}
	if a.SequenceID == x.SequenceID {
		t.Errorf("unrelated runs share sequence %q", a.SequenceID)
	}
	if x.SequenceIndex != 1 {
		t.Errorf("lone root index = %d, want 1", x.SequenceIndex)
	}
}

func TestAssignSequencesDanglingParentIsRoot(t *testing.T) {
	a := rec("run_a", "t1")
	a.ParentRunID = "run_ghost"

	seqs := AssignSequences([]*run.Record{a})

	if len(seqs) != 1 {
		t.Fatalf("got %d sequences, want 1", len(seqs))
	}
	if a.SequenceIndex != 1 || a.SequenceID == "" {
		t.Errorf("dangling-parent run not treated as root: index=%d id=%q", a.SequenceIndex, a.SequenceID)
	}
}

func TestAssignSequencesCycleFallsBackToSingletons(t *testing.T) {
	// Mutually referencing parents are unreachable from any root; the
	// fallback still places each in exactly one sequence.
	a := rec("run_a", "t1")
	b := rec("run_b", "t2")
	a.ParentRunID = "run_b"
	b.ParentRunID = "run_a"

	seqs := AssignSequences([]*run.Record{a, b})

	if len(seqs) != 2 {
		t.Fatalf("got %d sequences, want 2 singletons", len(seqs))
	}
	for _, r := range []*run.Record{a, b} {
		if r.SequenceID == "" || r.SequenceIndex != 1 {
			t.Errorf("%s: id=%q index=%d, want singleton", r.RunID, r.SequenceID, r.SequenceIndex)
		}
	}
	if a.SequenceID == b.SequenceID {
		t.Errorf("cycle members share sequence %q", a.SequenceID)
	}
}

func TestAssignSequencesBranchingForestStaysOneSequence(t *testing.T) {
	root := rec("run_root", "t1")
	left := rec("run_left", "t2")
	left.ParentRunID = "run_root"
	right := rec("run_right", "t3")
	right.ParentRunID = "run_root"
	leaf := rec("run_leaf", "t4")
	leaf.ParentRunID = "run_left"

	seqs := AssignSequences([]*run.Record{root, left, right, leaf})

	if len(seqs) != 1 {
		t.Fatalf("got %d sequences, want 1", len(seqs))
	}
	if len(seqs[0]) != 4 {
		t.Fatalf("sequence has %d members, want 4", len(seqs[0]))
	}
	// Indices are assigned by (timestamp, run_id), not traversal order.
	wantOrder := []string{"run_root", "run_left", "run_right", "run_leaf"}
	for i, r := range seqs[0] {
		if r.RunID != wantOrder[i] {
			t.Errorf("position %d = %s, want %s", i, r.RunID, wantOrder[i])
		}
		if r.SequenceIndex != i+1 {
			t.Errorf("%s: index = %d, want %d", r.RunID, r.SequenceIndex, i+1)
		}
	}
}

func TestAssignSequencesEveryRunBelongsToExactlyOne(t *testing.T) {
	runs := []*run.Record{
		rec("run_a", "t1"),
		rec("run_b", "t2"),
		rec("run_c", "t3"),
	}
	runs[1].ParentRunID = "run_a"
	runs[2].ParentRunID = "run_missing"

	seqs := AssignSequences(runs)

	seen := make(map[string]int)
	for _, seq := range seqs {
		for _, r := range seq {
			seen[r.RunID]++
		}
	}
	for _, r := range runs {
		if seen[r.RunID] != 1 {
			t.Errorf("%s appears in %d sequences, want 1", r.RunID, seen[r.RunID])
		}
	}
}
