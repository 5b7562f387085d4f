// Package evaluate composes the loader, lineage reconstruction, metrics
// engine, and summarizer into a single pass over an outputs tree.
package evaluate

import (
	"github.com/lucasnoah/docfactory/internal/lineage"
	"github.com/lucasnoah/docfactory/internal/metrics"
	"github.com/lucasnoah/docfactory/internal/run"
)

// Options holds the tunable evaluation parameters. Zero values are replaced
// by defaults, so Options{} evaluates with stock settings.
type Options struct {
	// ConvergenceThreshold is the minimum convergence score labeled
	// "converging". Default 0.75.
	ConvergenceThreshold float64
	// RegressingThreshold is the score below which a run is labeled
	// "regressing". Default 0.45.
	RegressingThreshold float64
	// PlateauWindow is how many tail runs the stable-plateau check inspects.
	// Default 2.
	PlateauWindow int
	// Rules describes required document sections and section artifacts.
	// Defaults to run.DefaultRules().
	Rules *run.Rules
}

func (o Options) withDefaults() Options {
	if o.ConvergenceThreshold == 0 {
		o.ConvergenceThreshold = 0.75
	}
	if o.RegressingThreshold == 0 {
		o.RegressingThreshold = 0.45
	}
	if o.PlateauWindow == 0 {
		o.PlateauWindow = 2
	}
	if o.Rules == nil {
		rules := run.DefaultRules()
		o.Rules = &rules
	}
	return o
}

// Result is the structured output of one evaluation pass.
type Result struct {
	OutputsDir        string                    `json:"outputs_dir"`
	RunCount          int                       `json:"run_count"`
	SequenceCount     int                       `json:"sequence_count"`
	RunMetrics        []metrics.RunMetric       `json:"run_metrics"`
	SequenceSummaries []metrics.SequenceSummary `json:"sequence_summaries"`
}

// Evaluate runs the full pipeline over every run directory under outputsDir:
// discover and load, reconstruct lineage, assign sequences, compute per-run
// metrics, summarize sequences. A missing directory yields an empty result.
func Evaluate(outputsDir string, opts Options) *Result {
	opts = opts.withDefaults()

	runs := run.Discover(outputsDir, *opts.Rules)
	lineage.ReconstructParents(runs)
	sequences := lineage.AssignSequences(runs)

	cfg := metrics.Config{
		ConvergingThreshold: opts.ConvergenceThreshold,
		RegressingThreshold: opts.RegressingThreshold,
	}
	runMetrics := metrics.ComputeRunMetrics(runs, cfg)
	summaries := metrics.SummarizeSequences(sequences, runMetrics, opts.PlateauWindow)

	return &Result{
		OutputsDir:        outputsDir,
		RunCount:          len(runs),
		SequenceCount:     len(sequences),
		RunMetrics:        runMetrics,
		SequenceSummaries: summaries,
	}
}

// WriteResult serializes the result as pretty-printed JSON at path,
// atomically, creating parent directories as needed.
func WriteResult(path string, result *Result) error {
	return run.WriteJSON(path, result)
}
