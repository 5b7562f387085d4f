package config

import "github.com/lucasnoah/docfactory/internal/run"

// EvaluatorConfig is the top-level configuration structure parsed from
// docfactory YAML.
type EvaluatorConfig struct {
	Evaluator Evaluator `yaml:"evaluator"`
}

// Evaluator holds the evaluation parameters and document rules.
type Evaluator struct {
	OutputsDir           string  `yaml:"outputs_dir"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`
	RegressingThreshold  float64 `yaml:"regressing_threshold"`
	PlateauWindow        int     `yaml:"plateau_window"`

	// RequiredSections lists the H2 headings a complete design doc carries.
	RequiredSections []string `yaml:"required_sections"`
	// SectionArtifacts maps section artifact filenames to the headings each
	// must contain to count as valid.
	SectionArtifacts map[string][]string `yaml:"section_artifacts"`

	// HistoryDB is the path of the evaluation-history database.
	// Empty means ~/.docfactory/history.db.
	HistoryDB string `yaml:"history_db"`
}

// Rules converts the configured document rules into the loader's form.
func (e Evaluator) Rules() run.Rules {
	return run.Rules{
		RequiredSections: e.RequiredSections,
		SectionArtifacts: e.SectionArtifacts,
	}
}
