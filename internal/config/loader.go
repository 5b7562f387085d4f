package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/docfactory/internal/run"
)

// Default returns the built-in configuration: stock thresholds and the
// standard document rules.
func Default() *EvaluatorConfig {
	cfg := &EvaluatorConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses an evaluator configuration from the given YAML file
// path, then fills unset fields with defaults.
func Load(path string) (*EvaluatorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg EvaluatorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches standard locations and loads the first config found.
// Search order: ./docfactory.yaml, ~/.docfactory/config.yaml. When none
// exists the built-in defaults are returned.
func LoadDefault() (*EvaluatorConfig, error) {
	candidates := []string{"docfactory.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".docfactory", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return Default(), nil
}

// applyDefaults fills unset evaluator fields with built-in values.
func applyDefaults(cfg *EvaluatorConfig) {
	e := &cfg.Evaluator
	rules := run.DefaultRules()

	if e.OutputsDir == "" {
		e.OutputsDir = "outputs"
	}
	if e.ConvergenceThreshold == 0 {
		e.ConvergenceThreshold = 0.75
	}
	if e.RegressingThreshold == 0 {
		e.RegressingThreshold = 0.45
	}
	if e.PlateauWindow == 0 {
		e.PlateauWindow = 2
	}
	if len(e.RequiredSections) == 0 {
		e.RequiredSections = rules.RequiredSections
	}
	if len(e.SectionArtifacts) == 0 {
		e.SectionArtifacts = rules.SectionArtifacts
	}
}
