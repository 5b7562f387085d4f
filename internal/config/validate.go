package config

import "fmt"

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks an EvaluatorConfig for semantic errors. It returns a slice
// of all validation errors found (empty if valid).
func Validate(cfg *EvaluatorConfig) []ValidationError {
	var errs []ValidationError
	e := cfg.Evaluator

	if e.ConvergenceThreshold < 0 || e.ConvergenceThreshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "evaluator.convergence_threshold",
			Message: fmt.Sprintf("must be in [0,1], got %v", e.ConvergenceThreshold),
		})
	}
	if e.RegressingThreshold < 0 || e.RegressingThreshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "evaluator.regressing_threshold",
			Message: fmt.Sprintf("must be in [0,1], got %v", e.RegressingThreshold),
		})
	}
	if e.RegressingThreshold > e.ConvergenceThreshold {
		errs = append(errs, ValidationError{
			Field:   "evaluator.regressing_threshold",
			Message: "must not exceed convergence_threshold",
		})
	}
	if e.PlateauWindow < 1 {
		errs = append(errs, ValidationError{
			Field:   "evaluator.plateau_window",
			Message: fmt.Sprintf("must be at least 1, got %d", e.PlateauWindow),
		})
	}
	if len(e.RequiredSections) == 0 {
		errs = append(errs, ValidationError{
			Field:   "evaluator.required_sections",
			Message: "at least one required section is needed",
		})
	}

	seen := make(map[string]bool)
	for i, s := range e.RequiredSections {
		if s == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("evaluator.required_sections[%d]", i),
				Message: "empty section heading",
			})
			continue
		}
		if seen[s] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("evaluator.required_sections[%d]", i),
				Message: fmt.Sprintf("duplicate section %q", s),
			})
		}
		seen[s] = true
	}

	for filename, headers := range e.SectionArtifacts {
		if len(headers) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("evaluator.section_artifacts.%s", filename),
				Message: "must list at least one required heading",
			})
		}
	}

	return errs
}
