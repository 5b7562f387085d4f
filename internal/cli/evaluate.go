package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/docfactory/internal/config"
	"github.com/lucasnoah/docfactory/internal/evaluate"
	"github.com/lucasnoah/docfactory/internal/history"
	"github.com/lucasnoah/docfactory/internal/report"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate run lineage, metrics, and convergence over an outputs tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDefault()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		outputsDir, _ := cmd.Flags().GetString("outputs-dir")
		if outputsDir == "" {
			outputsDir = cfg.Evaluator.OutputsDir
		}
		if date, _ := cmd.Flags().GetString("date"); date != "" {
			outputsDir = filepath.Join(outputsDir, date)
		}

		threshold, _ := cmd.Flags().GetFloat64("convergence-threshold")
		if !cmd.Flags().Changed("convergence-threshold") {
			threshold = cfg.Evaluator.ConvergenceThreshold
		}
		window, _ := cmd.Flags().GetInt("plateau-window")
		if !cmd.Flags().Changed("plateau-window") {
			window = cfg.Evaluator.PlateauWindow
		}

		rules := cfg.Evaluator.Rules()
		result := evaluate.Evaluate(outputsDir, evaluate.Options{
			ConvergenceThreshold: threshold,
			RegressingThreshold:  cfg.Evaluator.RegressingThreshold,
			PlateauWindow:        window,
			Rules:                &rules,
		})

		if writePath, _ := cmd.Flags().GetString("write"); writePath != "" {
			if err := evaluate.WriteResult(writePath, result); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}

		if record, _ := cmd.Flags().GetBool("record"); record {
			if err := recordEvaluation(cfg, result); err != nil {
				return fmt.Errorf("record evaluation: %w", err)
			}
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		case "csv":
			return report.CSV(cmd.OutOrStdout(), result)
		default:
			return report.Table(cmd.OutOrStdout(), result)
		}
	},
}

// recordEvaluation appends the result to the history database.
func recordEvaluation(cfg *config.EvaluatorConfig, result *evaluate.Result) error {
	path := cfg.Evaluator.HistoryDB
	if path == "" {
		var err error
		path, err = history.DefaultPath()
		if err != nil {
			return err
		}
	}
	db, err := history.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Record(result)
	return err
}

func init() {
	evaluateCmd.Flags().String("outputs-dir", "", "Base outputs directory (default from config)")
	evaluateCmd.Flags().String("date", "", "Optional date folder filter (YYYY-MM-DD)")
	evaluateCmd.Flags().String("format", "table", "Output format: table, json, or csv")
	evaluateCmd.Flags().String("write", "", "Optional path to write the JSON report")
	evaluateCmd.Flags().Int("plateau-window", 2, "Tail runs inspected by the stable-plateau check")
	evaluateCmd.Flags().Float64("convergence-threshold", 0.75, "Minimum score labeled converging")
	evaluateCmd.Flags().Bool("record", false, "Record the result in the evaluation history database")
}
