package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "docfactory",
	Short: "docfactory — convergence analysis for iterative design-doc runs",
	Long: `docfactory evaluates the output tree of an iterative document-generation
pipeline: it reconstructs run lineage from content hashes, groups runs into
sequences, scores each run against its inferred parent, and reports whether
sequences are converging, oscillating, or stuck.

Evaluation history is stored in ~/.docfactory/ (SQLite).`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(scaffoldCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
