package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/docfactory/internal/workspace"
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Create a new run directory with copied-in previous artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _ := cmd.Flags().GetString("root")
		ws := workspace.New(root)

		runDir, timestamp, err := ws.CreateRunDir()
		if err != nil {
			return fmt.Errorf("create run dir: %w", err)
		}

		head := ws.HeadFor(runDir)
		prevDoc, prevReview, err := ws.CopyInputs(head, runDir)
		if err != nil {
			return fmt.Errorf("copy previous inputs: %w", err)
		}

		manifestPath, err := ws.WriteManifest(runDir, timestamp, prevDoc, prevReview)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Run directory: %s\n", runDir)
		fmt.Fprintf(w, "Manifest: %s\n", manifestPath)
		if prevDoc != "" {
			fmt.Fprintf(w, "Previous design doc: %s\n", prevDoc)
		}
		if prevReview != "" {
			fmt.Fprintf(w, "Previous review report: %s\n", prevReview)
		}
		if prevDoc == "" && prevReview == "" {
			fmt.Fprintln(w, "No previous artifacts found; this is a first run.")
		}
		return nil
	},
}

func init() {
	scaffoldCmd.Flags().String("root", ".", "Workspace root holding the outputs tree")
}
