package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis once and print the snapshot as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := svc.Snapshot(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
