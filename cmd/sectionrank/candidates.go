package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	candidateFlags runFlags
	candidatesOut  string
)

// candidatesCmd exports heuristic candidates for classifier training.
var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Export heuristic heading candidates as CSV",
	Long: `Run the typographic heuristic alone (no classifier) over every document and
write the accepted lines with their features as CSV. The file starts with a
UTF-8 byte order mark and seeds training data for the heading classifier.

Examples:
  sectionrank candidates -i docs
  sectionrank candidates -i docs --csv training/candidates.csv`,
	Args: cobra.NoArgs,
	RunE: runCandidates,
}

func init() {
	candidateFlags.register(candidatesCmd.Flags(), false)
	candidatesCmd.Flags().StringVar(&candidatesOut, "csv", "candidates.csv", "CSV output path")
	rootCmd.AddCommand(candidatesCmd)
}

func runCandidates(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, &candidateFlags)
	if err != nil {
		return err
	}
	defer a.close()

	runner, err := a.runner(nil, nil)
	if err != nil {
		return err
	}
	batch, err := runner.Candidates(ctx, candidatesOut)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d candidates from %d documents to %s\n",
		len(batch.Candidates()), len(batch.Documents), candidatesOut)
	return nil
}
