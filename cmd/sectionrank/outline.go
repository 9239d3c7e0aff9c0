package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var outlineFlags runFlags

// outlineCmd writes per-document outlines without ranking.
var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Write the heading outline of every document",
	Long: `Write <output>/<document>.json for every document in the input directory:

  {"title": "...", "outline": [{"level": "H1", "text": "...", "page": 1}]}

No embedding model is needed.

Examples:
  sectionrank outline -i docs -o out
  sectionrank outline --title-policy first-heading`,
	Args: cobra.NoArgs,
	RunE: runOutline,
}

func init() {
	outlineFlags.register(outlineCmd.Flags(), false)
	outlineCmd.Flags().StringVar(&outlineFlags.titlePolicy, "title-policy", "", "Outline title policy (first-h1, first-heading)")
	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, &outlineFlags)
	if err != nil {
		return err
	}
	defer a.close()

	runner, err := a.runner(nil, nil)
	if err != nil {
		return err
	}
	batch, err := runner.Outlines(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, d := range batch.Documents {
		if d.Failed {
			fmt.Fprintf(out, "%-40s failed: %v\n", d.ID, d.Err)
			continue
		}
		fmt.Fprintf(out, "%-40s %d headings\n", d.ID, len(d.Candidates))
	}
	return nil
}
