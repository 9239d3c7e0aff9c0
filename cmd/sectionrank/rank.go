package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sectionrank/internal/pipeline"
)

var rankFlags runFlags

// rankCmd runs the full batch.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Extract headings from every document and rank them for the query",
	Long: `Extract headings from every document in the input directory and rank them
by similarity to "<persona>. <job>". The persona and job come from --persona and
--job, or from the first JSON file in the input directory:

  {"persona": {"role": "..."}, "job_to_be_done": {"task": "..."}}

Writes <output>/final_output.json and, unless disabled, one outline file per
document.

Examples:
  # Rank using the query file in ./input
  sectionrank rank

  # Explicit query and directories
  sectionrank rank -i docs -o out --persona "Travel Planner" --job "Plan a 4 day trip"

  # Report unranked sections instead of failing when embeddings break
  sectionrank rank --strict=false`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

func init() {
	rankFlags.register(rankCmd.Flags(), true)
	rankCmd.Flags().StringVar(&rankFlags.titlePolicy, "title-policy", "", "Outline title policy (first-h1, first-heading)")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, &rankFlags)
	if err != nil {
		return err
	}
	defer a.close()

	// A bad query or model fails here, before the provider fetches its
	// runtime and model.
	_, confirm, err := pipeline.Preflight(a.cfg)
	if err != nil {
		return err
	}

	provider, err := a.embedder(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	runner, err := a.runner(provider, confirm)
	if err != nil {
		return err
	}
	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ranked %d sections from %d documents\n",
		len(rep.ExtractedSections), len(rep.Metadata.InputDocuments))
	if n := len(rep.Metadata.FailedDocuments); n > 0 {
		fmt.Fprintf(out, "Failed documents (%d): %v\n", n, rep.Metadata.FailedDocuments)
	}
	if !rep.Metadata.Ranked {
		fmt.Fprintln(out, "Warning: ranking failed, sections are in extraction order")
	}
	fmt.Fprintf(out, "Report: %s\n", filepath.Join(a.cfg.Output.Dir, a.cfg.Output.ReportFile))
	return nil
}
