package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/burrow/pkg/store"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge <source1.db> <source2.db> [source3.db...]",
	Short: "Merge multiple run stores",
	Long: `Merge multiple run stores into a single output store.

This is useful for combining results from distributed explode runs or
collecting workspace databases into a central inventory. Sources and the
destination may be sqlite paths or postgres:// URLs.

Merging is idempotent - a run already present in the destination is
skipped, so re-running a merge never duplicates records.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output store path or DSN")
}

func runMerge(cmd *cobra.Command, args []string) error {
	stats, err := store.Merge(store.MergeConfig{
		SourceDSNs: args,
		DestDSN:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merge complete:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Sources processed: %d\n", stats.SourcesProcessed)
	fmt.Fprintf(cmd.OutOrStdout(), "  Runs merged: %d\n", stats.RunsMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "  Runs skipped: %d\n", stats.RunsSkipped)
	fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", mergeOutput)

	return nil
}
