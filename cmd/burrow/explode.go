package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/praetorian-inc/burrow/pkg/archiver"
	"github.com/praetorian-inc/burrow/pkg/input"
	"github.com/praetorian-inc/burrow/pkg/policy"
	"github.com/praetorian-inc/burrow/pkg/store"
	"github.com/praetorian-inc/burrow/pkg/types"
	"github.com/praetorian-inc/burrow/pkg/workspace"
)

var (
	explodeWorkspace     string
	explodeStoreDSN      string
	explodeMaxDepth      int
	explodeMaxArchive    string
	explodeMaxTotal      string
	explodeMinRatio      float64
	explodeMinFree       string
	explodeDelete        bool
	explodeIncludeHidden bool
	explodeClean         bool
	explodeFormat        string
)

var explodeCmd = &cobra.Command{
	Use:   "explode <path>...",
	Short: "Recursively extract archives under safety budgets",
	Long: `Explode one or more files or directories: every archive found is analyzed,
extracted if it fits the safety budgets, and its contents recursed into.
Directory inputs are walked for regular files; each top-level file gets its
own budget and its results land in one run record per input path.

Size flags take strings like "512K", "1.5M" or "10G" (binary multiples).
Budgets can also come from BURROW_* environment variables or the config
file, for example BURROW_MAX_DEPTH=4.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplode,
}

func init() {
	explodeCmd.Flags().StringVar(&explodeWorkspace, "workspace", workspace.DefaultName, "Workspace directory for extraction output and the run store")
	explodeCmd.Flags().StringVar(&explodeStoreDSN, "store", "", "Store DSN override: a file path, \":memory:\", or a postgres:// URL")
	explodeCmd.Flags().IntVar(&explodeMaxDepth, "max-depth", 0, "Maximum archive nesting depth (0 = unlimited)")
	explodeCmd.Flags().StringVar(&explodeMaxArchive, "max-archive-size", types.FormatSize(policy.DefaultMaxArchiveSize), "Maximum declared extracted size of a single archive")
	explodeCmd.Flags().StringVar(&explodeMaxTotal, "max-total-size", types.FormatSize(policy.DefaultMaxTotalSize), "Maximum cumulative tracked size per input")
	explodeCmd.Flags().Float64Var(&explodeMinRatio, "min-ratio", policy.DefaultMinArchiveRatio, "Minimum archive-to-extracted compression ratio")
	explodeCmd.Flags().StringVar(&explodeMinFree, "min-free", types.FormatSize(policy.DefaultMinDiskFree), "Disk space that must remain free after extraction")
	explodeCmd.Flags().BoolVar(&explodeDelete, "delete", false, "Delete archives after successful extraction")
	explodeCmd.Flags().BoolVar(&explodeIncludeHidden, "include-hidden", false, "Include hidden files when walking directories")
	explodeCmd.Flags().BoolVar(&explodeClean, "clean", false, "Empty the workspace extraction area before running")
	explodeCmd.Flags().StringVar(&explodeFormat, "format", "human", "Output format: human, json")

	_ = viper.BindPFlag("max_depth", explodeCmd.Flags().Lookup("max-depth"))
	_ = viper.BindPFlag("max_archive_size", explodeCmd.Flags().Lookup("max-archive-size"))
	_ = viper.BindPFlag("max_total_size", explodeCmd.Flags().Lookup("max-total-size"))
	_ = viper.BindPFlag("min_ratio", explodeCmd.Flags().Lookup("min-ratio"))
	_ = viper.BindPFlag("min_free", explodeCmd.Flags().Lookup("min-free"))
	_ = viper.BindPFlag("delete", explodeCmd.Flags().Lookup("delete"))
}

func runExplode(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	ws, err := workspace.Open(explodeWorkspace, workspace.Options{
		StoreDSN: explodeStoreDSN,
		Clean:    explodeClean,
	})
	if err != nil {
		return fmt.Errorf("opening workspace: %w", err)
	}
	defer ws.Close()

	registry := archiver.NewRegistry(archiver.DefaultConstructors()...)
	locateWarnings := registry.Locate()
	for _, w := range locateWarnings {
		logger.Warn(w.Message)
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	var runs []*store.Run
	for _, root := range args {
		run, err := explodeOne(ctx, root, cfg, registry, ws, locateWarnings, logger)
		if err != nil {
			return err
		}
		runs = append(runs, run)
	}

	if explodeFormat == "json" {
		for _, run := range runs {
			printRunSummary(cmd.ErrOrStderr(), run, ws.Path)
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	for _, run := range runs {
		printRunSummary(cmd.OutOrStdout(), run, ws.Path)
		if !viper.GetBool("quiet") {
			printWarnings(cmd.OutOrStdout(), run.Warnings)
		}
	}
	return nil
}

// explodeOne explodes everything under one input path into a single run
// record. Each collected file gets a fresh engine so budgets and dedup reset
// per top-level input.
func explodeOne(ctx context.Context, root string, cfg policy.Config, registry *archiver.Registry, ws *workspace.Workspace, locateWarnings []types.Warning, logger *log.Logger) (*store.Run, error) {
	files, err := input.Collect(ctx, root, input.Options{IncludeHidden: explodeIncludeHidden})
	if err != nil {
		return nil, err
	}

	run := store.NewRun(root)

	results := make([]*policy.Result, 0, len(files))
	for _, f := range files {
		engine, err := policy.New(cfg, registry,
			policy.WithExtractRoot(ws.ExtractRoot()),
			policy.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("creating engine: %w", err)
		}

		logger.Info("exploding", "path", f)
		res, err := engine.Handle(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("exploding %s: %w", f, err)
		}
		results = append(results, res)
	}

	merged := policy.MergeResults(results...)

	warnings := make([]types.Warning, 0, len(locateWarnings)+len(merged.Warnings))
	warnings = append(warnings, locateWarnings...)
	warnings = append(warnings, merged.Warnings...)

	run.Complete(merged.Files, warnings)
	if err := ws.Store.SaveRun(run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}
	return run, nil
}

// buildConfig assembles the engine budget from viper, so flag, environment,
// and config-file values all land in the same place.
func buildConfig() (policy.Config, error) {
	cfg := policy.DefaultConfig()

	cfg.MaxDepth = viper.GetInt("max_depth")
	cfg.MinArchiveRatio = viper.GetFloat64("min_ratio")
	cfg.DeleteAfterExtraction = viper.GetBool("delete")

	if s := viper.GetString("max_archive_size"); s != "" {
		n, err := types.ParseSize(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid max-archive-size: %w", err)
		}
		cfg.MaxArchiveSize = n
	}
	if s := viper.GetString("max_total_size"); s != "" {
		n, err := types.ParseSize(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid max-total-size: %w", err)
		}
		cfg.MaxTotalSize = n
	}
	if s := viper.GetString("min_free"); s != "" {
		n, err := types.ParseSize(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid min-free: %w", err)
		}
		cfg.MinDiskFree = n
	}

	return cfg, nil
}

func printRunSummary(out io.Writer, run *store.Run, wsPath string) {
	fmt.Fprintf(out, "Explode complete: %d files tracked (%s), %d warnings\n",
		run.FileCount, types.FormatSize(run.TotalSize), run.WarningCount)
	fmt.Fprintf(out, "Results stored in: %s (run %s)\n", wsPath, run.ID)
}

func printWarnings(out io.Writer, warnings []types.Warning) {
	for _, w := range warnings {
		if w.Path != "" {
			fmt.Fprintf(out, "  [%s] %s: %s\n", w.Kind, w.Path, w.Message)
		} else {
			fmt.Fprintf(out, "  [%s] %s\n", w.Kind, w.Message)
		}
	}
}
