package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/praetorian-inc/burrow/pkg/sarif"
	"github.com/praetorian-inc/burrow/pkg/store"
	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
	"github.com/praetorian-inc/burrow/pkg/workspace"
)

var (
	reportWorkspace string
	reportStoreDSN  string
	reportRun       string
	reportFormat    string
	reportColor     string
)

// styles holds color formatters for human report output
type styles struct {
	fileHeading *color.Color
	digest      *color.Color
	kind        *color.Color
	heading     *color.Color
	path        *color.Color
	metadata    *color.Color
}

// newStyles creates color formatters for report output
// enabled=false respects --color=never and the NO_COLOR env var
func newStyles(enabled bool) *styles {
	s := &styles{
		fileHeading: color.New(color.Bold, color.FgHiWhite),
		digest:      color.New(color.FgHiGreen),
		kind:        color.New(color.Bold, color.FgYellow),
		heading:     color.New(color.Bold),
		path:        color.New(color.FgHiBlue),
		metadata:    color.New(color.FgHiBlue),
	}

	if !enabled {
		s.fileHeading.DisableColor()
		s.digest.DisableColor()
		s.kind.DisableColor()
		s.heading.DisableColor()
		s.path.DisableColor()
		s.metadata.DisableColor()
	}

	return s
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a persisted run",
	Long:  "Read a run from the store and print its file inventory and warnings",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportWorkspace, "workspace", workspace.DefaultName, "Workspace directory holding the run store")
	reportCmd.Flags().StringVar(&reportStoreDSN, "store", "", "Store DSN override: a file path or a postgres:// URL")
	reportCmd.Flags().StringVar(&reportRun, "run", "", "Run ID to report on (default: most recent)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, yaml, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := openRunStore(reportWorkspace, reportStoreDSN)
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := loadRun(s, reportRun)
	if err != nil {
		return err
	}

	switch reportFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(run)
	case "yaml":
		return outputReportYAML(cmd, run)
	case "sarif":
		return outputReportSARIF(cmd, run)
	case "human":
		return outputReportHuman(cmd, run)
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// openRunStore resolves the store behind a workspace directory or an explicit
// DSN override and opens it.
func openRunStore(wsPath, dsn string) (store.Store, error) {
	if dsn == "" {
		dsn = wsPath
	}
	if dsn == ":memory:" {
		return nil, fmt.Errorf("cannot read runs from an in-memory store")
	}

	// A directory is a workspace; the sqlite database lives inside it.
	if info, err := os.Stat(dsn); err == nil && info.IsDir() {
		dsn = filepath.Join(dsn, "burrow.db")
	}

	s, err := store.New(store.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// loadRun fetches one run with files and warnings attached. An empty ID
// selects the most recently started run.
func loadRun(s store.Store, id string) (*store.Run, error) {
	if id == "" {
		runs, err := s.Runs()
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("store contains no runs")
		}
		id = runs[0].ID
	}

	run, err := s.Run(id)
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return run, nil
}

func outputReportYAML(cmd *cobra.Command, run *store.Run) error {
	// Round-trip through JSON so the yaml keys match the json tag names.
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("decoding run: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func outputReportSARIF(cmd *cobra.Command, run *store.Run) error {
	report := sarif.FromWarnings(run.Warnings, version)
	b, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("encoding sarif: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(b); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout())
	return err
}

func outputReportHuman(cmd *cobra.Command, run *store.Run) error {
	out := cmd.OutOrStdout()

	// Determine if colors should be enabled based on --color flag
	switch reportColor {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default: // "auto"
		color.NoColor = !colorEnabled()
	}
	s := newStyles(!color.NoColor)

	fmt.Fprintf(out, "%s (%s %s)\n",
		s.fileHeading.Sprintf("Run %s", run.ID),
		s.heading.Sprint("root"),
		s.metadata.Sprint(run.Root))
	fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Started:"), run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Duration:"), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String())
	}
	fmt.Fprintf(out, "%s %d (%s)\n", s.heading.Sprint("Files:"), run.FileCount, humanize.IBytes(uint64(run.TotalSize)))
	fmt.Fprintf(out, "%s %d\n\n", s.heading.Sprint("Warnings:"), run.WarningCount)

	for i, f := range run.Files {
		fmt.Fprintf(out, "%s (%s %s)\n",
			s.fileHeading.Sprintf("File %d/%d", i+1, len(run.Files)),
			s.heading.Sprint("digest"),
			s.digest.Sprint(f.Digest.Hex()))

		fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Size:"), humanize.IBytes(uint64(f.Size)))
		if mime, ok := f.Metadata[types.MetaTypeMIME].(string); ok && mime != "" {
			fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Type:"), s.metadata.Sprint(mime))
		}
		if line := archiveSummary(f); line != "" {
			fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Archive:"), line)
		}
		for _, p := range f.Paths {
			fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Path:"), s.path.Sprint(p))
		}
		fmt.Fprintln(out)
	}

	if len(run.Warnings) > 0 {
		fmt.Fprintf(out, "%s\n", s.fileHeading.Sprint("Warnings"))
		printStyledWarnings(out, s, run.Warnings)
	}

	return nil
}

// archiveSummary condenses an archive entry's extraction outcome into one
// line, or returns "" for plain files.
func archiveSummary(f tracker.Entry) string {
	isArchive, _ := f.Metadata[types.MetaIsArchive].(bool)
	if !isArchive {
		return ""
	}

	outcome := "skipped"
	if extracted, ok := f.Metadata[types.MetaExtracted].(bool); ok {
		outcome = "extraction failed"
		if extracted {
			outcome = "extracted"
		}
	}

	line := outcome
	if size, ok := f.Metadata[types.MetaExtractedSize].(int64); ok {
		line += fmt.Sprintf(", declares %s", humanize.IBytes(uint64(size)))
	}
	if status, ok := f.Metadata[types.MetaEncryptionStatus].(types.EncryptionStatus); ok && status != types.EncryptionNone {
		line += fmt.Sprintf(", encryption %s", status)
	}
	if deleted, ok := f.Metadata[types.MetaDeleted].(bool); ok && deleted {
		line += ", deleted after extraction"
	}
	return line
}

func printStyledWarnings(out io.Writer, s *styles, warnings []types.Warning) {
	for _, w := range warnings {
		if w.Path != "" {
			fmt.Fprintf(out, "%s %s: %s\n", s.kind.Sprintf("[%s]", w.Kind), s.path.Sprint(w.Path), w.Message)
		} else {
			fmt.Fprintf(out, "%s %s\n", s.kind.Sprintf("[%s]", w.Kind), w.Message)
		}
	}
}
