package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/burrow/pkg/explore"
	"github.com/praetorian-inc/burrow/pkg/workspace"
)

var (
	exploreWorkspace string
	exploreStoreDSN  string
	exploreRun       string
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactively explore a persisted run",
	Long: `Launch an interactive TUI to browse the file inventory of a run.

Features:
  - Three-pane layout: filters, file table, details
  - Faceted search by warning kind, file class, encryption, and outcome
  - Vi-style navigation (hjkl, Ctrl-f/b, g/G)
  - Open tracked files in $PAGER
  - Sortable file table`,
	RunE: runExploreCmd,
}

func init() {
	exploreCmd.Flags().StringVar(&exploreWorkspace, "workspace", workspace.DefaultName, "Workspace directory holding the run store")
	exploreCmd.Flags().StringVar(&exploreStoreDSN, "store", "", "Store DSN override: a file path or a postgres:// URL")
	exploreCmd.Flags().StringVar(&exploreRun, "run", "", "Run ID to explore (default: most recent)")
}

func runExploreCmd(cmd *cobra.Command, args []string) error {
	dsn := exploreStoreDSN
	if dsn == "" {
		dsn = exploreWorkspace
	}

	model, err := explore.New(dsn, exploreRun)
	if err != nil {
		return fmt.Errorf("loading run: %w", err)
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running explore TUI: %w", err)
	}

	return nil
}
