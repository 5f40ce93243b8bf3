package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/burrow/pkg/archiver"
	"github.com/praetorian-inc/burrow/pkg/workspace"
)

var (
	watchWorkspace string
	watchStoreDSN  string
	watchSettle    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and explode files as they arrive",
	Long: `Watch a directory for new files and explode each one once it has
settled. A file counts as settled when its size stops changing for the
--settle quiet period, so partially written uploads are not picked up
mid-transfer. Each settled file becomes its own run in the workspace store.

Watching is not recursive and files inside the workspace itself are
ignored, so extraction output never feeds back into the watcher.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchWorkspace, "workspace", workspace.DefaultName, "Workspace directory for extraction output and the run store")
	watchCmd.Flags().StringVar(&watchStoreDSN, "store", "", "Store DSN override: a file path, \":memory:\", or a postgres:// URL")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 500*time.Millisecond, "Quiet period before a new file counts as fully written")
}

// watchCandidate tracks a file seen by the watcher until it settles.
type watchCandidate struct {
	size     int64
	lastSeen time.Time
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	if watchSettle <= 0 {
		return fmt.Errorf("settle period must be positive")
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	ws, err := workspace.Open(watchWorkspace, workspace.Options{StoreDSN: watchStoreDSN})
	if err != nil {
		return fmt.Errorf("opening workspace: %w", err)
	}
	defer ws.Close()

	wsAbs, err := filepath.Abs(ws.Path)
	if err != nil {
		return fmt.Errorf("resolving workspace path: %w", err)
	}

	registry := archiver.NewRegistry(archiver.DefaultConstructors()...)
	locateWarnings := registry.Locate()
	for _, w := range locateWarnings {
		logger.Warn(w.Message)
	}

	dir := args[0]
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
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

	pending := make(map[string]*watchCandidate)
	ticker := time.NewTicker(watchSettle)
	defer ticker.Stop()

	logger.Info("watching", "dir", dir, "settle", watchSettle)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if insideDir(ev.Name, wsAbs) {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			c, found := pending[ev.Name]
			if !found {
				c = &watchCandidate{}
				pending[ev.Name] = c
			}
			c.size = info.Size()
			c.lastSeen = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "err", err)

		case <-ticker.C:
			now := time.Now()
			for path, c := range pending {
				info, err := os.Stat(path)
				if err != nil {
					delete(pending, path)
					continue
				}
				if info.Size() != c.size {
					c.size = info.Size()
					c.lastSeen = now
					continue
				}
				if now.Sub(c.lastSeen) < watchSettle {
					continue
				}
				delete(pending, path)

				run, err := explodeOne(ctx, path, cfg, registry, ws, locateWarnings, logger)
				if err != nil {
					logger.Error("explode failed", "path", path, "err", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %s (%d files, %d warnings)\n",
					run.ID, path, run.FileCount, run.WarningCount)
			}
		}
	}
}

// insideDir reports whether path sits at or below dir. dir must be absolute.
func insideDir(path, dir string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}
