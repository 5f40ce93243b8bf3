package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/burrow/pkg/archiver"
	"github.com/praetorian-inc/burrow/pkg/serve"
	"github.com/praetorian-inc/burrow/pkg/workspace"
)

var serveWorkspace string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming extraction server",
	Long: `Run burrow as a long-lived server that accepts explode requests via
stdin and answers with tracked files and warnings via stdout using NDJSON.

This mode is designed for host applications that embed burrow as a
subprocess. Tools are located once at startup and requests are processed
until stdin closes or SIGTERM is received. Budgets come from BURROW_*
environment variables or the config file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveWorkspace, "workspace", workspace.DefaultName, "Workspace directory for extraction output and staged content")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	ws, err := workspace.Open(serveWorkspace, workspace.Options{})
	if err != nil {
		return fmt.Errorf("opening workspace: %w", err)
	}
	defer ws.Close()

	registry := archiver.NewRegistry(archiver.DefaultConstructors()...)
	for _, w := range registry.Locate() {
		logger.Warn(w.Message)
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	srv := serve.NewServer(cfg, registry, cmd.InOrStdin(), cmd.OutOrStdout(),
		serve.WithExtractRoot(ws.ExtractRoot()),
		serve.WithScratch(ws.Scratch()),
		serve.WithLogger(logger),
	)
	return srv.Run(ctx)
}
