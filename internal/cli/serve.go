package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/server"
)

var (
	serveAddr    string
	serveWorkers int
)

// serveCmd runs the HTTP upload endpoint
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resume upload endpoint",
	Long: `Serve accepts resume uploads over HTTP, answers immediately with a
submission id, and runs each submission in the background on a bounded
worker pool. Results are delivered by email.

Example:
  skilldiff serve --addr :8080 --workers 8`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "concurrent pipeline runs (default from server.workers)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveWorkers > 0 {
		cfg.Server.Workers = serveWorkers
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.Default()

	a, err := newApp(context.WithoutCancel(ctx), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv := server.New(server.ConfigFromModel(cfg.Server), a.orchestrator, logger)
	return srv.ListenAndServe(ctx)
}
