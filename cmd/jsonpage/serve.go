package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vango-dev/jsonpage/internal/config"
	"github.com/vango-dev/jsonpage/internal/dev"
	"github.com/vango-dev/jsonpage/internal/metrics"
)

type serveOptions struct {
	port      int
	host      string
	noReload  bool
	noMetrics bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"dev"},
		Short:   "Start the preview server",
		Long: `Start a preview server that renders pages on request.

The server watches the project for changes and refreshes
connected browsers. Render errors are shown in the browser.
Prometheus metrics are served at /metrics.

Examples:
  jsonpage serve
  jsonpage serve --port=8080
  jsonpage serve --host=0.0.0.0 --no-reload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			verbose, _ := cmd.Flags().GetBool("verbose")
			return runServe(ctx, cmd, opts, verbose)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to run on (default from jsonpage.json)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from jsonpage.json)")
	cmd.Flags().BoolVar(&opts.noReload, "no-reload", false, "Do not inject the hot reload client")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "Do not record Prometheus metrics")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts serveOptions, verbose bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if opts.port > 0 {
		cfg.Dev.Port = opts.port
	}
	if opts.host != "" {
		cfg.Dev.Host = opts.host
	}
	if opts.noReload {
		off := false
		cfg.Dev.HotReload = &off
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var m *metrics.Metrics
	if !opts.noMetrics {
		m = metrics.New()
	}

	server := dev.NewServer(dev.ServerOptions{
		Config:  cfg,
		Logger:  serveLogger(cmd.ErrOrStderr(), verbose),
		Metrics: m,
		OnReload: func(clients int) {
			success(out, "Reloaded %d browsers", clients)
		},
	})

	success(out, "Serving %s at %s", relTo(mustGetwd(), cfg.RootPath()), titleStyle.Render(cfg.DevURL()))
	if cfg.HotReloadEnabled() {
		info(out, "Watching for changes (Ctrl+C to stop)")
	}
	return server.Start(ctx)
}

func serveLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
