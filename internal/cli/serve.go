package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dshills/brief/internal/config"
	"github.com/dshills/brief/internal/gitctx"
	"github.com/dshills/brief/internal/metrics"
	"github.com/dshills/brief/internal/redact"
	"github.com/dshills/brief/internal/server"
	"github.com/dshills/brief/internal/summary"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the summary API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagAddr != "" {
			overrides["server.addr"] = flagAddr
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.NewCollector(registry)

		srv, svc, cleanup := newServer(cfg, log, m)
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("summary service ready",
			"provider", cfg.Provider,
			"model", cfg.Model,
			"max_tokens", cfg.MaxTokens,
			"per_file_cap", svc.PerItemCap(),
		)
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

// newServer builds the HTTP server. A provider that cannot be built leaves
// the server up without one: analyze requests still work and summarize
// requests get 503.
func newServer(cfg config.Config, log *slog.Logger, m *metrics.Collector) (*server.Server, *summary.Service, func()) {
	completer, err := newCompleter(cfg, summary.ModeSummarize)
	if err != nil {
		log.Warn("model provider unavailable, serving analyze only", "provider", cfg.Provider, "error", err)
		completer = nil
	}
	svc, cleanup := buildService(cfg, completer, log, m)

	var redactor *redact.Redactor
	if !flagNoRedact {
		redactor = redact.New(cfg.Privacy.RedactSecrets, cfg.Privacy.RedactPaths)
	}

	srv := server.New(svc,
		server.WithLogger(log),
		server.WithMetrics(m),
		server.WithRedactor(redactor),
		server.WithDiffOptions(gitctx.DiffOptions{Include: cfg.Include, Exclude: cfg.Exclude}),
	)
	return srv, svc, cleanup
}

func init() {
	addSummaryFlags(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config server.addr)")
}
