package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/vettriage/internal/logging"
	"github.com/crimson-sun/vettriage/internal/metrics"
	"github.com/crimson-sun/vettriage/internal/output"
	"github.com/crimson-sun/vettriage/internal/output/async"
	"github.com/crimson-sun/vettriage/internal/output/multi"
	"github.com/crimson-sun/vettriage/internal/output/webhook"
	"github.com/crimson-sun/vettriage/internal/server"
	"github.com/crimson-sun/vettriage/internal/store"
)

var serveFlags struct {
	addr      string
	verbosity string
	preload   bool
	metrics   bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction HTTP API",
	Long: "Serve the prediction HTTP API. The model is loaded on first use unless\n" +
		"--preload is set. Records fan out to the configured output, the history\n" +
		"store (VETTRIAGE_HISTORY_DSN) and the urgency webhook (VETTRIAGE_WEBHOOK_URL).",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "Listen address (default: VETTRIAGE_ADDR)")
	f.StringVar(&serveFlags.verbosity, "verbosity", "standard", "Record detail for the output sink: minimal, standard or full")
	f.BoolVar(&serveFlags.preload, "preload", false, "Load the model before accepting requests")
	f.BoolVar(&serveFlags.metrics, "metrics", true, "Expose Prometheus metrics on /metrics")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	p := newPredictor()
	defer p.Close()
	if serveFlags.preload {
		if _, err := p.Get(); err != nil {
			slog.Warn("model unavailable, serving without it", logging.PathKey, cfg.Engine.ArtifactPath, "error", err)
		}
	}

	primary, err := recordOutput(serveFlags.verbosity)
	if err != nil {
		return err
	}
	outs := []output.Output{primary}
	opts := []server.Option{server.WithVersion(version)}

	if cfg.History.DSN != "" {
		st, err := store.Open(ctx, cfg.History.DSN)
		if err != nil {
			multi.New(outs...).Close()
			return err
		}
		outs = append(outs, async.New(st, async.WithOnError(logSinkError("history"))))
		opts = append(opts, server.WithHistory(st))
	}
	if cfg.Webhook.URL != "" {
		wh := webhook.New(cfg.Webhook.URL,
			webhook.WithMinUrgency(cfg.Webhook.MinUrgency),
			webhook.WithTimeout(cfg.Webhook.Timeout),
			webhook.WithOnError(logSinkError("webhook")),
		)
		outs = append(outs, async.New(wh, async.WithDropOnFull(), async.WithOnError(logSinkError("webhook"))))
	}
	if serveFlags.metrics {
		opts = append(opts, server.WithMetrics(metrics.New(metrics.DefaultConfig())))
	}

	out := multi.New(outs...)
	srv := server.New(p, append(opts, server.WithOutput(out))...)

	addr := serveFlags.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		serveErr = srv.Shutdown(shutdownCtx)
		cancel()
		if err := <-errCh; err != nil {
			serveErr = errors.Join(serveErr, err)
		}
	}
	return errors.Join(serveErr, out.Close())
}
