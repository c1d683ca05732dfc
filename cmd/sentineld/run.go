package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/opspulse/sentinel/internal/api"
	"github.com/opspulse/sentinel/internal/config"
	"github.com/opspulse/sentinel/internal/graphhints"
	"github.com/opspulse/sentinel/internal/ingest"
	"github.com/opspulse/sentinel/internal/metrics"
	"github.com/opspulse/sentinel/internal/pipeline"
	"github.com/opspulse/sentinel/internal/ws"
)

var graphHintsPath string

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the correlation pipeline and its HTTP/WS adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	cmd.Flags().StringVar(&graphHintsPath, "graph-hints", "", "path to a JSON graph-hints document (optional, hot-reloaded)")
	return cmd
}

func runServe() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("sentineld starting", "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"hop_ms", cfg.Pipeline.HopMs,
		"window_ms", cfg.Pipeline.WindowMs,
		"http_port", cfg.HTTPPort,
		"ws_port", cfg.WSPort,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hints := graphhints.New()
	if graphHintsPath != "" {
		if h, err := graphhints.LoadFile(graphHintsPath); err != nil {
			slog.Warn("failed to load initial graph hints, starting empty", "err", err)
		} else {
			hints.Set(h)
		}
		go func() {
			if err := hints.Watch(ctx, graphHintsPath); err != nil {
				slog.Error("graph hints watcher stopped", "err", err)
			}
		}()
	}

	driver := pipeline.New(cfg, hints)

	go func() {
		if err := config.Watch(ctx, configPath, func(next *config.Config) {
			// Apply every pipeline field as a partial update; HTTP/WS ports
			// take effect only on restart, matching spec.md §9's rule that
			// only the pipeline tunables are live-reloadable.
			u := config.PartialUpdate{
				WindowMs:             &next.Pipeline.WindowMs,
				HopMs:                &next.Pipeline.HopMs,
				DedupTTLMs:           &next.Pipeline.DedupTTLMs,
				EpisodeGapMs:         &next.Pipeline.EpisodeGapMs,
				MaxLeadMs:            &next.Pipeline.MaxLeadMs,
				MaxSituationLifetime: &next.Pipeline.MaxSituationLifetime,
				QuietThreshold:       &next.Pipeline.QuietThreshold,
				MaxAlertsPerMinute:   &next.Pipeline.MaxAlertsPerMinute,
				FlapDropThreshold:    &next.Pipeline.FlapDropThreshold,
			}
			if err := driver.UpdateConfig(u); err != nil {
				slog.Error("config hot-reload rejected, keeping previous config", "err", err)
			}
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	metricsReg := metrics.New()
	metricsReg.Subscribe(driver)

	hub := ws.New(driver)

	driver.Start(ctx)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/v1/", api.New(driver))
	httpMux.Handle("/api/v1/alerts", ingest.New(driver))
	httpMux.Handle("/api/v1/events", ingest.New(driver))
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metricsReg.Handler())
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort+1),
		Handler: metricsMux,
	}
	go func() {
		slog.Info("metrics server listening", "port", cfg.HTTPPort+1)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server stopped", "err", err)
		}
	}()

	wsMux := http.NewServeMux()
	wsMux.Handle("/ws/stream", hub)
	wsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WSPort),
		Handler: wsMux,
	}
	go func() {
		slog.Info("WebSocket hub listening", "port", cfg.WSPort)
		if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("WebSocket server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("sentineld shutting down")
	driver.Stop()
	hub.CloseAll()
	httpSrv.Shutdown(context.Background())    //nolint:errcheck
	metricsSrv.Shutdown(context.Background()) //nolint:errcheck
	wsSrv.Shutdown(context.Background())      //nolint:errcheck
	return nil
}
