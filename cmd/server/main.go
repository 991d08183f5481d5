package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fioso/internal/ai"
	"fioso/internal/config"
	"fioso/internal/httpx"
	"fioso/internal/logging"
	"fioso/internal/modules"
	"fioso/internal/report"
	"fioso/internal/store"
)

func main() {
	logger := logging.New(os.Stderr, logging.Level(os.Getenv("FIOSO_VERBOSE") != ""))

	// Config
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	port := cfg.Server.Port

	if cfg.Cloudflare.Enabled && cfg.Cloudflare.APIToken == "" {
		logger.Warn("cloudflare.enabled=true but CLOUDFLARE_API_TOKEN not set")
	}
	if cfg.Gemini.Enabled && cfg.Gemini.Key == "" {
		logger.Warn("gemini.enabled=true but GEMINI_API_KEY not set")
	}

	httpClient := httpx.New(cfg.RequestTimeout())
	ns := modules.Load(modules.Runtime{Unstable: cfg.Runtime.Unstable},
		modules.WithDispatcher(store.NewDispatcher(store.WithHTTPClient(httpClient))),
		modules.WithHarnessOptions(
			report.WithHTTPClient(httpClient),
			report.WithProbeTimeout(cfg.ProbeTimeout()),
			report.WithNetworkCheck(cfg.Report.NetworkURL, 0),
		),
		// AI calls carry their own 30s/50s deadline.
		modules.WithAIOptions(ai.WithHTTPClient(httpx.New(0))),
	)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newRouter(ns, cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "unstable", cfg.Runtime.Unstable)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", "err", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
