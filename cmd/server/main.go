package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/esgdigest/internal/api"
	"github.com/dgallion1/esgdigest/internal/config"
	"github.com/dgallion1/esgdigest/internal/pipeline"
	"github.com/dgallion1/esgdigest/internal/store"
	"github.com/dgallion1/esgdigest/internal/summarize"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}

	// The client is always constructed; without an API key it reports
	// disabled and summaries fall back to excerpts.
	claude := summarize.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	claude.Stats = summarize.NewLLMStats(time.Duration(cfg.StatsWindow))

	orch := pipeline.NewOrchestrator(cfg, st, claude, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, st, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
		st.Close()
	}()

	log.Info("starting esgdigest", "port", cfg.Port, "db", cfg.DBPath, "workers", cfg.WorkerCount, "summaries_enabled", claude.Enabled())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
