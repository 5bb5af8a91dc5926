package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/audiogest/internal/api"
	"github.com/dgallion1/audiogest/internal/config"
	"github.com/dgallion1/audiogest/internal/genai"
	"github.com/dgallion1/audiogest/internal/media"
	"github.com/dgallion1/audiogest/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	gen := genai.NewClient(cfg.GroqAPIKey, cfg.GroqBaseURL)
	transcoder := media.NewFFmpegTranscoder(cfg.DownloadDir, log)
	downloader := media.NewYtdlpDownloader(cfg.DownloadDir, log)
	fetcher := media.NewFetcher(downloader, transcoder, log, cfg.SizeThresholdBytes, cfg.FetchRetries, cfg.FetchRetryDelay)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, gen, fetcher, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

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

		gen.Close()
	}()

	log.Info("starting audiogest", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
