package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voice-complaint-go/internal/api"
	"voice-complaint-go/internal/app"
	"voice-complaint-go/internal/cache"
	"voice-complaint-go/internal/config"
	"voice-complaint-go/internal/dataset"
	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/processor"
	"voice-complaint-go/internal/queue"
	"voice-complaint-go/internal/scratch"
	"voice-complaint-go/internal/types"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "voice-complaint-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := scratch.New(cfg.Scratch.Dir)
	if err != nil {
		log.WithError(err).Fatal("scratch dir unavailable")
	}
	go dir.Janitor(ctx, cfg.Scratch.SweepInterval, cfg.Scratch.Retention)

	deps := api.Deps{
		Corpus:    func() ([]types.SampleCase, error) { return dataset.Load(cfg.Dataset.Path) },
		DemoLimit: cfg.Dataset.DemoLimit,
		Log:       log,
	}

	// Redis is optional: without it there is no run lock, result lookup or queue.
	var store processor.Store
	if cfg.Redis.Addr != "" {
		c, err := cache.Open(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, running without cache and queue")
		} else {
			defer c.Close()
			store = c
			deps.Ping = c.Ping
			qc := queue.NewClient(cfg.Redis)
			defer qc.Close()
			deps.Queue = qc
		}
	}

	orch := app.Pipeline(cfg, dir, log.WithField("component", "app"))
	deps.Service = processor.New(orch, store)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr()).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
