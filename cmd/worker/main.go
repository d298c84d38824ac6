package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"voice-complaint-go/internal/app"
	"voice-complaint-go/internal/cache"
	"voice-complaint-go/internal/config"
	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/processor"
	"voice-complaint-go/internal/queue"
	"voice-complaint-go/internal/queue/workers"
	"voice-complaint-go/internal/scratch"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	if cfg.Redis.Addr == "" {
		log.Fatal("REDIS_ADDR is required for the worker")
	}

	c, err := cache.Open(context.Background(), cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	defer c.Close()

	dir, err := scratch.New(cfg.Scratch.Dir)
	if err != nil {
		log.WithError(err).Fatal("scratch dir unavailable")
	}

	svc := processor.New(app.Pipeline(cfg, dir, log.WithField("component", "app")), c)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeVoiceProcess, asynq.HandlerFunc(workers.NewVoiceWorker(svc).ProcessTask))
	registry.Register(queue.TypeScratchSweep, asynq.HandlerFunc(workers.NewSweepWorker(dir, cfg.Scratch.Retention).ProcessTask))

	scheduler := asynq.NewScheduler(queue.RedisOpt(cfg.Redis), nil)
	if _, err := scheduler.Register("@every "+cfg.Scratch.SweepInterval.String(), asynq.NewTask(queue.TypeScratchSweep, nil)); err != nil {
		log.WithError(err).Fatal("failed to schedule scratch sweep")
	}
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("scheduler error")
	}
	defer scheduler.Shutdown()

	srv := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{
		Concurrency: cfg.Queue.Concurrency,
		Logger:      log,
	})

	log.WithField("concurrency", cfg.Queue.Concurrency).Info("starting worker")
	if err := srv.Run(registry.Mux()); err != nil {
		log.WithError(err).Fatal("worker error")
	}
}
