package main

import (
	"github.com/rs/zerolog/log"

	"printshop-backend/internal/infrastructure/queue"
)

// asynqScheduler wraps queue.Scheduler
type asynqScheduler struct {
	*queue.Scheduler
}

func setupScheduler(cfg *workerConfig) *asynqScheduler {
	scheduler := queue.NewScheduler(cfg.RedisOpt, cfg.Schedule)

	if err := scheduler.RegisterPaymentJobs(); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}

	go func() {
		log.Info().Msg("Scheduler starting")
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("Scheduler failed")
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	log.Info().Msg("Scheduler shutting down")
	s.Scheduler.Shutdown()
}
