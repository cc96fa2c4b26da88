package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"printshop-backend/internal/shared"
)

// asynqServer wraps asynq.Server
type asynqServer struct {
	*asynq.Server
}

func queuePriorities() map[string]int {
	return map[string]int{
		shared.QueueCritical: 6,
		shared.QueueDefault:  3,
		shared.QueueLow:      1,
	}
}

func setupAsynqServer(cfg *workerConfig, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		cfg.RedisOpt,
		asynq.Config{
			Queues:      queuePriorities(),
			Concurrency: cfg.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.Error().
					Err(err).
					Str("task_type", task.Type()).
					Int("retried", retried).
					Int("max_retry", maxRetry).
					Msg("Task failed")
			}),
		},
	)

	go func() {
		log.Info().Int("concurrency", cfg.Concurrency).Msg("Worker starting")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Worker failed")
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for in-flight tasks up to asynq's ShutdownTimeout
func (s *asynqServer) Shutdown() {
	log.Info().Msg("Worker shutting down")
	s.Server.Shutdown()
	log.Info().Msg("Worker stopped")
}
