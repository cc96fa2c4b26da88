package main

import (
	"time"

	"github.com/hibiken/asynq"

	"printshop-backend/internal/config"
	"printshop-backend/internal/infrastructure/queue"
)

// workerConfig is the slice of the application config the worker uses
type workerConfig struct {
	RedisOpt     asynq.RedisClientOpt
	Concurrency  int
	AbandonAfter time.Duration
	Schedule     queue.JobSchedule
	HealthAddr   string
}

func newWorkerConfig(cfg *config.Config, healthAddr string) *workerConfig {
	concurrency := cfg.Jobs.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	return &workerConfig{
		RedisOpt: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Host,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency:  concurrency,
		AbandonAfter: cfg.Jobs.PaymentAbandonAfter,
		Schedule: queue.JobSchedule{
			ExpireCron:      cfg.Jobs.ExpireCron,
			ExpireBatchSize: cfg.Jobs.ExpireBatchSize,
		},
		HealthAddr: healthAddr,
	}
}
