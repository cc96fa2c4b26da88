package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"printshop-backend/internal/domains/payment/model"
	"printshop-backend/internal/shared"
	"printshop-backend/internal/shared/utils"
	"printshop-backend/pkg/logger"
)

// CronRegistrar is the part of *asynq.Scheduler used to register entries.
type CronRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// JobSchedule configures the periodic payment jobs.
type JobSchedule struct {
	ExpireCron      string
	ExpireBatchSize int
}

type Scheduler struct {
	scheduler *asynq.Scheduler
	registrar CronRegistrar
	schedule  JobSchedule
}

func NewScheduler(redisOpt asynq.RedisClientOpt, schedule JobSchedule) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		registrar: scheduler,
		schedule:  schedule,
	}
}

func (s *Scheduler) RegisterPaymentJobs() error {
	return registerExpireAbandonedPaymentsJob(s.registrar, s.schedule)
}

// ================================================
// Expire abandoned payments (hourly by default)
// ================================================
func registerExpireAbandonedPaymentsJob(r CronRegistrar, schedule JobSchedule) error {
	if schedule.ExpireCron == "" {
		return fmt.Errorf("expire cron spec is empty")
	}

	task, err := utils.MarshalTask(shared.TypeExpireAbandonedPayments, model.ExpireAbandonedPaymentsPayload{
		BatchSize: schedule.ExpireBatchSize,
	})
	if err != nil {
		return err
	}

	entryID, err := r.Register(
		schedule.ExpireCron,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Unique(time.Hour),
	)
	if err != nil {
		logger.Error("Failed to register ExpireAbandonedPayments job", err)
		return err
	}

	logger.Info("Registered ExpireAbandonedPayments", map[string]interface{}{
		"cron":     schedule.ExpireCron,
		"entry_id": entryID,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
