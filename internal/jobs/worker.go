package jobs

import (
	"context"
	"errors"
	"time"

	"ottobite-backend/internal/inventory"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/metrics"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker wraps the asynq server and the optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *zap.Logger
}

type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Location    *time.Location
	Log         *zap.Logger
	Handlers    []TaskHandler
	Cron        []CronRegistration
}

func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: cfg.Location})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: logger.OrNop(cfg.Log)}, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	w.log.Info("worker started")

	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// Schedule builds the cron entries for both tasks. An empty spec disables that task.
func Schedule(resetCron, maintenanceCron string) ([]CronRegistration, error) {
	reset, err := NewPeriodResetTask(time.Time{})
	if err != nil {
		return nil, err
	}
	sweep, err := NewMaintenanceAlertsTask(time.Time{})
	if err != nil {
		return nil, err
	}
	return []CronRegistration{
		{Spec: resetCron, Task: reset, Options: []asynq.Option{asynq.MaxRetry(3)}},
		{Spec: maintenanceCron, Task: sweep, Options: []asynq.Option{asynq.MaxRetry(1)}},
	}, nil
}

// Handlers returns the task handlers for the worker.
func Handlers(reset *inventory.PeriodReset, sweep *MaintenanceSweep, log *zap.Logger) []TaskHandler {
	log = logger.OrNop(log)
	return []TaskHandler{
		{Type: TaskPeriodReset, Handler: HandlePeriodReset(reset, log)},
		{Type: TaskMaintenanceAlerts, Handler: HandleMaintenanceAlerts(sweep, log)},
	}
}

func HandlePeriodReset(reset *inventory.PeriodReset, log *zap.Logger) asynq.HandlerFunc {
	return tracked(TaskPeriodReset, log, func(ctx context.Context, at time.Time) error {
		summary, err := reset.Run(ctx, at)
		if err != nil {
			return err
		}
		log.Info("period reset done", zap.String("period", summary.Period), zap.Int("products", summary.Products))
		return nil
	})
}

func HandleMaintenanceAlerts(sweep *MaintenanceSweep, log *zap.Logger) asynq.HandlerFunc {
	return tracked(TaskMaintenanceAlerts, log, func(ctx context.Context, at time.Time) error {
		_, err := sweep.Run(ctx, at)
		return err
	})
}

// tracked decodes the payload and counts the run; a bad payload is not retried.
func tracked(task string, log *zap.Logger, run func(context.Context, time.Time) error) asynq.HandlerFunc {
	log = logger.OrNop(log)
	return func(ctx context.Context, t *asynq.Task) error {
		at, err := runTime(t)
		if err != nil {
			metrics.JobRuns.WithLabelValues(task, "skipped").Inc()
			log.Error("invalid task payload", zap.String("task", task), zap.Error(err))
			return asynq.SkipRetry
		}
		if err := run(ctx, at); err != nil {
			metrics.JobRuns.WithLabelValues(task, "failed").Inc()
			log.Error("task failed", zap.String("task", task), zap.Error(err))
			return err
		}
		metrics.JobRuns.WithLabelValues(task, "ok").Inc()
		return nil
	}
}
