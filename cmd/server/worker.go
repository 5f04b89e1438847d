package main

import (
	"context"
	"errors"

	"ottobite-backend/internal/inventory"
	"ottobite-backend/internal/jobs"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Zamanlanmış işleri (ay sonu sıfırlama, bakım uyarıları) çalıştırır",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			bus, closeBus, err := a.newBus(ctx)
			if err != nil {
				return err
			}
			defer closeBus()

			cron, err := jobs.Schedule(a.cfg.Jobs.ResetCron, a.cfg.Jobs.MaintenanceCron)
			if err != nil {
				return err
			}
			w, err := jobs.NewWorker(jobs.WorkerConfig{
				RedisOpts: asynq.RedisClientOpt{
					Addr:     a.cfg.Notify.RedisAddr,
					Password: a.cfg.Notify.RedisPassword,
					DB:       a.cfg.Notify.RedisDB,
				},
				Log: a.log,
				Handlers: jobs.Handlers(
					inventory.NewPeriodReset(a.db, a.cfg.Locale, a.log),
					jobs.NewMaintenanceSweep(a.db, bus, a.log),
					a.log,
				),
				Cron: cron,
			})
			if err != nil {
				return err
			}

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
