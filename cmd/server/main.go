package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ottobite-backend/internal/config"
	"ottobite-backend/internal/database"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/notification"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	root := &cobra.Command{
		Use:           "ottobite",
		Short:         "OttoBite depo, sipariş ve bildirim servisi",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), workerCmd(), migrateCmd(), createUserCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app: her alt komutun ortak bağımlılıkları
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	db, err := database.Open(cfg.DatabaseDSN, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

// newBus: NOTIFY_BUS=redis ise olaylar süreçler arasında redis kanalından dağıtılır
func (a *app) newBus(ctx context.Context) (notification.Bus, func(), error) {
	local := notification.NewLocalBus(0, a.log)
	if a.cfg.Notify.Bus != "redis" {
		return local, func() { _ = local.Close() }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Notify.RedisAddr,
		Password: a.cfg.Notify.RedisPassword,
		DB:       a.cfg.Notify.RedisDB,
	})
	bus, err := notification.NewRedisBus(ctx, rdb, a.cfg.Notify.Channel, local, a.log)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	a.log.Info("notification bus: redis", zap.String("addr", a.cfg.Notify.RedisAddr), zap.String("channel", a.cfg.Notify.Channel))
	return bus, func() {
		_ = bus.Close()
		_ = rdb.Close()
	}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Veritabanı tablolarını oluşturur/günceller",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.Migrate(a.db); err != nil {
				return err
			}
			a.log.Info("migration completed")
			return nil
		},
	}
}
