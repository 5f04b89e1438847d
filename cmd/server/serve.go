package main

import (
	"context"
	"strings"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/audit"
	"ottobite-backend/internal/auth"
	"ottobite-backend/internal/database"
	"ottobite-backend/internal/inventory"
	"ottobite-backend/internal/jobs"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"
	"ottobite-backend/internal/orders"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP API ve canlı bildirim akışını başlatır",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if migrate {
				if err := database.Migrate(a.db); err != nil {
					return err
				}
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "başlangıçta AutoMigrate çalıştır")
	return cmd
}

// serve runs until ctx is cancelled (SIGINT/SIGTERM).
func (a *app) serve(ctx context.Context) error {
	bus, closeBus, err := a.newBus(ctx)
	if err != nil {
		return err
	}
	defer closeBus()

	broker := notification.NewBroker(a.db, bus, a.log)
	gateway := notification.NewGateway(a.db, bus, notification.GatewayConfig{
		Heartbeat:     a.cfg.Notify.Heartbeat,
		SnapshotLimit: a.cfg.Notify.SnapshotLimit,
		MaxClients:    a.cfg.Notify.MaxClients,
	}, a.log)

	ledger := inventory.NewLedger(a.db)
	resolver := inventory.NewResolver(a.log)
	syncer := inventory.NewSyncer(a.db, ledger, resolver, broker, a.log)
	stock := inventory.NewStock(a.db, ledger, broker, a.log)
	products := inventory.NewProducts(a.db, ledger, resolver, broker, a.log)
	reset := inventory.NewPeriodReset(a.db, a.cfg.Locale, a.log)
	sweep := jobs.NewMaintenanceSweep(a.db, bus, a.log)
	orderSvc := orders.NewService(a.db, resolver, syncer, broker, a.log)

	srv := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler(a.log),
	})

	srv.Use(logger.Middleware(a.log))
	srv.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(a.cfg.CORSOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + logger.RequestIDHeader,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
	}))

	srv.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := srv.Group("/api")

	// Public
	api.Post("/auth/login", auth.LoginHandler(a.db, a.cfg.JWTSecret))
	api.Get("/cron/reset-inventory", inventory.ResetInventoryCronHandler(reset, a.cfg.Jobs.CronSecret, a.log))
	api.Get("/cron/maintenance-notify", jobs.MaintenanceCronHandler(sweep, a.cfg.Jobs.CronSecret, a.log))

	// Protected
	protected := api.Group("", auth.SessionMiddleware(a.cfg.JWTSecret))
	protected.Get("/auth/me", auth.MeHandler())

	manage := auth.RequireRole(models.RoleAdmin, models.RoleChef)

	// Depo
	inv := protected.Group("/inventory")
	inv.Get("/products", inventory.ListProductsHandler(products, a.log))
	inv.Post("/products", manage, inventory.CreateProductHandler(products, a.log))
	inv.Put("/products/:id", manage, inventory.UpdateProductHandler(products, a.log))
	inv.Delete("/products/:id", manage, inventory.DeleteProductHandler(products, a.log))
	inv.Get("/products/:id/history", inventory.ProductHistoryHandler(products, a.log))
	inv.Get("/products/:id/verify", inventory.VerifyProductHandler(products, a.log))
	inv.Post("/stock", manage, inventory.MoveStockHandler(stock, a.log))
	inv.Get("/logs", audit.ListLogsHandler(a.db, a.log))

	// Siparişler
	orders.Register(protected.Group("/orders"), orderSvc, manage, auth.RequireRole(models.RoleAdmin), a.log)

	// Bildirimler
	notif := protected.Group("/notifications")
	notif.Get("/", notification.SnapshotHandler(gateway, a.log))
	notif.Get("/stream", notification.StreamHandler(gateway, a.log))
	notif.Post("/read", notification.MarkAllReadHandler(gateway, a.log))

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.String("port", a.cfg.HTTPPort))
		errCh <- srv.Listen(":" + a.cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		gateway.Close()
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	// Önce açık SSE akışları kapanır, yoksa Shutdown onları bekler
	gateway.Close()
	if err := srv.ShutdownWithTimeout(shutdownTimeout); err != nil {
		a.log.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
