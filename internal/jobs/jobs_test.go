package jobs

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"ottobite-backend/internal/database/dbtest"
	"ottobite-backend/internal/inventory"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, daysRemaining(now.Add(3*24*time.Hour+time.Hour), now))
	assert.Equal(t, 2, daysRemaining(now.Add(3*24*time.Hour-time.Minute), now))
	assert.Equal(t, 0, daysRemaining(now.Add(time.Hour), now))
	assert.Equal(t, -1, daysRemaining(now.Add(-time.Hour), now))
}

func TestHasThreshold(t *testing.T) {
	assert.True(t, hasThreshold("7, 3,1", 3))
	assert.False(t, hasThreshold("7,3,1", 2))
	assert.False(t, hasThreshold("", 0))
	assert.True(t, hasThreshold("abc,0", 0))
}

func TestMaintenanceSweep(t *testing.T) {
	db := dbtest.New(t)
	bus := notification.NewLocalBus(8, nil)
	t.Cleanup(func() { _ = bus.Close() })
	sub := bus.Subscribe(nil)

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)
	due := func(d time.Duration) *time.Time { v := now.Add(d); return &v }
	plans := []models.MaintenancePlan{
		{Title: "Filtre değişimi", EquipmentName: "Kombi Fırın", NextDueDate: due(3*24*time.Hour + time.Hour), Status: models.MaintenanceActive, NotifyThresholds: "7,3,1"},
		{Title: "Yağlama", NextDueDate: due(24*time.Hour + time.Hour), Status: models.MaintenanceActive, NotifyThresholds: "1"},
		{Title: "Duraklatılmış", EquipmentName: "Mikser", NextDueDate: due(3*24*time.Hour + time.Hour), Status: models.MaintenancePaused, NotifyThresholds: "3"},
		{Title: "Eşik dışı", EquipmentName: "Dolap", NextDueDate: due(5*24*time.Hour + time.Hour), Status: models.MaintenanceActive, NotifyThresholds: "7,3"},
		{Title: "Tarihsiz", EquipmentName: "Buzdolabı", Status: models.MaintenanceActive, NotifyThresholds: "3"},
	}
	require.NoError(t, db.Create(&plans).Error)

	created, err := NewMaintenanceSweep(db, bus, nil).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	var alerts []models.MaintenanceAlert
	require.NoError(t, db.Order("id ASC").Find(&alerts).Error)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Kombi Fırın • Filtre değişimi • 3 gün kaldı", alerts[0].Content)
	assert.Equal(t, plans[0].ID, *alerts[0].PlanID)
	assert.Equal(t, "Ekipman • Yağlama • 1 gün kaldı", alerts[1].Content)

	for _, a := range alerts {
		select {
		case e := <-sub.C():
			assert.Equal(t, notification.SourceMaintenance, e.Source)
			assert.Equal(t, a.ID, e.ID)
			assert.Equal(t, a.Content, e.Content)
			assert.Equal(t, models.PriorityHigh, e.Priority)
		case <-time.After(time.Second):
			t.Fatal("alert not published")
		}
	}
}

func TestTaskHandlers(t *testing.T) {
	db := dbtest.New(t)
	p := models.Product{Name: "Un", Unit: "kg", LastReset: time.Now().AddDate(0, -2, 0)}
	require.NoError(t, db.Create(&p).Error)

	handlers := Handlers(inventory.NewPeriodReset(db, "tr-TR", nil), NewMaintenanceSweep(db, nil, nil), nil)
	require.Len(t, handlers, 2)
	byType := map[string]asynq.HandlerFunc{}
	for _, h := range handlers {
		byType[h.Type] = h.Handler
	}

	at := time.Date(2026, 10, 19, 0, 5, 0, 0, time.Local)
	task, err := NewPeriodResetTask(at)
	require.NoError(t, err)
	require.NoError(t, byType[TaskPeriodReset](context.Background(), task))

	var reports []models.StockReport
	require.NoError(t, db.Find(&reports).Error)
	require.Len(t, reports, 1)
	assert.Equal(t, "Ekim 2026", reports[0].Period)

	task, err = NewMaintenanceAlertsTask(time.Time{})
	require.NoError(t, err)
	require.NoError(t, byType[TaskMaintenanceAlerts](context.Background(), task))

	bad := asynq.NewTask(TaskMaintenanceAlerts, []byte("{"))
	assert.ErrorIs(t, byType[TaskMaintenanceAlerts](context.Background(), bad), asynq.SkipRetry)
}

func TestNewWorker(t *testing.T) {
	cron, err := Schedule("0 0 1 * *", "")
	require.NoError(t, err)
	require.Len(t, cron, 2)

	w, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}, Cron: cron})
	require.NoError(t, err)
	assert.NotNil(t, w.scheduler)

	_, err = NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}, Cron: []CronRegistration{{Spec: "not a cron", Task: cron[0].Task}}})
	assert.Error(t, err)
}

func TestMaintenanceCronHandler(t *testing.T) {
	db := dbtest.New(t)
	app := fiber.New()
	app.Get("/api/cron/maintenance-notify", MaintenanceCronHandler(NewMaintenanceSweep(db, nil, nil), "s3cret", nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/cron/maintenance-notify", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/api/cron/maintenance-notify", nil)
	req.Header.Set(inventory.CronSecretHeader, "s3cret")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
