package jobs

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultEquipmentName = "Ekipman"

// MaintenanceSweep creates an alert for every active plan whose remaining whole days
// hit one of its thresholds, and publishes it so open streams see it right away.
type MaintenanceSweep struct {
	db  *gorm.DB
	bus notification.Bus
	log *zap.Logger
}

func NewMaintenanceSweep(db *gorm.DB, bus notification.Bus, log *zap.Logger) *MaintenanceSweep {
	return &MaintenanceSweep{db: db, bus: bus, log: logger.OrNop(log)}
}

// Run returns the number of alerts created.
func (s *MaintenanceSweep) Run(ctx context.Context, now time.Time) (int, error) {
	var plans []models.MaintenancePlan
	err := s.db.WithContext(ctx).
		Where("next_due_date IS NOT NULL AND status = ?", models.MaintenanceActive).
		Order("id ASC").
		Find(&plans).Error
	if err != nil {
		return 0, fmt.Errorf("bakım planları okunamadı: %w", err)
	}

	created := 0
	for _, p := range plans {
		days := daysRemaining(*p.NextDueDate, now)
		if !hasThreshold(p.NotifyThresholds, days) {
			continue
		}

		equipment := p.EquipmentName
		if equipment == "" {
			equipment = defaultEquipmentName
		}
		planID := p.ID
		alert := models.MaintenanceAlert{
			Content:       fmt.Sprintf("%s • %s • %d gün kaldı", equipment, p.Title, days),
			EquipmentName: p.EquipmentName,
			PlanID:        &planID,
		}
		if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
			return created, fmt.Errorf("bakım uyarısı oluşturulamadı (plan %d): %w", p.ID, err)
		}
		created++

		if s.bus != nil {
			if err := s.bus.Publish(ctx, notification.EventFromMaintenanceAlert(alert)); err != nil {
				s.log.Warn("maintenance alert publish failed", zap.Uint("alert_id", alert.ID), zap.Error(err))
			}
		}
	}

	s.log.Info("maintenance sweep finished", zap.Int("plans", len(plans)), zap.Int("alerts", created))
	return created, nil
}

// daysRemaining: tam gün, aşağı yuvarlanır (geçmiş tarih negatif)
func daysRemaining(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

func hasThreshold(raw string, days int) bool {
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil && n == days {
			return true
		}
	}
	return false
}
