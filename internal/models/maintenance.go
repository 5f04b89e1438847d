package models

import "time"

type MaintenancePlanStatus string

const (
	MaintenanceActive MaintenancePlanStatus = "ACTIVE"
	MaintenancePaused MaintenancePlanStatus = "PAUSED"
)

// MaintenancePlan: bakım planı (sadece uyarı job'u okur)
type MaintenancePlan struct {
	ID            uint                  `gorm:"primaryKey" json:"id"`
	Title         string                `gorm:"size:200;not null" json:"title"`
	EquipmentName string                `gorm:"size:100" json:"equipmentName"`
	NextDueDate   *time.Time            `json:"nextDueDate"`
	Status        MaintenancePlanStatus `gorm:"size:10;not null;default:ACTIVE" json:"status"`
	// Virgülle ayrılmış gün eşikleri, ör: "7,3,1"
	NotifyThresholds string    `gorm:"size:50" json:"notifyThresholds"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// MaintenanceAlert: bakım uyarı kuyruğu, her zaman herkese yayınlanır
type MaintenanceAlert struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	EquipmentName string    `gorm:"size:100" json:"equipmentName"`
	PlanID        *uint     `gorm:"index" json:"planId"`
	IsRead        bool      `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}
