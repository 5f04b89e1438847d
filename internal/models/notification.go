package models

import "time"

type NotificationPriority string

const (
	PriorityInfo     NotificationPriority = "INFO"
	PriorityHigh     NotificationPriority = "HIGH"
	PriorityCritical NotificationPriority = "CRITICAL"
)

// Notification: kalıcı bildirim kaydı. Role/Department/UserID alıcı etiketleridir;
// hepsi boşsa bildirim herkese gider.
type Notification struct {
	ID         uint                 `gorm:"primaryKey" json:"id"`
	Type       string               `gorm:"size:50;index;not null" json:"type"`
	Content    string               `gorm:"type:text;not null" json:"content"`
	UserName   string               `gorm:"size:100" json:"userName"`
	Link       *string              `gorm:"size:255" json:"link"`
	Role       *string              `gorm:"size:20" json:"role"`
	Department *string              `gorm:"size:100" json:"department"`
	UserID     *uint                `json:"userId"`
	Priority   NotificationPriority `gorm:"size:10;not null;default:INFO" json:"priority"`
	IsRead     bool                 `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt  time.Time            `gorm:"index" json:"createdAt"`
}

// OrderNotification: sade olay günlüğü. Notification yazılamadığında yedek olarak kullanılır.
type OrderNotification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserName  string    `gorm:"size:100" json:"userName"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
