// Package notification records domain events and fans them out to connected observers.
package notification

import (
	"time"

	"ottobite-backend/internal/models"
)

// Source: olayın hangi kalıcı tablodan geldiği
type Source string

const (
	SourceNotification Source = "notification"
	SourceOrder        Source = "order"
	SourceMaintenance  Source = "maintenance"
)

const (
	SystemActor          = "Sistem"
	TypeMaintenanceAlert = "MAINTENANCE_ALERT"
)

// Event is the frame payload sent to observers, both in snapshots and on the live feed.
type Event struct {
	ID         uint                        `json:"id,omitempty"`
	Source     Source                      `json:"source"`
	Type       string                      `json:"type"`
	Content    string                      `json:"content"`
	UserName   string                      `json:"userName"`
	Link       *string                     `json:"link"`
	Role       *string                     `json:"role"`
	Department *string                     `json:"department"`
	UserID     *uint                       `json:"userId"`
	Priority   models.NotificationPriority `json:"priority"`
	CreatedAt  time.Time                   `json:"createdAt"`
}

func eventFromNotification(n models.Notification) Event {
	return Event{
		ID:         n.ID,
		Source:     SourceNotification,
		Type:       n.Type,
		Content:    n.Content,
		UserName:   n.UserName,
		Link:       n.Link,
		Role:       n.Role,
		Department: n.Department,
		UserID:     n.UserID,
		Priority:   n.Priority,
		CreatedAt:  n.CreatedAt,
	}
}

// Yedek günlükte alıcı etiketi tutulmaz, herkese gider
func eventFromOrderNotification(o models.OrderNotification) Event {
	return Event{
		ID:        o.ID,
		Source:    SourceOrder,
		Type:      o.Type,
		Content:   o.Content,
		UserName:  o.UserName,
		Priority:  models.PriorityInfo,
		CreatedAt: o.CreatedAt,
	}
}

// EventFromMaintenanceAlert is exported for the maintenance job, which publishes alerts itself.
func EventFromMaintenanceAlert(m models.MaintenanceAlert) Event {
	return Event{
		ID:        m.ID,
		Source:    SourceMaintenance,
		Type:      TypeMaintenanceAlert,
		Content:   m.Content,
		UserName:  SystemActor,
		Priority:  models.PriorityHigh,
		CreatedAt: m.CreatedAt,
	}
}
