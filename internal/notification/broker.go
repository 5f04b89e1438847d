package notification

import (
	"context"
	"strings"

	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/metrics"
	"ottobite-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options: opsiyonel link, alıcı etiketleri ve öncelik
type Options struct {
	Link       string
	Role       string
	Department string
	UserID     uint
	Priority   models.NotificationPriority
}

// Result: Persisted=false && Degraded=true ise olay yedek günlüğe yazıldı;
// ikisi de false ise kalıcı iz yok ama canlı yayın yine yapıldı.
type Result struct {
	Persisted bool
	Degraded  bool
}

// Broker persists an event and then publishes it on the bus.
type Broker struct {
	db  *gorm.DB
	bus Bus
	log *zap.Logger
}

func NewBroker(db *gorm.DB, bus Bus, log *zap.Logger) *Broker {
	return &Broker{db: db, bus: bus, log: logger.OrNop(log)}
}

// Notify never fails the caller. A storage fault falls back to the order notification log,
// and the event is published to live observers in every case.
func (b *Broker) Notify(ctx context.Context, typ, content, actorName string, opts Options) Result {
	row := newNotification(typ, content, actorName, opts)

	err := b.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		metrics.Notifications.WithLabelValues("persisted").Inc()
		b.publish(ctx, eventFromNotification(row))
		return Result{Persisted: true}
	}
	b.log.Error("notification could not be persisted, using fallback log",
		zap.String("type", row.Type),
		zap.Error(err))

	e := eventFromNotification(row)
	res := Result{}

	fallbackType := row.Type
	if fallbackType == "" {
		fallbackType = string(models.PriorityInfo)
	}
	fallback := models.OrderNotification{
		Type:     fallbackType,
		Content:  row.Content,
		UserName: row.UserName,
	}
	if err := b.db.WithContext(ctx).Create(&fallback).Error; err != nil {
		metrics.Notifications.WithLabelValues("lost").Inc()
		b.log.Error("fallback notification could not be persisted",
			zap.String("type", row.Type),
			zap.Error(err))
	} else {
		metrics.Notifications.WithLabelValues("degraded").Inc()
		res.Degraded = true
		e.ID = fallback.ID
		e.Source = SourceOrder
		e.CreatedAt = fallback.CreatedAt
	}

	b.publish(ctx, e)
	return res
}

func (b *Broker) publish(ctx context.Context, e Event) {
	if err := b.bus.Publish(ctx, e); err != nil {
		b.log.Warn("notification publish failed",
			zap.String("type", e.Type),
			zap.Error(err))
	}
}

func newNotification(typ, content, actorName string, opts Options) models.Notification {
	actor := strings.TrimSpace(actorName)
	if actor == "" {
		actor = SystemActor
	}
	priority := opts.Priority
	if priority == "" {
		priority = models.PriorityInfo
	}

	n := models.Notification{
		Type:     typ,
		Content:  content,
		UserName: actor,
		Priority: priority,
	}
	if opts.Link != "" {
		n.Link = &opts.Link
	}
	if opts.Role != "" {
		n.Role = &opts.Role
	}
	if opts.Department != "" {
		n.Department = &opts.Department
	}
	if opts.UserID != 0 {
		n.UserID = &opts.UserID
	}
	return n
}
