package notification

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/metrics"
	"ottobite-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultHeartbeat     = 15 * time.Second
	DefaultSnapshotLimit = 20
	heartbeatFrame       = ": ping\n\n"
)

type GatewayConfig struct {
	Heartbeat     time.Duration
	SnapshotLimit int
	MaxClients    int // 0: sınırsız
}

// Gateway serves the unread snapshot and the live stream to observers.
type Gateway struct {
	db     *gorm.DB
	bus    Bus
	cfg    GatewayConfig
	log    *zap.Logger
	active atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

func NewGateway(db *gorm.DB, bus Bus, cfg GatewayConfig, log *zap.Logger) *Gateway {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.SnapshotLimit <= 0 {
		cfg.SnapshotLimit = DefaultSnapshotLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		db:     db,
		bus:    bus,
		cfg:    cfg,
		log:    logger.OrNop(log),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close ends every open stream.
func (g *Gateway) Close() { g.cancel() }

// Admit reserves a stream slot. release must be called once the stream ends.
func (g *Gateway) Admit() (release func(), ok bool) {
	n := g.active.Add(1)
	if g.cfg.MaxClients > 0 && n > int64(g.cfg.MaxClients) {
		g.active.Add(-1)
		return func() {}, false
	}
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			g.active.Add(-1)
		}
	}, true
}

func (g *Gateway) Active() int64 { return g.active.Load() }

// Snapshot returns the unread events the observer may see, newest first.
// Sources are read concurrently; a failing source is logged and skipped.
func (g *Gateway) Snapshot(ctx context.Context, o Observer) ([]Event, error) {
	var notifications, orders, alerts []Event
	var failed atomic.Int32

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var rows []models.Notification
		if err := g.unread(gctx, &rows); err != nil {
			g.sourceFailed(&failed, SourceNotification, err)
			return nil
		}
		for _, r := range rows {
			if e := eventFromNotification(r); Visible(e, o) {
				notifications = append(notifications, e)
			}
		}
		return nil
	})
	grp.Go(func() error {
		var rows []models.OrderNotification
		if err := g.unread(gctx, &rows); err != nil {
			g.sourceFailed(&failed, SourceOrder, err)
			return nil
		}
		for _, r := range rows {
			orders = append(orders, eventFromOrderNotification(r))
		}
		return nil
	})
	grp.Go(func() error {
		var rows []models.MaintenanceAlert
		if err := g.unread(gctx, &rows); err != nil {
			g.sourceFailed(&failed, SourceMaintenance, err)
			return nil
		}
		for _, r := range rows {
			alerts = append(alerts, EventFromMaintenanceAlert(r))
		}
		return nil
	})
	_ = grp.Wait()

	if failed.Load() == 3 {
		return nil, apperr.Storage("bildirimler okunamadı", fmt.Errorf("all notification sources failed"))
	}

	out := make([]Event, 0, len(notifications)+len(orders)+len(alerts))
	out = append(out, notifications...)
	out = append(out, alerts...)
	out = append(out, orders...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (g *Gateway) unread(ctx context.Context, dest any) error {
	return g.db.WithContext(ctx).
		Where("is_read = ?", false).
		Order("created_at DESC, id DESC").
		Limit(g.cfg.SnapshotLimit).
		Find(dest).Error
}

func (g *Gateway) sourceFailed(failed *atomic.Int32, src Source, err error) {
	failed.Add(1)
	g.log.Error("snapshot source failed", zap.String("source", string(src)), zap.Error(err))
}

type eventKey struct {
	source Source
	id     uint
}

// Stream writes the snapshot and then the live feed as server-sent events until ctx ends,
// the bus closes or a write fails. The subscription is opened before the snapshot is read
// so nothing published in between is lost; events already sent in the snapshot are skipped.
func (g *Gateway) Stream(ctx context.Context, w *bufio.Writer, o Observer) error {
	connID := uuid.NewString()
	log := g.log.With(zap.String("conn", connID), zap.Uint("user_id", o.UserID))

	sub := g.bus.Subscribe(func(e Event) bool { return Visible(e, o) })
	defer sub.Close()

	metrics.LiveStreams.Inc()
	defer metrics.LiveStreams.Dec()

	log.Debug("stream opened")
	defer log.Debug("stream closed")

	snapshot, err := g.Snapshot(ctx, o)
	if err != nil {
		log.Warn("snapshot unavailable, continuing with live feed", zap.Error(err))
	}
	sent := make(map[eventKey]struct{}, len(snapshot))
	for _, e := range snapshot {
		if err := writeEvent(w, e); err != nil {
			return err
		}
		sent[eventKey{e.Source, e.ID}] = struct{}{}
	}

	ticker := time.NewTicker(g.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-sub.C():
			if !ok {
				return nil
			}
			if e.ID != 0 {
				if _, dup := sent[eventKey{e.Source, e.ID}]; dup {
					continue
				}
			}
			if err := writeEvent(w, e); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := w.WriteString(heartbeatFrame); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

func writeEvent(w *bufio.Writer, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("olay serileştirilemedi: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

// MarkAllRead marks every unread row of every source read, in one transaction.
func (g *Gateway) MarkAllRead(ctx context.Context) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Notification{}, &models.OrderNotification{}, &models.MaintenanceAlert{}} {
			if err := tx.Model(model).Where("is_read = ?", false).Update("is_read", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("bildirimler okundu olarak işaretlenemedi", err)
	}
	return nil
}
