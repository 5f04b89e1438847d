package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ottobite-backend/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisCloseTimeout = 5 * time.Second

// RedisBus fans events out across processes through a redis channel.
// Every process republishes what it receives into its own LocalBus, including its own messages,
// so local subscribers only ever read from the LocalBus. Ordering across processes is not guaranteed.
type RedisBus struct {
	client  *redis.Client
	channel string
	local   *LocalBus
	log     *zap.Logger

	cancel    context.CancelFunc
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewRedisBus subscribes to channel and starts the receive loop. The caller keeps ownership of client.
func NewRedisBus(ctx context.Context, client *redis.Client, channel string, local *LocalBus, log *zap.Logger) (*RedisBus, error) {
	log = logger.OrNop(log)

	subCtx, cancel := context.WithCancel(context.Background())
	pubsub := client.Subscribe(subCtx, channel)

	// Abonelik onayını bekle, aksi halde ilk publish kaçabilir
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis kanalına abone olunamadı: %w", err)
	}

	b := &RedisBus{
		client:  client,
		channel: channel,
		local:   local,
		log:     log,
		cancel:  cancel,
		doneCh:  make(chan struct{}),
	}
	go b.receive(subCtx, pubsub)

	log.Info("subscribed to notification channel", zap.String("channel", channel))
	return b, nil
}

func (b *RedisBus) receive(ctx context.Context, pubsub *redis.PubSub) {
	defer close(b.doneCh)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				b.log.Warn("notification channel closed", zap.String("channel", b.channel))
				return
			}

			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.log.Error("invalid notification payload",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			if err := b.local.Publish(ctx, e); err != nil {
				return
			}
		}
	}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("olay serileştirilemedi: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish hatası: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(filter func(Event) bool) *Subscription {
	return b.local.Subscribe(filter)
}

func (b *RedisBus) Close() error {
	b.closeOnce.Do(func() {
		b.cancel()
		select {
		case <-b.doneCh:
		case <-time.After(redisCloseTimeout):
			b.log.Warn("timeout waiting for notification receiver to stop")
		}
		_ = b.local.Close()
	})
	return nil
}
