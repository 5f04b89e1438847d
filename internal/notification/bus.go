package notification

import (
	"context"
	"errors"
	"sync"

	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/metrics"

	"go.uber.org/zap"
)

var ErrBusClosed = errors.New("event bus kapalı")

const defaultSubscriberBuffer = 64

// Bus distributes live events to subscribers. Delivery is best effort and at most once.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(filter func(Event) bool) *Subscription
	Close() error
}

// Subscription is a live feed; Close is safe to call more than once.
type Subscription struct {
	ch     chan Event
	once   sync.Once
	cancel func()
}

func (s *Subscription) C() <-chan Event { return s.ch }

func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

type subscriber struct {
	filter func(Event) bool
	ch     chan Event
}

// LocalBus is the in-process bus. One instance lives for the whole process.
// Publish holds the lock while enqueueing, so every subscriber sees events in publish order.
type LocalBus struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	buffer int
	closed bool
	log    *zap.Logger
}

func NewLocalBus(buffer int, log *zap.Logger) *LocalBus {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &LocalBus{
		subs:   make(map[uint64]*subscriber),
		buffer: buffer,
		log:    logger.OrNop(log),
	}
}

func (b *LocalBus) Publish(_ context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	for id, s := range b.subs {
		if s.filter != nil && !s.filter(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			// Yavaş abone: olay bu abone için düşer
			metrics.DroppedEvents.Inc()
			b.log.Warn("subscriber buffer full, event dropped",
				zap.Uint64("subscriber", id),
				zap.String("type", e.Type))
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(filter func(Event) bool) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return &Subscription{ch: ch, cancel: func() {}}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{filter: filter, ch: ch}

	return &Subscription{ch: ch, cancel: func() { b.unsubscribe(id) }}
}

func (b *LocalBus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(s.ch)
	}
}

// Len returns the number of live subscribers.
func (b *LocalBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes return ErrBusClosed.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		close(s.ch)
	}
	return nil
}
