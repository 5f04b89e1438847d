package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	polls   atomic.Int32
	release chan struct{}
	stream  int
	cookie  atomic.Value
}

func (g *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		g.polls.Add(1)
		if c, err := r.Cookie("session"); err == nil {
			g.cookie.Store(c.Value)
		}
		_ = json.NewEncoder(w).Encode(apperr.Result{Success: true, Data: []notification.Event{
			{ID: 1, Source: notification.SourceNotification, Type: "INFO", Content: "ilk"},
		}})
	})
	mux.HandleFunc("/api/notifications/stream", func(w http.ResponseWriter, r *http.Request) {
		if g.stream != http.StatusOK {
			w.WriteHeader(g.stream)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, ": ping\n\n")
		flusher.Flush()

		select {
		case <-g.release:
		case <-r.Context().Done():
			return
		}
		fmt.Fprint(w, "data: {\"id\":7,\"source\":\"order\",\"type\":\"ITEM_RECEIVED\",\"content\":\"geldi\"}\n\n")
		flusher.Flush()
		<-r.Context().Done()
	})
	return mux
}

type recorder struct {
	mu        sync.Mutex
	events    []notification.Event
	snapshots int
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnEvent: func(e notification.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
		},
		OnSnapshot: func([]notification.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.snapshots++
		},
	}
}

func (r *recorder) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestWatcher_PollsUntilFirstFrame(t *testing.T) {
	g := &fakeGateway{release: make(chan struct{}), stream: http.StatusOK}
	srv := httptest.NewServer(g.handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	w := &Watcher{BaseURL: srv.URL + "/", Session: "tok", PollInterval: 20 * time.Millisecond}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.handlers()) }()

	// heartbeat polling'i durdurmaz
	require.Eventually(t, func() bool { return g.polls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "tok", g.cookie.Load())

	close(g.release)
	require.Eventually(t, func() bool { return rec.eventCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	stopped := g.polls.Load()
	time.Sleep(150 * time.Millisecond)
	assert.LessOrEqual(t, g.polls.Load(), stopped+1)

	rec.mu.Lock()
	assert.Equal(t, uint(7), rec.events[0].ID)
	assert.Equal(t, notification.SourceOrder, rec.events[0].Source)
	assert.Positive(t, rec.snapshots)
	rec.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_KeepsPollingWhenStreamRejected(t *testing.T) {
	g := &fakeGateway{stream: http.StatusServiceUnavailable}
	srv := httptest.NewServer(g.handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{}
	w := &Watcher{BaseURL: srv.URL, PollInterval: 10 * time.Millisecond}
	go func() { _ = w.Run(ctx, rec.handlers()) }()

	require.Eventually(t, func() bool { return g.polls.Load() >= 5 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, rec.eventCount())
}

func TestWatcher_SnapshotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(apperr.Result{Success: false, Error: "Oturum gerekli"})
	}))
	defer srv.Close()

	w := &Watcher{BaseURL: srv.URL}
	_, err := w.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
