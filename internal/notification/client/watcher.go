// Package client is the consumer side of the notification gateway: it reads the snapshot,
// polls until the live stream delivers its first frame, then follows the stream.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/auth"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/notification"

	"go.uber.org/zap"
)

const (
	streamPath   = "/api/notifications/stream"
	snapshotPath = "/api/notifications"

	defaultPollInterval = 10 * time.Second
)

type Handlers struct {
	OnEvent    func(notification.Event)
	OnSnapshot func([]notification.Event)
}

// Watcher: Session oturum token'ı; cookie olarak gönderilir
type Watcher struct {
	BaseURL      string
	Session      string
	PollInterval time.Duration
	HTTPClient   *http.Client
	Log          *zap.Logger
}

// Run blocks until ctx is done. Polling stops for good on the first data frame from the
// stream; if the stream later ends it is not resumed.
func (w *Watcher) Run(ctx context.Context, h Handlers) error {
	log := logger.OrNop(w.Log)
	interval := w.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	var once sync.Once
	firstFrame := func() { once.Do(stopPolling) }

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.poll(pollCtx, interval, h, log)
	}()

	if err := w.stream(ctx, h, firstFrame); err != nil && ctx.Err() == nil {
		log.Warn("notification stream ended", zap.Error(err))
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

func (w *Watcher) poll(ctx context.Context, interval time.Duration, h Handlers, log *zap.Logger) {
	fetch := func() {
		events, err := w.Snapshot(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("notification poll failed", zap.Error(err))
			}
			return
		}
		if h.OnSnapshot != nil && ctx.Err() == nil {
			h.OnSnapshot(events)
		}
	}

	fetch()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fetch()
		}
	}
}

// Snapshot fetches the unread list once.
func (w *Watcher) Snapshot(ctx context.Context) ([]notification.Event, error) {
	req, err := w.newRequest(ctx, snapshotPath)
	if err != nil {
		return nil, err
	}
	resp, err := w.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		apperr.Result
		Data []notification.Event `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("snapshot decode: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("snapshot: %d %s", resp.StatusCode, body.Error)
	}
	return body.Data, nil
}

func (w *Watcher) stream(ctx context.Context, h Handlers, firstFrame func()) error {
	req, err := w.newRequest(ctx, streamPath)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := w.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream: unexpected status %d", resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			// frame sonu
			if data.Len() == 0 {
				continue
			}
			firstFrame()
			var e notification.Event
			if err := json.Unmarshal([]byte(data.String()), &e); err == nil && h.OnEvent != nil {
				h.OnEvent(e)
			}
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// heartbeat
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return sc.Err()
}

func (w *Watcher) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(w.BaseURL, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	if w.Session != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: w.Session})
	}
	return req, nil
}

func (w *Watcher) httpClient() *http.Client {
	if w.HTTPClient != nil {
		return w.HTTPClient
	}
	return http.DefaultClient
}
