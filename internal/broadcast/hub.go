// Package broadcast pushes complete tournament snapshots to WebSocket viewers
// and relays them to Redis pub/sub.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/event"
	"github.com/victornm/livescore/internal/telemetry"
)

const (
	defaultInterval   = time.Second
	defaultSendBuffer = 16
)

// Frame types sent to viewers.
const (
	FrameConnection      = "connection"
	FrameSnapshot        = "snapshot"
	FrameTournamentReset = "tournament_reset"
	FramePong            = "pong"
	FrameStatus          = "status_response"
)

type (
	// Source provides the snapshot pushed to viewers.
	Source interface {
		Snapshot() domain.Snapshot
		SetViewerCount(n int)
	}

	// Frame is the envelope of every message written to a viewer.
	Frame struct {
		Type string `json:"type"`
		Data any    `json:"data,omitempty"`
	}

	Connection struct {
		ViewerID    string    `json:"client_id"`
		Viewers     int       `json:"connection_count"`
		ConnectTime time.Time `json:"timestamp"`
	}
)

type Config struct {
	EventBus *event.Bus
	Source   Source
	Metrics  *telemetry.Metrics

	// Redis relays every pushed frame when set.
	Redis        Redis
	PubsubPrefix string

	Interval   time.Duration
	SendBuffer int
}

// Hub keeps the connected viewers. The periodic push loop only runs while at
// least one viewer is connected.
type Hub struct {
	source     Source
	metrics    *telemetry.Metrics
	relay      *relay
	interval   time.Duration
	sendBuffer int
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	viewers  map[string]*viewer
	stopLoop context.CancelFunc
	closed   bool

	// every push loop ever started, including cancelled ones still draining
	loops sync.WaitGroup
}

func New(c Config) *Hub {
	h := &Hub{
		source:     c.Source,
		metrics:    c.Metrics,
		interval:   c.Interval,
		sendBuffer: c.SendBuffer,
		viewers:    make(map[string]*viewer),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	if h.interval <= 0 {
		h.interval = defaultInterval
	}
	if h.sendBuffer <= 0 {
		h.sendBuffer = defaultSendBuffer
	}
	if c.Redis != nil {
		h.relay = &relay{redis: c.Redis, channel: fmt.Sprintf("%s:snapshot", c.PubsubPrefix)}
	}

	c.EventBus.Subscribe(domain.EventNameSnapshotUpdated, func(ctx context.Context, e event.Event) error {
		return h.Broadcast(ctx, Frame{Type: FrameSnapshot, Data: e.(domain.EventSnapshotUpdated).Snapshot})
	})
	c.EventBus.Subscribe(domain.EventNameTournamentReset, func(ctx context.Context, e event.Event) error {
		return h.Broadcast(ctx, Frame{Type: FrameTournamentReset, Data: e.(domain.EventTournamentReset).Snapshot})
	})

	return h
}

// ServeWS upgrades the request and registers the connection as a viewer. The
// viewer receives a connection frame followed by the current snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "broadcast: upgrade failed", "error", err)
		return
	}

	v := &viewer{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}

	n, ok := h.register(v)
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	slog.InfoContext(r.Context(), "broadcast: viewer connected", "viewer_id", v.id, "viewers", n)

	h.sendTo(v, Frame{Type: FrameConnection, Data: Connection{ViewerID: v.id, Viewers: n, ConnectTime: time.Now()}})
	h.sendTo(v, Frame{Type: FrameSnapshot, Data: h.source.Snapshot()})

	go v.writePump()
	go v.readPump()
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.viewers)
}

func (h *Hub) register(v *viewer) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, false
	}

	h.viewers[v.id] = v
	if len(h.viewers) == 1 {
		h.startLoop()
	}
	h.reportViewers()

	return len(h.viewers), true
}

func (h *Hub) unregister(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.viewers[v.id]; !ok {
		return
	}

	delete(h.viewers, v.id)
	close(v.send)
	if len(h.viewers) == 0 && h.stopLoop != nil {
		h.stopLoop()
		h.stopLoop = nil
	}
	h.reportViewers()

	slog.Info("broadcast: viewer disconnected", "viewer_id", v.id, "viewers", len(h.viewers))
}

// reportViewers must be called with h.mu held.
func (h *Hub) reportViewers() {
	h.source.SetViewerCount(len(h.viewers))
	h.metrics.SetViewers(len(h.viewers))
}

// startLoop must be called with h.mu held.
func (h *Hub) startLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	h.stopLoop = cancel

	h.loops.Add(1)
	go func() {
		defer h.loops.Done()

		t := time.NewTicker(h.interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := h.Broadcast(ctx, Frame{Type: FrameSnapshot, Data: h.source.Snapshot()}); err != nil {
					slog.WarnContext(ctx, "broadcast: periodic push failed", "error", err)
				}
			}
		}
	}()
}

// Running reports whether the periodic push loop is active.
func (h *Hub) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.stopLoop != nil
}

// Broadcast sends f to every viewer and to the relay. A viewer whose queue is
// full misses the frame; the next one supersedes it.
func (h *Hub) Broadcast(ctx context.Context, f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("broadcast: marshal %s: %w", f.Type, err)
	}

	var eg errgroup.Group

	eg.Go(func() error {
		h.fanout(b)
		return nil
	})

	if h.relay != nil {
		eg.Go(func() error {
			return h.relay.publish(ctx, b)
		})
	}

	return eg.Wait()
}

func (h *Hub) fanout(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.viewers) == 0 {
		return
	}

	for _, v := range h.viewers {
		if !v.enqueue(b) {
			h.metrics.FrameDropped()
		}
	}
	h.metrics.SnapshotSent()
}

// sendTo queues a frame for a single viewer.
func (h *Hub) sendTo(v *viewer, f Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		slog.Error("broadcast: marshal frame failed", "type", f.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.viewers[v.id]; !ok {
		return
	}
	if !v.enqueue(b) {
		h.metrics.FrameDropped()
	}
}

// Close disconnects every viewer and waits for every push loop to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, v := range h.viewers {
		delete(h.viewers, id)
		close(v.send)
	}
	if h.stopLoop != nil {
		h.stopLoop()
		h.stopLoop = nil
	}
	h.reportViewers()
	h.mu.Unlock()

	h.loops.Wait()
}
