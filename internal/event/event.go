package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultQueueSize = 1024
	defaultTimeout   = 30 * time.Second
)

type Event interface {
	Name() string
}

type Handler func(ctx context.Context, e Event) error

// Bus is an in-memory event bus. Every subscription owns a queue and a
// goroutine, so handlers see events in publish order and a slow handler never
// delays the publisher or other handlers. When a queue is full the event is
// dropped for that subscription.
type Bus struct {
	queueSize int
	onDrop    func(e Event)

	wg      sync.WaitGroup
	mu      sync.RWMutex
	subs    map[string][]*subscription
	stopped bool
}

type subscription struct {
	h     Handler
	queue chan envelope
}

type envelope struct {
	ctx context.Context
	e   Event
}

type Option func(*Bus)

func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithDropHook is called for every event dropped because a handler queue was
// full.
func WithDropHook(f func(e Event)) Option {
	return func(b *Bus) {
		b.onDrop = f
	}
}

// NewBus create a new event bus. Caller should call Stop for graceful shutdown the bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		queueSize: defaultQueueSize,
		subs:      make(map[string][]*subscription),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe to an event
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}

	s := &subscription{
		h:     h,
		queue: make(chan envelope, b.queueSize),
	}
	b.subs[name] = append(b.subs[name], s)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for env := range s.queue {
			s.handle(env)
		}
	}()
}

// Publish an event, never blocks.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.stopped {
		return
	}

	for _, s := range b.subs[e.Name()] {
		select {
		case s.queue <- envelope{ctx: ctx, e: e}:
		default:
			slog.WarnContext(ctx, "event: handler queue full, event dropped",
				"event", e.Name(),
			)
			if b.onDrop != nil {
				b.onDrop(e)
			}
		}
	}
}

func (s *subscription) handle(env envelope) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(env.ctx), defaultTimeout)
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "event: handler panic",
				"error", fmt.Errorf("%v, stack: %s", r, debug.Stack()),
			)
		}

		cancel()
	}()

	if err := s.h(ctx, env.e); err != nil {
		slog.ErrorContext(ctx, "event: handle event failed",
			"event", env.e.Name(),
			"error", err,
		)
	}
}

// Stop waits for all queued events to be handled. Events published after Stop
// are discarded.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.stopped {
		b.stopped = true
		for _, subs := range b.subs {
			for _, s := range subs {
				close(s.queue)
			}
		}
	}
	b.mu.Unlock()

	b.wg.Wait()
}
