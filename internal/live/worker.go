package live

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/engine"
	"github.com/victornm/livescore/internal/errors"
)

// worker is the single writer of one game session. Commands run one at a
// time in arrival order on the worker goroutine, which is the only goroutine
// touching sess. Readers use the published board.
type worker struct {
	gameID string
	inbox  chan command
	quit   chan struct{}
	done   chan struct{}
	now    func() time.Time

	sess  *engine.Session
	board atomic.Pointer[domain.GameScore]
}

type command struct {
	fn    func(w *worker) error
	reply chan error
}

func newWorker(sess *engine.Session, mailbox int, now func() time.Time) *worker {
	w := &worker{
		gameID: sess.GameID,
		inbox:  make(chan command, mailbox),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		now:    now,
		sess:   sess,
	}
	w.publishBoard()

	go w.run()

	return w
}

func (w *worker) run() {
	defer close(w.done)

	for {
		// a pending stop wins over queued commands
		select {
		case <-w.quit:
			w.drain()
			return
		default:
		}

		select {
		case c := <-w.inbox:
			c.reply <- c.run(w)

		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *worker) drain() {
	for {
		select {
		case c := <-w.inbox:
			c.reply <- w.closedErr()
		default:
			return
		}
	}
}

func (c command) run(w *worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Errorf("game %s: panic: %v", w.gameID, r))
		}
	}()

	return c.fn(w)
}

// exec runs fn on the worker and waits for it. A command still queued when
// the worker stops is rejected with CodeUnavailable.
func (w *worker) exec(ctx context.Context, fn func(w *worker) error) error {
	c := command{fn: fn, reply: make(chan error, 1)}

	select {
	case w.inbox <- c:
	case <-w.done:
		return w.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-c.reply:
		return err
	case <-w.done:
		select {
		case err := <-c.reply:
			return err
		default:
			return w.closedErr()
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop rejects queued commands and waits for the running one to finish.
func (w *worker) stop() {
	close(w.quit)
	<-w.done
}

func (w *worker) publishBoard() {
	b := w.sess.Board(w.now())
	w.board.Store(&b)
}

func (w *worker) closedErr() error {
	return errors.Unavailable("game %s: session closed", w.gameID)
}
