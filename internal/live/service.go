// Package live is the ingestion surface of the tournament: it owns the game
// sessions, feeds the scoring engine in order, keeps the reconciliation and
// progress state, and publishes a complete snapshot after every mutation.
package live

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/engine"
	"github.com/victornm/livescore/internal/errors"
	"github.com/victornm/livescore/internal/event"
	"github.com/victornm/livescore/internal/reconcile"
	"github.com/victornm/livescore/internal/rules"
	"github.com/victornm/livescore/internal/score"
	"github.com/victornm/livescore/internal/standings"
	"github.com/victornm/livescore/internal/telemetry"
	"github.com/victornm/livescore/internal/tournament"
)

const (
	defaultMailboxSize    = 256
	defaultRecentEvents   = 100
	defaultSnapshotEvents = 20
)

type (
	// Standings holds the official totals fed by authoritative posts.
	Standings interface {
		Credit(ctx context.Context, gameID string, credits []standings.Credit) (*domain.Standings, error)
		Cached() domain.Standings
		Reset(ctx context.Context) error
	}

	// Archive stores accepted authoritative posts.
	Archive interface {
		RecordPost(ctx context.Context, p *score.Post) error
	}
)

type Config struct {
	EventBus  *event.Bus
	Rules     rules.Table
	Roster    *rules.Roster
	Standings Standings
	Archive   Archive
	Metrics   *telemetry.Metrics

	// Optional, built from Rules when nil.
	Engine    *engine.Engine
	Reconcile *reconcile.Store
	Tracker   *tournament.Tracker

	MailboxSize    int
	RecentEvents   int
	SnapshotEvents int
	Now            func() time.Time
}

type Service struct {
	eb        *event.Bus
	rules     rules.Table
	roster    *rules.Roster
	engine    *engine.Engine
	reconcile *reconcile.Store
	tracker   *tournament.Tracker
	standings Standings
	archive   Archive
	metrics   *telemetry.Metrics
	now       func() time.Time

	mailboxSize    int
	snapshotEvents int
	feed           *feed

	// lock is held shared by every operation and exclusively by
	// ResetTournament and Close, so a reset never interleaves with one.
	lock sync.RWMutex

	mu     sync.Mutex
	games  map[string]*worker
	closed bool

	active  atomic.Pointer[string]
	status  atomic.Pointer[domain.GameStatus]
	vote    atomic.Pointer[domain.Vote]
	viewers atomic.Int64
}

func New(c Config) *Service {
	s := &Service{
		eb:             c.EventBus,
		rules:          c.Rules,
		roster:         c.Roster,
		engine:         c.Engine,
		reconcile:      c.Reconcile,
		tracker:        c.Tracker,
		standings:      c.Standings,
		archive:        c.Archive,
		metrics:        c.Metrics,
		now:            c.Now,
		mailboxSize:    c.MailboxSize,
		snapshotEvents: c.SnapshotEvents,
		games:          make(map[string]*worker),
	}

	if s.now == nil {
		s.now = time.Now
	}
	if s.engine == nil {
		s.engine = engine.New(c.Rules, engine.WithClock(s.now))
	}
	if s.reconcile == nil {
		s.reconcile = reconcile.NewStore()
	}
	if s.tracker == nil {
		s.tracker = tournament.NewTracker()
	}
	if s.mailboxSize <= 0 {
		s.mailboxSize = defaultMailboxSize
	}
	if s.snapshotEvents <= 0 {
		s.snapshotEvents = defaultSnapshotEvents
	}

	recent := c.RecentEvents
	if recent <= 0 {
		recent = defaultRecentEvents
	}
	s.feed = newFeed(recent)

	return s
}

// workerFor returns the worker of gameID. When there is none and create is not
// nil, a worker is started on the session create returns.
func (s *Service) workerFor(gameID string, create func() (*engine.Session, error)) (*worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.Unavailable("live: service closed")
	}

	if w, ok := s.games[gameID]; ok {
		return w, nil
	}

	if create == nil {
		return nil, errors.NotFound("game %s not found", gameID)
	}

	sess, err := create()
	if err != nil {
		return nil, err
	}

	w := newWorker(sess, s.mailboxSize, s.now)
	s.games[gameID] = w

	return w, nil
}

func (s *Service) lookup(gameID string) (*worker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.games[gameID]
	return w, ok
}

// swapGames replaces the registry and returns the workers of the old one.
func (s *Service) swapGames(closed bool) []*worker {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := make([]*worker, 0, len(s.games))
	for w := range maps.Values(s.games) {
		old = append(old, w)
	}

	s.games = make(map[string]*worker)
	s.closed = closed

	return old
}

// ResetTournament drops every game session and all tournament state. Commands
// queued on the dropped sessions are rejected with CodeUnavailable.
func (s *Service) ResetTournament(ctx context.Context) error {
	s.lock.Lock()

	for _, w := range s.swapGames(false) {
		w.stop()
	}

	s.reconcile.Reset()
	s.tracker.Reset()
	s.feed.reset()
	s.active.Store(nil)
	s.status.Store(nil)
	s.vote.Store(nil)

	var err error
	if s.standings != nil {
		err = s.standings.Reset(ctx)
	}

	s.lock.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "live: reset standings failed", "error", err)
		return errors.Internal(err)
	}

	slog.InfoContext(ctx, "live: tournament reset")
	s.eb.Publish(ctx, domain.EventTournamentReset{Snapshot: s.Snapshot()})

	return nil
}

// Close stops every worker. Later calls fail with CodeUnavailable.
func (s *Service) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, w := range s.swapGames(true) {
		w.stop()
	}
}

func (s *Service) setActive(gameID string) {
	if cur := s.active.Load(); cur != nil && *cur == gameID {
		return
	}

	s.active.Store(&gameID)
}

// SetViewerCount is reported by the broadcaster and copied into snapshots.
func (s *Service) SetViewerCount(n int) {
	s.viewers.Store(int64(n))
}

// Snapshot assembles the complete viewer state. It never waits on a game
// worker.
func (s *Service) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		Status:       s.status.Load(),
		Vote:         s.vote.Load(),
		Progress:     s.tracker.Status(),
		RecentEvents: s.feed.recent(s.snapshotEvents),
		Viewers:      int(s.viewers.Load()),
		CreateTime:   s.now(),
	}

	if s.standings != nil {
		snap.Standings = s.standings.Cached()
	}
	if snap.Standings.Teams == nil {
		snap.Standings.Teams = []domain.StandingsTeam{}
	}

	if id := s.active.Load(); id != nil {
		if w, ok := s.lookup(*id); ok {
			snap.CurrentGame = w.board.Load()
		}
	}

	return snap
}

func (s *Service) publish(ctx context.Context) {
	s.eb.Publish(ctx, domain.EventSnapshotUpdated{Snapshot: s.Snapshot()})
}
