// Package engine turns raw minigame events into provisional score deltas.
//
// A Session holds the state of one game instance and an Engine applies one
// event at a time to it. The engine does no I/O and never blocks; callers are
// responsible for serializing access to a session and for de-duplicating
// replayed events.
package engine

import (
	"fmt"
	"time"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/errors"
	"github.com/victornm/livescore/internal/rules"
)

type (
	Engine struct {
		rules rules.Table
		now   func() time.Time
	}

	Option func(*Engine)

	// Result is what a single event changed. Deltas uses the same keys as
	// Session.EntityScores: players and ad-hoc team totals.
	Result struct {
		Deltas   map[string]int
		Summary  string
		Warnings []string
	}
)

// WithClock replaces the wall clock used for round timing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(t rules.Table, opts ...Option) *Engine {
	e := &Engine{
		rules: t,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// NewSession creates the state of a game instance. Teams of the roster are
// registered in name order, their players in the given order. Players and
// teams share one key space in scores and deltas, so a player named like a
// team is rejected.
func (e *Engine) NewSession(gameID string, t GameType, round int, roster map[string][]string) (*Session, error) {
	if !t.Known() {
		return nil, unknownGameType(t)
	}

	for team, players := range roster {
		for _, p := range players {
			if _, ok := roster[p]; ok {
				return nil, errors.New(errors.CodeInvalidArgument,
					errors.WithMessagef("player %q of team %q shares its name with a team", p, team))
			}
		}
	}

	return newSession(gameID, t, round, roster, e.now()), nil
}

// Process applies ev to s. An unknown game type is the only error and leaves
// s untouched. Every other problem is reported in Result.Warnings.
func (e *Engine) Process(s *Session, ev domain.Event) (Result, error) {
	if !s.Type.Known() {
		return Result{}, unknownGameType(s.Type)
	}

	if name, ok := s.clash(ev.Player, ev.Team); ok {
		s.EventCount++
		return Result{
			Deltas:   map[string]int{},
			Warnings: []string{fmt.Sprintf("%s: %q is used both as a player and a team, event ignored", s.Type, name)},
		}, nil
	}

	s.addPlayer(ev.Player, ev.Team)
	if ev.Player == "" && ev.Team != "" {
		s.addTeam(ev.Team)
	}

	tr := &turn{
		s:      s,
		ev:     ev,
		rules:  e.rules,
		now:    e.now(),
		deltas: make(map[string]int),
	}

	switch s.Type {
	case GameBingo:
		tr.bingo()
	case GameParkourChase:
		tr.parkourChase()
	case GameBattleBox:
		tr.battleBox()
	case GameTNTRun:
		tr.tntRun()
	case GameSkyBrawl:
		tr.skyBrawl()
	case GameHotCod:
		tr.hotCod()
	case GameRunawayWarrior:
		tr.runawayWarrior()
	case GameDodgingBolt:
		tr.dodgingBolt()
	}

	s.EventCount++

	return Result{
		Deltas:   tr.deltas,
		Summary:  tr.summary,
		Warnings: tr.warnings,
	}, nil
}

func unknownGameType(t GameType) error {
	return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown game type %q", t))
}

// turn is the processing of one event.
type turn struct {
	s     *Session
	ev    domain.Event
	rules rules.Table
	now   time.Time

	deltas   map[string]int
	summary  string
	warnings []string
}

func (t *turn) warnf(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

func (t *turn) summarize(format string, args ...any) {
	t.summary = fmt.Sprintf(format, args...)
}

func (t *turn) unknownKind() {
	t.warnf("%s: unknown event kind %q", t.s.Type, t.ev.Kind)
}

// award credits pts to player p and to the total of its ad-hoc team.
func (t *turn) award(p string, pts int) {
	if p == "" || pts <= 0 {
		return
	}

	team, ok := t.s.TeamOf(p)
	if !ok {
		t.warnf("%s: player %q has no team in this game, %d points skipped", t.s.Type, p, pts)
		return
	}

	t.s.scores[p] += pts
	t.deltas[p] += pts
	t.deltas[team] += pts
}

// awardTeam credits a team-level bonus that belongs to no single player.
func (t *turn) awardTeam(team string, pts int) {
	if team == "" || pts <= 0 {
		return
	}

	t.s.addTeam(team)
	t.s.bonus[team] += pts
	t.deltas[team] += pts
}
