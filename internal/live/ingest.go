package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/engine"
	"github.com/victornm/livescore/internal/errors"
	"github.com/victornm/livescore/internal/reconcile"
	"github.com/victornm/livescore/internal/score"
	"github.com/victornm/livescore/internal/standings"
)

type InitRequest struct {
	GameID string
	// GameType may be empty, it is then derived from GameID.
	GameType string
	Round    int
	Roster   map[string][]string
}

// InitializeGame (re)creates the session of a game. Re-initializing a game
// replaces its state after the events already queued for it.
func (s *Service) InitializeGame(ctx context.Context, req InitRequest) (*domain.GameScore, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	t := engine.GameTypeFromID(req.GameID)
	if req.GameType != "" {
		var ok bool
		if t, ok = engine.ParseGameType(req.GameType); !ok {
			return nil, errors.InvalidArgument("unknown game type %q", req.GameType)
		}
	}

	sess, err := s.engine.NewSession(req.GameID, t, req.Round, req.Roster)
	if err != nil {
		return nil, err
	}

	w, err := s.workerFor(req.GameID, func() (*engine.Session, error) { return sess, nil })
	if err != nil {
		return nil, err
	}

	var board *domain.GameScore
	err = w.exec(ctx, func(w *worker) error {
		w.sess = sess
		w.publishBoard()
		s.reconcile.Forget(w.gameID)
		s.reconcile.SetPredicted(w.gameID, sess.EntityScores())
		board = w.board.Load()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.setActive(req.GameID)
	slog.InfoContext(ctx, "live: game initialized",
		"game_id", req.GameID,
		"game_type", t,
		"round", sess.Round,
		"teams", len(req.Roster),
	)
	s.publish(ctx)

	return board, nil
}

type IngestResult struct {
	GameID     string         `json:"game_id"`
	GameType   string         `json:"game_type"`
	EventCount int            `json:"event_count"`
	Deltas     map[string]int `json:"score_predictions"`
	Totals     map[string]int `json:"total_predicted_scores"`
	Summary    string         `json:"summary,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// IngestEvent feeds one event to the session of gameID, creating a session
// typed after the game id when there is none.
func (s *Service) IngestEvent(ctx context.Context, gameID string, ev domain.Event) (_ *IngestResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			s.metrics.IngestFailed(errors.Convert(err).Code.String())
		}
	}()

	s.lock.RLock()
	defer s.lock.RUnlock()

	w, err := s.workerFor(gameID, func() (*engine.Session, error) {
		sess, err := s.engine.NewSession(gameID, engine.GameTypeFromID(gameID), 1, nil)
		if err == nil {
			slog.InfoContext(ctx, "live: session created on first event", "game_id", gameID, "game_type", sess.Type)
		}
		return sess, err
	})
	if err != nil {
		return nil, err
	}

	var out *IngestResult
	err = w.exec(ctx, func(w *worker) error {
		res, err := s.engine.Process(w.sess, ev)
		if err != nil {
			return err
		}

		w.publishBoard()
		totals := w.sess.EntityScores()
		s.reconcile.SetPredicted(w.gameID, totals)
		s.feed.add(domain.FeedEntry{
			GameID:     w.gameID,
			Player:     ev.Player,
			Team:       ev.Team,
			Kind:       ev.Kind,
			Detail:     ev.Detail,
			ReceivedAt: s.now(),
		})

		out = &IngestResult{
			GameID:     w.gameID,
			GameType:   string(w.sess.Type),
			EventCount: w.sess.EventCount,
			Deltas:     res.Deltas,
			Totals:     totals,
			Summary:    res.Summary,
			Warnings:   res.Warnings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, warn := range out.Warnings {
		slog.WarnContext(ctx, "live: "+warn, "game_id", gameID, "event", ev.Kind)
	}

	s.setActive(gameID)
	s.metrics.EventIngested(out.GameType, ev.Kind, time.Since(start))
	s.publish(ctx)

	return out, nil
}

// SetRound changes the round of a running game.
func (s *Service) SetRound(ctx context.Context, gameID string, round int) (*domain.GameScore, error) {
	if round <= 0 {
		return nil, errors.InvalidArgument("round must be positive, got %d", round)
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	w, err := s.workerFor(gameID, nil)
	if err != nil {
		return nil, err
	}

	var board *domain.GameScore
	err = w.exec(ctx, func(w *worker) error {
		w.sess.Round = round
		w.publishBoard()
		board = w.board.Load()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx)

	return board, nil
}

// GameSnapshot returns the provisional board of a game.
func (s *Service) GameSnapshot(gameID string) (*domain.GameScore, error) {
	w, ok := s.lookup(gameID)
	if !ok {
		return nil, errors.NotFound("game %s not found", gameID)
	}

	return w.board.Load(), nil
}

func (s *Service) Comparison(gameID string) reconcile.Comparison {
	return s.reconcile.Compare(gameID)
}

type AuthoritativeResult struct {
	GameID     string               `json:"game_id"`
	Round      int                  `json:"round"`
	Multiplier decimal.Decimal      `json:"multiplier"`
	Credited   int                  `json:"credited"`
	Warnings   []string             `json:"warnings,omitempty"`
	Comparison reconcile.Comparison `json:"comparison"`
	Standings  domain.Standings     `json:"global_scores"`
}

// IngestAuthoritativeScores replaces the authoritative snapshot of a game and
// credits the weighted scores to the official teams. Provisional scores are
// left untouched.
func (s *Service) IngestAuthoritativeScores(ctx context.Context, gameID string, entries []domain.ScoreEntry) (*AuthoritativeResult, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	round, gameType := 1, engine.GameTypeFromID(gameID)
	if w, ok := s.lookup(gameID); ok {
		err := w.exec(ctx, func(w *worker) error {
			round, gameType = w.sess.Round, w.sess.Type
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.reconcile.UpdateAuthoritative(gameID, entityScores(entries))

	mult := decimal.NewFromFloat(s.rules.RoundMultiplier(round))
	res := &AuthoritativeResult{
		GameID:     gameID,
		Round:      round,
		Multiplier: mult,
	}

	post := &score.Post{
		GameID:     gameID,
		GameType:   string(gameType),
		Round:      round,
		Multiplier: mult,
		CreateTime: s.now(),
	}

	explicit := make(map[string]bool)
	for _, e := range entries {
		if e.Player != "" {
			continue
		}
		if official, ok := s.attribute(e); ok {
			explicit[official] = true
		}
	}

	var (
		credits []standings.Credit
		misses  int
	)
	for _, e := range entries {
		weighted := decimal.NewFromInt(int64(e.Score)).Mul(mult)
		entry := score.PostEntry{Player: e.Player, Team: e.Team, Score: e.Score, Weighted: weighted}

		official, ok := s.attribute(e)
		if !ok {
			misses++
			warn := "no official team for " + describe(e) + ", credit skipped"
			res.Warnings = append(res.Warnings, warn)
			slog.WarnContext(ctx, "live: "+warn, "game_id", gameID)
		} else {
			entry.OfficialTeam = official
			credits = append(credits, standings.Credit{
				Player:     e.Player,
				Team:       official,
				Weighted:   weighted,
				PlayerOnly: e.Player != "" && explicit[official],
			})
		}

		post.Entries = append(post.Entries, entry)
	}
	res.Credited = len(credits)

	if s.standings != nil {
		st, err := s.standings.Credit(ctx, gameID, credits)
		if err != nil {
			return nil, errors.Internal(err)
		}
		res.Standings = *st
	}

	if s.archive != nil {
		if err := s.archive.RecordPost(ctx, post); err != nil {
			slog.ErrorContext(ctx, "live: archive score post failed", "game_id", gameID, "error", err)
			res.Warnings = append(res.Warnings, "score post not archived")
		}
	}

	s.metrics.AuthoritativePost(string(gameType), misses)
	res.Comparison = s.reconcile.Compare(gameID)
	s.publish(ctx)

	return res, nil
}

// attribute resolves the official team credited for an entry. Player entries
// go through the roster; team entries must name an official team.
func (s *Service) attribute(e domain.ScoreEntry) (string, bool) {
	if e.Player != "" {
		return s.roster.OfficialTeam(e.Player)
	}

	t, ok := s.roster.Team(e.Team)
	return t.ID, ok
}

func describe(e domain.ScoreEntry) string {
	if e.Player != "" {
		return "player " + e.Player
	}

	return "team " + e.Team
}

// entityScores flattens a post the way Session.EntityScores does: players by
// name, teams by the sum of their players unless the post names the team
// total explicitly. Several explicit rows for one team add up, as they do in
// the standings.
func entityScores(entries []domain.ScoreEntry) map[string]int {
	m := make(map[string]int, len(entries))
	sums := make(map[string]int)
	explicit := make(map[string]int)

	for _, e := range entries {
		switch {
		case e.Player != "":
			m[e.Player] = e.Score
			if e.Team != "" {
				sums[e.Team] += e.Score
			}
		case e.Team != "":
			explicit[e.Team] += e.Score
		}
	}

	for t, v := range sums {
		m[t] = v
	}
	for t, v := range explicit {
		m[t] = v
	}

	return m
}
