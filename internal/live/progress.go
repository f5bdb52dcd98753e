package live

import (
	"context"
	"log/slog"
	"slices"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/errors"
)

// Lobby statuses reported by the tournament server.
const (
	StatusGaming  = "gaming"
	StatusVoting  = "voting"
	StatusHalfing = "halfing"
	StatusSetting = "setting"
)

var statuses = []string{StatusGaming, StatusVoting, StatusHalfing, StatusSetting}

// SelectGame records that a game was chosen and returns its position in the
// tournament.
func (s *Service) SelectGame(ctx context.Context, game string) (int, error) {
	if game == "" {
		return 0, errors.InvalidArgument("game is required")
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	pos := s.tracker.RecordSelected(game)
	slog.InfoContext(ctx, "live: game selected", "game", game, "position", pos)
	s.publish(ctx)

	return pos, nil
}

// SetCurrentGame marks game as being played, recording it first if needed.
func (s *Service) SetCurrentGame(ctx context.Context, game string) (int, error) {
	if game == "" {
		return 0, errors.InvalidArgument("game is required")
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	pos := s.tracker.SetCurrent(game)
	slog.InfoContext(ctx, "live: current game", "game", game, "position", pos)
	s.publish(ctx)

	return pos, nil
}

func (s *Service) Progress() domain.Progress {
	return s.tracker.Status()
}

// UpdateGameStatus stores the lobby status block. A gaming status makes its
// game the current one.
func (s *Service) UpdateGameStatus(ctx context.Context, st domain.GameStatus) (*domain.GameStatus, error) {
	if !slices.Contains(statuses, st.Status) {
		return nil, errors.InvalidArgument("unknown status %q", st.Status)
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	if st.Status == StatusGaming && st.Game != "" {
		s.tracker.SetCurrent(st.Game)
	}
	st.TournamentNumber = s.tracker.Status().CurrentPosition

	s.status.Store(&st)
	s.publish(ctx)

	return &st, nil
}

// UpdateVote stores the latest vote. Once the countdown is over the leading
// game is recorded as selected.
func (s *Service) UpdateVote(ctx context.Context, v domain.Vote) (*domain.Vote, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v.Options = slices.Clone(v.Options)
	v.TotalTickets = 0
	for _, o := range v.Options {
		if o.Tickets < 0 {
			return nil, errors.InvalidArgument("negative tickets for %q", o.Game)
		}
		v.TotalTickets += o.Tickets
	}

	if v.TimeRemaining <= 0 {
		if game, ok := v.Leader(); ok {
			pos := s.tracker.RecordSelected(game)
			slog.InfoContext(ctx, "live: vote closed", "game", game, "position", pos, "tickets", v.TotalTickets)
		}
	}

	s.vote.Store(&v)
	s.publish(ctx)

	return &v, nil
}
