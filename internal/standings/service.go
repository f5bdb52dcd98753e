// Package standings keeps the official cross-tournament totals in Redis.
package standings

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/rules"
)

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
	Roster *rules.Roster
}

// Credit is the weighted authoritative score of one entity in one game,
// attributed to an official team. An empty Player is a team-level credit.
// A PlayerOnly credit counts toward the player's score but not the team
// total, which then comes from the team-level credits of the same game.
type Credit struct {
	Player     string
	Team       string
	Weighted   decimal.Decimal
	PlayerOnly bool
}

type Service struct {
	redis  redis.UniversalClient
	prefix string
	roster *rules.Roster

	mu     sync.Mutex
	cached atomic.Pointer[domain.Standings]
}

func NewService(c Config) *Service {
	s := &Service{
		redis:  c.Redis,
		prefix: c.Prefix,
		roster: c.Roster,
	}

	s.cached.Store(s.build(nil, nil, nil))

	return s
}

// Credit applies the authoritative result of a game to the official totals.
// The credits replace everything previously credited for gameID: an entity
// posted again is adjusted by the difference, an entity missing from the new
// post loses its previous contribution.
func (s *Service) Credit(ctx context.Context, gameID string, credits []Credit) (*domain.Standings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gameKey := s.key("game:" + gameID)

	prevRaw, err := s.redis.HGetAll(ctx, gameKey).Result()
	if err != nil {
		return nil, fmt.Errorf("standings: get game credits: %w", err)
	}

	prev := make(map[string]decimal.Decimal, len(prevRaw))
	for f, v := range prevRaw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("standings: corrupted credit %s=%q: %w", f, v, err)
		}
		prev[f] = d
	}

	next := make(map[string]decimal.Decimal, len(credits))
	for _, c := range credits {
		f := creditField(c)
		next[f] = next[f].Add(c.Weighted)
	}

	_, err = s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for f, v := range next {
			if old, ok := prev[f]; ok && old.Equal(v) {
				continue
			}
			s.apply(ctx, p, f, v.Sub(prev[f]))
			p.HSet(ctx, gameKey, f, v.String())
		}

		for f, old := range prev {
			if _, ok := next[f]; ok {
				continue
			}
			s.apply(ctx, p, f, old.Neg())
			p.HDel(ctx, gameKey, f)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("standings: credit game %s: %w", gameID, err)
	}

	return s.Refresh(ctx)
}

func (s *Service) apply(ctx context.Context, p redis.Pipeliner, field string, delta decimal.Decimal) {
	team, player, playerOnly := parseCreditField(field)
	d := delta.InexactFloat64()

	if !playerOnly {
		p.ZIncrBy(ctx, s.key("teams"), d, team)
	}
	if player != "" {
		p.ZIncrBy(ctx, s.key("players"), d, player)
		p.HSet(ctx, s.key("player_team"), player, team)
	}
}

// Get reads the official standings from Redis.
func (s *Service) Get(ctx context.Context) (*domain.Standings, error) {
	teams, err := s.redis.ZRevRangeWithScores(ctx, s.key("teams"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("standings: get teams: %w", err)
	}

	players, err := s.redis.ZRevRangeWithScores(ctx, s.key("players"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("standings: get players: %w", err)
	}

	teamOf, err := s.redis.HGetAll(ctx, s.key("player_team")).Result()
	if err != nil {
		return nil, fmt.Errorf("standings: get player teams: %w", err)
	}

	return s.build(teams, players, teamOf), nil
}

// Cached returns the standings as of the last credit or reset without any
// Redis round trip.
func (s *Service) Cached() domain.Standings {
	return *s.cached.Load()
}

// Reset deletes every key of the standings.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter := s.redis.Scan(ctx, 0, s.key("*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("standings: scan keys: %w", err)
	}

	if len(keys) > 0 {
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("standings: delete keys: %w", err)
		}
	}

	s.cached.Store(s.build(nil, nil, nil))

	return nil
}

// Refresh reloads the cached standings from Redis.
func (s *Service) Refresh(ctx context.Context) (*domain.Standings, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	s.cached.Store(st)

	return st, nil
}

func (s *Service) build(teams, players []redis.Z, teamOf map[string]string) *domain.Standings {
	rows := make(map[string]*domain.StandingsTeam)
	row := func(id string) *domain.StandingsTeam {
		if r, ok := rows[id]; ok {
			return r
		}

		r := &domain.StandingsTeam{Team: id, Total: decimal.Zero, Players: []domain.StandingsPlayer{}}
		if t, ok := s.roster.Team(id); ok {
			r.Name, r.Color = t.Name, t.Color
		}
		rows[id] = r

		return r
	}

	for _, t := range s.roster.Teams() {
		r := row(t.ID)
		for _, p := range t.Players {
			r.Players = append(r.Players, domain.StandingsPlayer{Player: p, Score: decimal.Zero})
		}
	}

	for _, z := range teams {
		row(z.Member.(string)).Total = toDecimal(z.Score)
	}

	for _, z := range players {
		p := z.Member.(string)
		team, ok := teamOf[p]
		if !ok {
			continue
		}

		r := row(team)
		sc := toDecimal(z.Score)
		if i := slices.IndexFunc(r.Players, func(x domain.StandingsPlayer) bool { return x.Player == p }); i >= 0 {
			r.Players[i].Score = sc
		} else {
			r.Players = append(r.Players, domain.StandingsPlayer{Player: p, Score: sc})
		}
	}

	out := &domain.Standings{Teams: make([]domain.StandingsTeam, 0, len(rows))}
	for _, r := range rows {
		slices.SortStableFunc(r.Players, func(a, b domain.StandingsPlayer) int {
			if c := b.Score.Cmp(a.Score); c != 0 {
				return c
			}
			return cmp.Compare(a.Player, b.Player)
		})
		out.Teams = append(out.Teams, *r)
	}

	slices.SortFunc(out.Teams, func(a, b domain.StandingsTeam) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Team, b.Team)
	})
	for i := range out.Teams {
		out.Teams[i].Rank = i + 1
	}

	return out
}

func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

const playerOnlySuffix = "|~"

func creditField(c Credit) string {
	f := c.Team + "|" + c.Player
	if c.PlayerOnly && c.Player != "" {
		f += playerOnlySuffix
	}

	return f
}

func parseCreditField(f string) (team, player string, playerOnly bool) {
	f, playerOnly = strings.CutSuffix(f, playerOnlySuffix)

	i := strings.LastIndex(f, "|")
	if i < 0 {
		return f, "", playerOnly
	}

	return f[:i], f[i+1:], playerOnly
}

func (s *Service) key(name string) string {
	return fmt.Sprintf("%s:standings:%s", s.prefix, name)
}
