package engine

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/victornm/livescore/internal/domain"
)

// Session is the mutable state of one game instance. A session must only be
// touched by one goroutine at a time.
type Session struct {
	GameID    string
	Type      GameType
	Round     int
	StartTime time.Time

	// ad-hoc roster of this instance, in first-seen order
	teams   []string
	members map[string][]string
	teamOf  map[string]string

	scores map[string]int // player -> provisional score
	bonus  map[string]int // ad-hoc team -> team-level provisional score

	Aux        AuxState
	EventCount int
}

func newSession(gameID string, t GameType, round int, roster map[string][]string, now time.Time) *Session {
	if round <= 0 {
		round = 1
	}

	s := &Session{
		GameID:    gameID,
		Type:      t,
		Round:     round,
		StartTime: now,
		members:   make(map[string][]string),
		teamOf:    make(map[string]string),
		scores:    make(map[string]int),
		bonus:     make(map[string]int),
		Aux:       newAuxState(t),
	}

	for _, team := range slices.Sorted(maps.Keys(roster)) {
		s.addTeam(team)
		for _, p := range roster[team] {
			s.addPlayer(p, team)
		}
	}

	return s
}

func (s *Session) addTeam(team string) {
	if _, ok := s.members[team]; ok {
		return
	}

	s.teams = append(s.teams, team)
	s.members[team] = nil
	s.bonus[team] += 0
}

// addPlayer registers p under team. A player keeps the first ad-hoc team it
// was seen with for the whole session.
func (s *Session) addPlayer(p, team string) {
	if p == "" || team == "" {
		return
	}
	if _, ok := s.teamOf[p]; ok {
		return
	}

	s.addTeam(team)
	s.members[team] = append(s.members[team], p)
	s.teamOf[p] = team
	s.scores[p] += 0
}

// clash reports a name that the event would use both as a player and as a
// team of this session.
func (s *Session) clash(p, team string) (string, bool) {
	if p != "" {
		if p == team {
			return p, true
		}
		if _, ok := s.members[p]; ok {
			return p, true
		}
	}
	if team != "" {
		if _, ok := s.teamOf[team]; ok {
			return team, true
		}
	}

	return "", false
}

// TeamOf returns the ad-hoc team of p in this session.
func (s *Session) TeamOf(p string) (string, bool) {
	t, ok := s.teamOf[p]
	return t, ok
}

// Teams returns the ad-hoc teams in first-seen order.
func (s *Session) Teams() []string {
	return slices.Clone(s.teams)
}

// Members returns the players of an ad-hoc team in first-seen order.
func (s *Session) Members(team string) []string {
	return slices.Clone(s.members[team])
}

// Players returns every registered player, team by team.
func (s *Session) Players() []string {
	var ps []string
	for _, t := range s.teams {
		ps = append(ps, s.members[t]...)
	}

	return ps
}

// Score returns the provisional score of a player.
func (s *Session) Score(p string) int {
	return s.scores[p]
}

// TeamTotal returns the provisional total of an ad-hoc team, its members'
// scores plus team-level bonuses.
func (s *Session) TeamTotal(team string) int {
	total := s.bonus[team]
	for _, p := range s.members[team] {
		total += s.scores[p]
	}

	return total
}

// Finished reports whether the game is decided and ignores further scoring.
func (s *Session) Finished() bool {
	st, ok := s.Aux.(*DodgingBoltState)
	return ok && st.Champion != ""
}

// EntityScores returns the provisional score of every player and the total of
// every ad-hoc team, keyed by name.
func (s *Session) EntityScores() map[string]int {
	m := make(map[string]int, len(s.scores)+len(s.teams))
	for p, sc := range s.scores {
		m[p] = sc
	}
	for _, t := range s.teams {
		m[t] = s.TeamTotal(t)
	}

	return m
}

// Board returns the ranked provisional board of the session.
func (s *Session) Board(now time.Time) domain.GameScore {
	g := domain.GameScore{
		GameID:     s.GameID,
		GameType:   string(s.Type),
		Round:      s.Round,
		EventCount: s.EventCount,
		Teams:      make([]domain.TeamScore, 0, len(s.teams)),
		UpdateTime: now,
	}

	if st, ok := s.Aux.(*DodgingBoltState); ok {
		g.Champion = st.Champion
	}

	for _, t := range s.teams {
		ts := domain.TeamScore{
			Team:    t,
			Total:   s.TeamTotal(t),
			Bonus:   s.bonus[t],
			Players: make([]domain.PlayerScore, 0, len(s.members[t])),
		}
		for _, p := range s.members[t] {
			ts.Players = append(ts.Players, domain.PlayerScore{Player: p, Score: s.scores[p]})
		}
		slices.SortStableFunc(ts.Players, func(a, b domain.PlayerScore) int {
			return cmp.Compare(b.Score, a.Score)
		})
		g.Teams = append(g.Teams, ts)
	}

	slices.SortStableFunc(g.Teams, func(a, b domain.TeamScore) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Team, b.Team)
	})
	for i := range g.Teams {
		g.Teams[i].Rank = i + 1
	}

	return g
}
