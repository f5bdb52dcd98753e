package rules

import (
	"fmt"
	"slices"
)

// Team is an official tournament team.
type Team struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Color   string   `yaml:"color"`
	Players []string `yaml:"players"`
}

// Roster is the official team assignment, fixed for the whole tournament.
// It is independent of the ad-hoc teams a game instance reshuffles players into.
type Roster struct {
	teams    []Team
	byID     map[string]int
	byPlayer map[string]string
}

// NewRoster builds the directory. A player listed under two teams is an error.
func NewRoster(teams []Team) (*Roster, error) {
	r := &Roster{
		teams:    make([]Team, 0, len(teams)),
		byID:     make(map[string]int, len(teams)),
		byPlayer: make(map[string]string),
	}

	for _, t := range teams {
		if t.ID == "" {
			return nil, fmt.Errorf("roster: team without id")
		}
		if _, ok := r.byID[t.ID]; ok {
			return nil, fmt.Errorf("roster: duplicate team %q", t.ID)
		}

		for _, p := range t.Players {
			if other, ok := r.byPlayer[p]; ok {
				return nil, fmt.Errorf("roster: player %q listed in teams %q and %q", p, other, t.ID)
			}
			r.byPlayer[p] = t.ID
		}

		t.Players = slices.Clone(t.Players)
		r.byID[t.ID] = len(r.teams)
		r.teams = append(r.teams, t)
	}

	return r, nil
}

// OfficialTeam resolves the player's official team.
func (r *Roster) OfficialTeam(player string) (string, bool) {
	if r == nil {
		return "", false
	}

	t, ok := r.byPlayer[player]
	return t, ok
}

// Team returns the official team with the given id.
func (r *Roster) Team(id string) (Team, bool) {
	if r == nil {
		return Team{}, false
	}

	i, ok := r.byID[id]
	if !ok {
		return Team{}, false
	}

	return r.teams[i], true
}

// Players returns the official members of a team.
func (r *Roster) Players(team string) []string {
	t, ok := r.Team(team)
	if !ok {
		return nil
	}

	return slices.Clone(t.Players)
}

// Teams returns all teams in declaration order.
func (r *Roster) Teams() []Team {
	if r == nil {
		return nil
	}

	return slices.Clone(r.teams)
}
