package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is one gameplay event emitted by a minigame server.
// Team is the ad-hoc team of this game instance, not the official one.
type Event struct {
	Player string `json:"player"`
	Team   string `json:"team"`
	Kind   string `json:"event"`
	Detail string `json:"lore"`
}

// ScoreEntry is one line of an authoritative score post.
// An entry without a player carries a team-level score.
type ScoreEntry struct {
	Player string `json:"player"`
	Team   string `json:"team"`
	Score  int    `json:"score"`
}

// PlayerScore is a player's score inside a team board.
type PlayerScore struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

// TeamScore is one row of a provisional game board, ranked by Total.
type TeamScore struct {
	Rank    int           `json:"rank"`
	Team    string        `json:"team"`
	Total   int           `json:"total_score"`
	Bonus   int           `json:"team_bonus"`
	Players []PlayerScore `json:"players"`
}

// GameScore is the provisional board of a single game session.
type GameScore struct {
	GameID     string      `json:"game_id"`
	GameType   string      `json:"game_type"`
	Round      int         `json:"round"`
	EventCount int         `json:"total_events_processed"`
	Teams      []TeamScore `json:"team_rankings"`
	Champion   string      `json:"champion,omitempty"`
	UpdateTime time.Time   `json:"timestamp"`
}

// Standings represents the official cross-tournament totals.
// The list is sorted by score in descending order.
type Standings struct {
	Teams []StandingsTeam `json:"teams"`
}

type StandingsTeam struct {
	Rank    int               `json:"rank"`
	Team    string            `json:"team"`
	Name    string            `json:"name,omitempty"`
	Color   string            `json:"color,omitempty"`
	Total   decimal.Decimal   `json:"total_score"`
	Players []StandingsPlayer `json:"scores"`
}

type StandingsPlayer struct {
	Player string          `json:"player"`
	Score  decimal.Decimal `json:"score"`
}

// GameStatus is the tournament-wide status block pushed by the lobby server.
type GameStatus struct {
	Status           string `json:"status"`
	Game             string `json:"game,omitempty"`
	Round            int    `json:"round,omitempty"`
	TournamentNumber int    `json:"tournament_number"`
}

type VoteOption struct {
	Game    string `json:"game"`
	Tickets int    `json:"ticket"`
}

// Vote is the latest voting round; TimeRemaining counts down in seconds.
type Vote struct {
	Options       []VoteOption `json:"votes"`
	TimeRemaining int          `json:"time_remaining"`
	TotalTickets  int          `json:"total_tickets"`
}

// Leader returns the option with the most tickets, first one wins ties.
func (v Vote) Leader() (string, bool) {
	var (
		best string
		top  int
	)
	for _, o := range v.Options {
		if o.Tickets > top {
			best, top = o.Game, o.Tickets
		}
	}

	return best, best != ""
}

type Progress struct {
	Games           []string `json:"selected_games"`
	Current         string   `json:"current_game"`
	CurrentPosition int      `json:"current_game_number"`
	Total           int      `json:"total_games_selected"`
}

// FeedEntry is an ingested event as shown in the live event feed.
type FeedEntry struct {
	GameID     string    `json:"game_id"`
	Player     string    `json:"player"`
	Team       string    `json:"team"`
	Kind       string    `json:"event"`
	Detail     string    `json:"lore"`
	ReceivedAt time.Time `json:"timestamp"`
}

// Snapshot is the complete state pushed to viewers. Receivers never merge.
type Snapshot struct {
	Standings    Standings   `json:"global_scores"`
	CurrentGame  *GameScore  `json:"current_game_score"`
	Status       *GameStatus `json:"game_status"`
	Vote         *Vote       `json:"current_vote"`
	Progress     Progress    `json:"tournament"`
	RecentEvents []FeedEntry `json:"recent_events"`
	Viewers      int         `json:"connection_count"`
	CreateTime   time.Time   `json:"timestamp"`
}
