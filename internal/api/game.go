package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/errors"
	"github.com/victornm/livescore/internal/live"
)

type (
	InitGameRequest struct {
		GameType string              `json:"game_type"`
		Round    int                 `json:"round"`
		Teams    map[string][]string `json:"teams"`
	}

	IngestEventRequest struct {
		Player string `json:"player"`
		Team   string `json:"team"`
		Event  string `json:"event"`
		Lore   string `json:"lore"`
	}

	ScoreEntryRequest struct {
		Player string `json:"player"`
		Team   string `json:"team"`
		Score  *int   `json:"score"`
	}

	SetRoundRequest struct {
		Round int `json:"round"`
	}
)

func (a *API) InitGame(c *gin.Context) {
	var req InitGameRequest
	if !bind(c, &req) {
		return
	}

	if req.Round < 0 {
		renderError(c, errors.InvalidArgument("round must not be negative"))
		return
	}
	for team, players := range req.Teams {
		if team == "" {
			renderError(c, errors.InvalidArgument("team name is required"))
			return
		}
		for _, p := range players {
			if p == "" {
				renderError(c, errors.InvalidArgument("empty player name in team %s", team))
				return
			}
		}
	}

	board, err := a.ls.InitializeGame(c.Request.Context(), live.InitRequest{
		GameID:   c.Param("game_id"),
		GameType: req.GameType,
		Round:    req.Round,
		Roster:   req.Teams,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (a *API) IngestEvent(c *gin.Context) {
	var req IngestEventRequest
	if !bind(c, &req) {
		return
	}

	if req.Event == "" {
		renderError(c, errors.InvalidArgument("event is required"))
		return
	}
	if req.Player == "" && req.Team == "" {
		renderError(c, errors.InvalidArgument("player or team is required"))
		return
	}

	res, err := a.ls.IngestEvent(c.Request.Context(), c.Param("game_id"), domain.Event{
		Player: req.Player,
		Team:   req.Team,
		Kind:   req.Event,
		Detail: req.Lore,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (a *API) IngestScores(c *gin.Context) {
	var req []ScoreEntryRequest
	if !bind(c, &req) {
		return
	}

	entries := make([]domain.ScoreEntry, 0, len(req))
	for i, e := range req {
		if e.Player == "" && e.Team == "" {
			renderError(c, errors.InvalidArgument("entry %d: player or team is required", i))
			return
		}
		if e.Score == nil {
			renderError(c, errors.InvalidArgument("entry %d: score is required", i))
			return
		}
		entries = append(entries, domain.ScoreEntry{Player: e.Player, Team: e.Team, Score: *e.Score})
	}

	res, err := a.ls.IngestAuthoritativeScores(c.Request.Context(), c.Param("game_id"), entries)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (a *API) SetRound(c *gin.Context) {
	var req SetRoundRequest
	if !bind(c, &req) {
		return
	}

	board, err := a.ls.SetRound(c.Request.Context(), c.Param("game_id"), req.Round)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (a *API) GetGameLeaderboard(c *gin.Context) {
	board, err := a.ls.GameSnapshot(c.Param("game_id"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (a *API) GetComparison(c *gin.Context) {
	c.JSON(http.StatusOK, a.ls.Comparison(c.Param("game_id")))
}

func (a *API) ListPosts(c *gin.Context) {
	posts, err := a.archive.ListPosts(c.Request.Context(), c.Param("game_id"))
	if err != nil {
		renderError(c, errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
