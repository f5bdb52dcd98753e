package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/errors"
)

type (
	GameStatusRequest struct {
		Status string `json:"status"`
		Game   struct {
			Name  string `json:"name"`
			Round int    `json:"round"`
		} `json:"game"`
	}

	VoteRequest struct {
		Votes []domain.VoteOption `json:"votes"`
		Time  int                 `json:"time"`
	}

	GameRequest struct {
		Game string `json:"game"`
	}

	GamePosition struct {
		Game     string `json:"game"`
		Position int    `json:"position"`
	}
)

func (a *API) UpdateGameStatus(c *gin.Context) {
	var req GameStatusRequest
	if !bind(c, &req) {
		return
	}

	st, err := a.ls.UpdateGameStatus(c.Request.Context(), domain.GameStatus{
		Status: req.Status,
		Game:   req.Game.Name,
		Round:  req.Game.Round,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

func (a *API) UpdateVote(c *gin.Context) {
	var req VoteRequest
	if !bind(c, &req) {
		return
	}

	for i, o := range req.Votes {
		if o.Game == "" {
			renderError(c, errors.InvalidArgument("vote %d: game is required", i))
			return
		}
	}

	v, err := a.ls.UpdateVote(c.Request.Context(), domain.Vote{
		Options:       req.Votes,
		TimeRemaining: req.Time,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

func (a *API) SelectGame(c *gin.Context) {
	var req GameRequest
	if !bind(c, &req) {
		return
	}

	pos, err := a.ls.SelectGame(c.Request.Context(), req.Game)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, GamePosition{Game: req.Game, Position: pos})
}

func (a *API) SetCurrentGame(c *gin.Context) {
	var req GameRequest
	if !bind(c, &req) {
		return
	}

	pos, err := a.ls.SetCurrentGame(c.Request.Context(), req.Game)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, GamePosition{Game: req.Game, Position: pos})
}

func (a *API) ResetTournament(c *gin.Context) {
	if err := a.ls.ResetTournament(c.Request.Context()); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.ls.Snapshot())
}

func (a *API) GetTournamentStatus(c *gin.Context) {
	c.JSON(http.StatusOK, a.ls.Progress())
}

func (a *API) GetStandings(c *gin.Context) {
	if a.st == nil {
		c.JSON(http.StatusOK, a.ls.Snapshot().Standings)
		return
	}

	st, err := a.st.Get(c.Request.Context())
	if err != nil {
		renderError(c, errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, st)
}

func (a *API) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, a.ls.Snapshot())
}
