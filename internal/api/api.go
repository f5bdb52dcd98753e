// Package api exposes the ingestion and query endpoints over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/errors"
	"github.com/victornm/livescore/internal/live"
	"github.com/victornm/livescore/internal/score"
)

type (
	// Standings reads the official totals from their store.
	Standings interface {
		Get(ctx context.Context) (*domain.Standings, error)
	}

	// Archive lists the authoritative posts kept for a game.
	Archive interface {
		ListPosts(ctx context.Context, gameID string) ([]score.Post, error)
	}

	// Viewers serves the WebSocket endpoint.
	Viewers interface {
		ServeWS(w http.ResponseWriter, r *http.Request)
		Viewers() int
	}
)

type Config struct {
	Router    gin.IRouter
	Live      *live.Service
	Standings Standings
	Archive   Archive
	Viewers   Viewers

	// ViewerRate is the number of WebSocket connections per second accepted
	// from one IP, ViewerBurst the bucket size. Zero disables the limit.
	ViewerRate  float64
	ViewerBurst int
}

type API struct {
	ls      *live.Service
	st      Standings
	archive Archive
	viewers Viewers
}

func New(c Config) *API {
	a := &API{
		ls:      c.Live,
		st:      c.Standings,
		archive: c.Archive,
		viewers: c.Viewers,
	}

	r := c.Router

	r.GET("/health", a.Health)

	g := r.Group("/api")
	g.POST("/:game_id/init", a.InitGame)
	g.POST("/:game_id/event", a.IngestEvent)
	g.POST("/:game_id/score", a.IngestScores)
	g.POST("/:game_id/round", a.SetRound)
	g.GET("/:game_id/leaderboard", a.GetGameLeaderboard)
	g.GET("/:game_id/comparison", a.GetComparison)
	if a.archive != nil {
		g.GET("/:game_id/posts", a.ListPosts)
	}

	g.POST("/game/event", a.UpdateGameStatus)
	g.POST("/vote/event", a.UpdateVote)

	g.POST("/tournament/select", a.SelectGame)
	g.POST("/tournament/current", a.SetCurrentGame)
	g.POST("/tournament/reset", a.ResetTournament)
	g.GET("/tournament/status", a.GetTournamentStatus)

	g.GET("/standings", a.GetStandings)
	g.GET("/snapshot", a.GetSnapshot)

	if a.viewers != nil {
		var connect []gin.HandlerFunc
		if c.ViewerRate > 0 {
			connect = append(connect, rateLimit(newIPRateLimiter(c.ViewerRate, c.ViewerBurst)))
		}
		connect = append(connect, a.ServeWS)

		ws := r.Group("/ws")
		ws.GET("", connect...)
		ws.GET("/stats", a.GetViewerStats)
	}

	return a
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bind decodes the JSON body into req, reporting malformed payloads as
// invalid arguments.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		renderError(c, errors.InvalidArgument("malformed request body: %v", err))
		return false
	}

	return true
}

func renderError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{
		"code":    e.Code.String(),
		"message": e.Message,
	})
}
