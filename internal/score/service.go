// Package score archives authoritative score posts in Postgres.
package score

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS score_posts (
	post_id     UUID PRIMARY KEY,
	game_id     TEXT NOT NULL,
	game_type   TEXT NOT NULL,
	round       INT NOT NULL,
	multiplier  NUMERIC NOT NULL,
	create_time TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS score_posts_game_id_idx ON score_posts (game_id, create_time);
CREATE TABLE IF NOT EXISTS score_post_entries (
	post_id       UUID NOT NULL REFERENCES score_posts (post_id) ON DELETE CASCADE,
	player        TEXT NOT NULL,
	team          TEXT NOT NULL,
	official_team TEXT NOT NULL,
	score         INT NOT NULL,
	weighted      NUMERIC NOT NULL
);`

type Config struct {
	DB *pgxpool.Pool
}

type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
	}
}

// Post is one authoritative score post as it was accepted.
type Post struct {
	ID         string          `json:"post_id"`
	GameID     string          `json:"game_id"`
	GameType   string          `json:"game_type"`
	Round      int             `json:"round"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Entries    []PostEntry     `json:"entries"`
	CreateTime time.Time       `json:"timestamp"`
}

// PostEntry is a posted score. OfficialTeam is empty when the player could not
// be attributed.
type PostEntry struct {
	Player       string          `json:"player"`
	Team         string          `json:"team"`
	OfficialTeam string          `json:"official_team"`
	Score        int             `json:"score"`
	Weighted     decimal.Decimal `json:"weighted"`
}

// Migrate creates the archive tables if they do not exist.
func (s *Service) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("score: migrate: %w", err)
	}

	return nil
}

// RecordPost stores p and its entries in one transaction and fills p.ID.
func (s *Service) RecordPost(ctx context.Context, p *Post) (err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate post ID: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insPostStmt = `
INSERT INTO score_posts (post_id, game_id, game_type, round, multiplier, create_time)
VALUES ($1, $2, $3, $4, $5, $6);`

	if _, err = tx.Exec(ctx, insPostStmt, id, p.GameID, p.GameType, p.Round, p.Multiplier, p.CreateTime); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	rows := make([][]any, 0, len(p.Entries))
	for _, e := range p.Entries {
		rows = append(rows, []any{id, e.Player, e.Team, e.OfficialTeam, e.Score, e.Weighted})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"score_post_entries"},
		[]string{"post_id", "player", "team", "official_team", "score", "weighted"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	p.ID = id.String()

	return nil
}

// ListPosts returns the posts of a game, oldest first. A post accepted with
// no entries is listed with an empty entry list.
func (s *Service) ListPosts(ctx context.Context, gameID string) ([]Post, error) {
	const stmt = `
SELECT p.post_id, p.game_type, p.round, p.multiplier, p.create_time,
       e.player, e.team, e.official_team, e.score, e.weighted
FROM score_posts p
LEFT JOIN score_post_entries e ON e.post_id = p.post_id
WHERE p.game_id = $1
ORDER BY p.create_time, p.post_id;`

	rows, err := s.db.Query(ctx, stmt, gameID)
	if err != nil {
		return nil, err
	}

	type row struct {
		post  Post
		entry *PostEntry
	}

	flat, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (row, error) {
		var (
			x                      row
			id                     uuid.UUID
			player, team, official *string
			sc                     *int
			weighted               decimal.NullDecimal
		)
		err := r.Scan(&id, &x.post.GameType, &x.post.Round, &x.post.Multiplier, &x.post.CreateTime,
			&player, &team, &official, &sc, &weighted)
		x.post.ID = id.String()
		x.post.GameID = gameID
		if player != nil {
			x.entry = &PostEntry{
				Player:       *player,
				Team:         deref(team),
				OfficialTeam: deref(official),
				Weighted:     weighted.Decimal,
			}
			if sc != nil {
				x.entry.Score = *sc
			}
		}
		return x, err
	})
	if err != nil {
		return nil, err
	}

	return groupPosts(flat, func(x row) (Post, *PostEntry) { return x.post, x.entry }), nil
}

// groupPosts folds joined rows, ordered by post, into posts with entries. A nil
// entry stands for a post without entries.
func groupPosts[T any](rows []T, split func(T) (Post, *PostEntry)) []Post {
	var posts []Post
	for _, r := range rows {
		p, e := split(r)
		if n := len(posts); n == 0 || posts[n-1].ID != p.ID {
			p.Entries = []PostEntry{}
			posts = append(posts, p)
		}
		if e == nil {
			continue
		}
		last := &posts[len(posts)-1]
		last.Entries = append(last.Entries, *e)
	}

	return posts
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
