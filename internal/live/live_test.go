package live_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/livescore/internal/domain"
	"github.com/victornm/livescore/internal/engine"
	"github.com/victornm/livescore/internal/errors"
	"github.com/victornm/livescore/internal/event"
	"github.com/victornm/livescore/internal/live"
	"github.com/victornm/livescore/internal/rules"
	"github.com/victornm/livescore/internal/score"
	"github.com/victornm/livescore/internal/standings"
)

func TestService_BingoScenario(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	_, err := s.InitializeGame(ctx, live.InitRequest{
		GameID:   "bingo_speed_round1",
		GameType: "bingo",
		Round:    1,
		Roster:   map[string][]string{"RED": {"A"}, "BLUE": {"B"}},
	})
	require.NoError(t, err)

	_, err = s.IngestEvent(ctx, "bingo_speed_round1", domain.Event{Player: "A", Team: "RED", Kind: engine.KindItemFound, Detail: "diamond"})
	require.NoError(t, err)
	res, err := s.IngestEvent(ctx, "bingo_speed_round1", domain.Event{Player: "B", Team: "BLUE", Kind: engine.KindItemFound, Detail: "diamond"})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"B": 20, "BLUE": 60}, res.Deltas)
	assert.Equal(t, map[string]int{"A": 20, "B": 20, "RED": 70, "BLUE": 60}, res.Totals)
	assert.Equal(t, 2, res.EventCount)

	board, err := s.GameSnapshot("bingo_speed_round1")
	require.NoError(t, err)
	require.Len(t, board.Teams, 2)
	assert.Equal(t, "RED", board.Teams[0].Team)
	assert.Equal(t, 70, board.Teams[0].Total)

	assert.Equal(t, res.Totals, s.Comparison("bingo_speed_round1").Predicted)

	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentGame)
	assert.Equal(t, "bingo_speed_round1", snap.CurrentGame.GameID)
	require.Len(t, snap.RecentEvents, 2)
	assert.Equal(t, "B", snap.RecentEvents[0].Player, "recent events should be newest first")
}

func TestService_IngestEvent(t *testing.T) {
	tests := map[string]struct {
		gameID string
		event  domain.Event
		assert func(t *testing.T, s *live.Service, res *live.IngestResult, err error)
	}{
		"an unknown game should be created from its id": {
			gameID: "tnt_spleef_round2",
			event:  domain.Event{Player: "A", Team: "RED", Kind: engine.KindPlayerFall},
			assert: func(t *testing.T, s *live.Service, res *live.IngestResult, err error) {
				require.NoError(t, err)
				assert.Equal(t, "tntrun", res.GameType)
				assert.Equal(t, 1, res.EventCount)

				board, err := s.GameSnapshot("tnt_spleef_round2")
				require.NoError(t, err)
				assert.Equal(t, 1, board.Round)
			},
		},

		"an unknown game type should be rejected without creating a session": {
			gameID: "ludo_1",
			event:  domain.Event{Player: "A", Team: "RED", Kind: "Roll"},
			assert: func(t *testing.T, s *live.Service, _ *live.IngestResult, err error) {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.CodeInvalidArgument))

				_, err = s.GameSnapshot("ludo_1")
				assert.True(t, errors.Is(err, errors.CodeNotFound))
				assert.Empty(t, s.Snapshot().RecentEvents)
			},
		},

		"an unknown event kind should be counted with a warning": {
			gameID: "battle_box_1",
			event:  domain.Event{Player: "A", Team: "RED", Kind: "Dance"},
			assert: func(t *testing.T, _ *live.Service, res *live.IngestResult, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, res.EventCount)
				assert.Len(t, res.Warnings, 1)
				assert.Empty(t, res.Deltas)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, _ := makeService(t)
			res, err := s.IngestEvent(context.Background(), tt.gameID, tt.event)
			tt.assert(t, s, res, err)
		})
	}
}

func TestService_InitializeGame(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	_, err := s.InitializeGame(ctx, live.InitRequest{GameID: "x", GameType: "ludo"})
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument))

	_, err = s.InitializeGame(ctx, live.InitRequest{
		GameID: "bingo_1",
		Roster: map[string][]string{"Steve": {"Steve"}},
	})
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument), "a player named like a team should be rejected")

	_, err = s.IngestEvent(ctx, "skywars_1", domain.Event{Player: "A", Team: "RED", Kind: engine.KindKill, Detail: "B"})
	require.NoError(t, err)

	board, err := s.InitializeGame(ctx, live.InitRequest{
		GameID: "skywars_1",
		Round:  3,
		Roster: map[string][]string{"RED": {"A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, board.EventCount, "re-initializing should start from fresh state")
	assert.Equal(t, 3, board.Round)
	assert.Equal(t, 0, board.Teams[0].Total)

	board, err = s.SetRound(ctx, "skywars_1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, board.Round)

	_, err = s.SetRound(ctx, "missing", 2)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestService_IngestAuthoritativeScores(t *testing.T) {
	s, archive := makeService(t)
	ctx := context.Background()

	_, err := s.InitializeGame(ctx, live.InitRequest{
		GameID: "bingo_r2",
		Round:  2,
		Roster: map[string][]string{"RED": {"A"}, "BLUE": {"C"}},
	})
	require.NoError(t, err)

	res, err := s.IngestAuthoritativeScores(ctx, "bingo_r2", []domain.ScoreEntry{
		{Player: "A", Team: "RED", Score: 10},
		{Player: "C", Team: "BLUE", Score: 4},
		{Player: "Z", Team: "RED", Score: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, "1.5", res.Multiplier.String())
	assert.Equal(t, 2, res.Credited)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Z")

	totals := make(map[string]string)
	for _, team := range res.Standings.Teams {
		totals[team.Team] = team.Total.String()
	}
	assert.Equal(t, map[string]string{"RED": "15", "BLUE": "6"}, totals)

	assert.Equal(t, 3, res.Comparison.Diff["Z"])
	assert.Equal(t, 13, res.Comparison.Diff["RED"])
	assert.Equal(t, 0, s.Comparison("bingo_r2").Predicted["A"], "authoritative scores should never overwrite provisional ones")

	require.Len(t, archive.posts, 1)
	assert.Equal(t, "bingo", archive.posts[0].GameType)
	assert.Len(t, archive.posts[0].Entries, 3)
	assert.Empty(t, archive.posts[0].Entries[2].OfficialTeam)

	// posting again replaces the game's contribution
	res, err = s.IngestAuthoritativeScores(ctx, "bingo_r2", []domain.ScoreEntry{
		{Player: "A", Team: "RED", Score: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "3", res.Standings.Teams[0].Total.String())
	assert.Equal(t, "RED", res.Standings.Teams[0].Team)
}

func TestService_IngestAuthoritativeScores_TeamRows(t *testing.T) {
	tests := map[string]struct {
		entries []domain.ScoreEntry
		want    map[string]string
		players map[string]string
	}{
		"an explicit team row should override the sum of its players": {
			entries: []domain.ScoreEntry{
				{Player: "A", Team: "RED", Score: 10},
				{Player: "B", Team: "RED", Score: 5},
				{Team: "RED", Score: 15},
				{Player: "C", Team: "BLUE", Score: 4},
			},
			want:    map[string]string{"RED": "15", "BLUE": "4"},
			players: map[string]string{"A": "10", "B": "5", "C": "4"},
		},

		"an explicit team row should win even when it disagrees with its players": {
			entries: []domain.ScoreEntry{
				{Player: "A", Team: "RED", Score: 10},
				{Player: "B", Team: "RED", Score: 5},
				{Team: "RED", Score: 20},
			},
			want:    map[string]string{"RED": "20", "BLUE": "0"},
			players: map[string]string{"A": "10", "B": "5"},
		},

		"a team only post should credit the team": {
			entries: []domain.ScoreEntry{
				{Team: "BLUE", Score: 7},
			},
			want: map[string]string{"RED": "0", "BLUE": "7"},
		},

		"several team rows for one team should add up": {
			entries: []domain.ScoreEntry{
				{Team: "RED", Score: 3},
				{Team: "RED", Score: 4},
			},
			want: map[string]string{"RED": "7", "BLUE": "0"},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, _ := makeService(t)

			res, err := s.IngestAuthoritativeScores(context.Background(), "battle_box_r1", tt.entries)
			require.NoError(t, err)
			assert.Equal(t, "1", res.Multiplier.String())

			totals := make(map[string]string)
			players := make(map[string]string)
			for _, team := range res.Standings.Teams {
				totals[team.Team] = team.Total.String()
				for _, p := range team.Players {
					if !p.Score.IsZero() {
						players[p.Player] = p.Score.String()
					}
				}
			}
			assert.Equal(t, tt.want, totals)
			if tt.players != nil {
				assert.Equal(t, tt.players, players)
			}

			for team, actual := range res.Comparison.Actual {
				if want, ok := tt.want[team]; ok {
					assert.Equal(t, want, fmt.Sprint(actual), "standings and reconciliation should agree on %s", team)
				}
			}
		})
	}
}

func TestService_ConcurrentIngest(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	const producers, perProducer = 8, 50

	var wg sync.WaitGroup
	for i := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range perProducer {
				_, err := s.IngestEvent(ctx, "bingo_1", domain.Event{
					Player: fmt.Sprintf("P%d", i),
					Team:   fmt.Sprintf("T%d", i),
					Kind:   engine.KindItemFound,
					Detail: fmt.Sprintf("item%d", j),
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	board, err := s.GameSnapshot("bingo_1")
	require.NoError(t, err)
	assert.Equal(t, producers*perProducer, board.EventCount)

	var sum int
	for _, team := range board.Teams {
		sum += team.Total
	}
	// every item is claimed once by each of the 8 teams
	assert.Equal(t, perProducer*(50+40+30+25+20+15+10+5+producers*20), sum)
}

func TestService_ResetTournament(t *testing.T) {
	eb := event.NewBus()
	s, _ := makeService(t, withEventBus(eb))
	ctx := context.Background()

	var (
		mu     sync.Mutex
		resets []domain.EventTournamentReset
	)
	eb.Subscribe(domain.EventNameTournamentReset, func(_ context.Context, e event.Event) error {
		mu.Lock()
		resets = append(resets, e.(domain.EventTournamentReset))
		mu.Unlock()
		return nil
	})

	_, err := s.IngestEvent(ctx, "bingo_1", domain.Event{Player: "A", Team: "RED", Kind: engine.KindItemFound, Detail: "x"})
	require.NoError(t, err)
	_, err = s.SelectGame(ctx, "bingo")
	require.NoError(t, err)
	_, err = s.IngestAuthoritativeScores(ctx, "bingo_1", []domain.ScoreEntry{{Player: "A", Team: "RED", Score: 10}})
	require.NoError(t, err)

	require.NoError(t, s.ResetTournament(ctx))

	_, err = s.GameSnapshot("bingo_1")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	assert.Empty(t, s.Progress().Games)
	assert.Empty(t, s.Comparison("bingo_1").Actual)

	snap := s.Snapshot()
	assert.Nil(t, snap.CurrentGame)
	assert.Empty(t, snap.RecentEvents)
	for _, team := range snap.Standings.Teams {
		assert.True(t, team.Total.IsZero(), "team %s should restart from zero", team.Team)
	}

	eb.Stop()
	mu.Lock()
	assert.Len(t, resets, 1)
	mu.Unlock()
}

func TestService_ResetUnderLoad(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				_, err := s.IngestEvent(ctx, fmt.Sprintf("battle_box_%d", i%2), domain.Event{
					Player: fmt.Sprintf("P%d", j%5),
					Team:   "RED",
					Kind:   engine.KindKill,
				})
				if err != nil {
					assert.True(t, errors.Is(err, errors.CodeUnavailable), "unexpected error: %v", err)
				}
			}
		}()
	}

	for range 3 {
		assert.NoError(t, s.ResetTournament(ctx))
	}
	wg.Wait()

	for _, id := range []string{"battle_box_0", "battle_box_1"} {
		board, err := s.GameSnapshot(id)
		if err != nil {
			continue
		}

		var total int
		for _, team := range board.Teams {
			total += team.Total
		}
		assert.Equal(t, board.EventCount*15, total, "a session should never mix state from before a reset")
	}
}

func TestService_Close(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	_, err := s.IngestEvent(ctx, "hot_cod_1", domain.Event{Player: "A", Team: "RED", Kind: engine.KindCodPassed})
	require.NoError(t, err)

	s.Close()

	_, err = s.IngestEvent(ctx, "hot_cod_1", domain.Event{Player: "A", Team: "RED", Kind: engine.KindCodPassed})
	assert.True(t, errors.Is(err, errors.CodeUnavailable))
}

func TestService_PublishesSnapshots(t *testing.T) {
	eb := event.NewBus()
	s, _ := makeService(t, withEventBus(eb), withFeed(3, 2))
	ctx := context.Background()

	var (
		mu    sync.Mutex
		snaps []domain.Snapshot
	)
	eb.Subscribe(domain.EventNameSnapshotUpdated, func(_ context.Context, e event.Event) error {
		mu.Lock()
		snaps = append(snaps, e.(domain.EventSnapshotUpdated).Snapshot)
		mu.Unlock()
		return nil
	})

	s.SetViewerCount(7)
	for i := range 5 {
		_, err := s.IngestEvent(ctx, "runaway_warrior_1", domain.Event{Player: "A", Team: "RED", Kind: engine.KindCheckpoint, Detail: fmt.Sprintf("main_%d", i)})
		require.NoError(t, err)
	}
	eb.Stop()

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, snaps, 5, "every mutation should publish a snapshot")
	last := snaps[len(snaps)-1]
	assert.Equal(t, 7, last.Viewers)
	require.NotNil(t, last.CurrentGame)
	assert.Equal(t, 5, last.CurrentGame.EventCount)
	require.Len(t, last.RecentEvents, 2)
	assert.Equal(t, "main_4", last.RecentEvents[0].Detail)
	assert.Equal(t, 3, snaps[2].CurrentGame.EventCount, "snapshots should arrive in mutation order")
}

func TestService_LobbyState(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	v, err := s.UpdateVote(ctx, domain.Vote{
		Options:       []domain.VoteOption{{Game: "bingo", Tickets: 3}, {Game: "tntrun", Tickets: 5}},
		TimeRemaining: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, v.TotalTickets)
	assert.Empty(t, s.Progress().Games, "an open vote should not select a game")

	_, err = s.UpdateVote(ctx, domain.Vote{
		Options: []domain.VoteOption{{Game: "bingo", Tickets: 3}, {Game: "tntrun", Tickets: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tntrun"}, s.Progress().Games)

	st, err := s.UpdateGameStatus(ctx, domain.GameStatus{Status: live.StatusGaming, Game: "bingo", Round: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, st.TournamentNumber)
	assert.Equal(t, domain.Progress{
		Games:           []string{"tntrun", "bingo"},
		Current:         "bingo",
		CurrentPosition: 2,
		Total:           2,
	}, s.Progress())

	_, err = s.UpdateGameStatus(ctx, domain.GameStatus{Status: "dancing"})
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument))

	pos, err := s.SelectGame(ctx, "tntrun")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	snap := s.Snapshot()
	require.NotNil(t, snap.Vote)
	require.NotNil(t, snap.Status)
	assert.Equal(t, live.StatusGaming, snap.Status.Status)
}

type fakeArchive struct {
	mu    sync.Mutex
	posts []score.Post
}

func (a *fakeArchive) RecordPost(_ context.Context, p *score.Post) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.posts = append(a.posts, *p)
	return nil
}

type options func(c *live.Config)

func withEventBus(eb *event.Bus) options {
	return func(c *live.Config) {
		c.EventBus = eb
	}
}

func withFeed(keep, send int) options {
	return func(c *live.Config) {
		c.RecentEvents = keep
		c.SnapshotEvents = send
	}
}

func makeService(t *testing.T, opts ...options) (*live.Service, *fakeArchive) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	roster, err := rules.NewRoster([]rules.Team{
		{ID: "RED", Players: []string{"A", "B"}},
		{ID: "BLUE", Players: []string{"C"}},
	})
	require.NoError(t, err)

	archive := &fakeArchive{}
	c := live.Config{
		EventBus: event.NewBus(),
		Rules:    rules.Default(),
		Roster:   roster,
		Standings: standings.NewService(standings.Config{
			Redis:  rc,
			Prefix: "test",
			Roster: roster,
		}),
		Archive: archive,
	}

	for _, opt := range opts {
		opt(&c)
	}

	s := live.New(c)
	t.Cleanup(s.Close)

	return s, archive
}
