package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/livescore/internal/api"
	"github.com/victornm/livescore/internal/broadcast"
	"github.com/victornm/livescore/internal/event"
	"github.com/victornm/livescore/internal/live"
	"github.com/victornm/livescore/internal/rules"
	"github.com/victornm/livescore/internal/score"
	"github.com/victornm/livescore/internal/standings"
	"github.com/victornm/livescore/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	Redis struct {
		Standings struct {
			Addrs  []string
			Pass   string
			Prefix string
		}

		// Pubsub relays snapshots to other processes. Disabled without Addrs.
		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		// Archive of authoritative score posts. Disabled without Addr.
		Archive struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Tournament struct {
		// RulesFile is the YAML file with the roster and scoring rules. The
		// built-in rules and an empty roster are used when it is empty.
		RulesFile string
	}

	Broadcast struct {
		Interval       time.Duration
		SendBuffer     int
		MailboxSize    int
		RecentEvents   int
		SnapshotEvents int
	}

	Viewer struct {
		RPS   float64
		Burst int
	}
}

// DefaultConfig returns the values used for settings absent from the config
// file and the environment.
func DefaultConfig() Config {
	var c Config

	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.Redis.Standings.Addrs = []string{"localhost:6379"}
	c.Redis.Standings.Prefix = "livescore"
	c.Redis.Pubsub.Prefix = "livescore"
	c.Broadcast.Interval = time.Second
	c.Broadcast.SendBuffer = 16
	c.Broadcast.MailboxSize = 256
	c.Broadcast.RecentEvents = 100
	c.Broadcast.SnapshotEvents = 20
	c.Viewer.RPS = 1
	c.Viewer.Burst = 5

	return c
}

type Server struct {
	c Config

	eb      *event.Bus
	metrics *telemetry.Metrics

	tournament *rules.Tournament

	infra struct {
		redis struct {
			standings redis.UniversalClient
			pubsub    redis.UniversalClient
		}

		postgres struct {
			archive *pgxpool.Pool
		}
	}

	service struct {
		standings *standings.Service
		score     *score.Service
		live      *live.Service
		hub       *broadcast.Hub
	}

	http   *http.Server
	grpc   *grpc.Server
	health *health.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.metrics = telemetry.NewMetrics(prometheus.DefaultRegisterer)
	s.eb = event.NewBus(event.WithDropHook(func(e event.Event) {
		s.metrics.BusDropped(e.Name())
	}))

	if err := s.loadTournament(); err != nil {
		return nil, fmt.Errorf("server: load tournament: %w", err)
	}

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) loadTournament() error {
	if s.c.Tournament.RulesFile == "" {
		slog.Warn("server: no tournament file, using default rules and an empty roster")

		r, err := rules.NewRoster(nil)
		if err != nil {
			return err
		}
		s.tournament = &rules.Tournament{Table: rules.Default(), Roster: r}
		return nil
	}

	t, err := rules.LoadFile(s.c.Tournament.RulesFile)
	if err != nil {
		return err
	}

	slog.Info("server: tournament loaded", "file", s.c.Tournament.RulesFile, "teams", len(t.Roster.Teams()))
	s.tournament = t
	return nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.standings, err = connect(s.c.Redis.Standings.Addrs, s.c.Redis.Standings.Pass)
	if err != nil {
		return fmt.Errorf("standings: %w", err)
	}

	if len(s.c.Redis.Pubsub.Addrs) == 0 {
		slog.Info("server: redis pubsub relay disabled")
		return nil
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	connect := func(addr, user, pass, name string) (*pgxpool.Pool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", user, pass, addr, name))
		if err != nil {
			return nil, err
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return nil, err
		}

		if err := db.Ping(ctx); err != nil {
			return nil, err
		}

		return db, nil
	}

	pc := s.c.Postgres.Archive
	if pc.Addr == "" {
		slog.Info("server: score archive disabled")
		return nil
	}

	s.infra.postgres.archive, err = connect(pc.Addr, pc.User, pc.Pass, pc.Name)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	return nil
}

func (s *Server) initService() error {
	s.service.standings = standings.NewService(standings.Config{
		Redis:  s.infra.redis.standings,
		Prefix: s.c.Redis.Standings.Prefix,
		Roster: s.tournament.Roster,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// pick up totals credited before a restart
	if _, err := s.service.standings.Refresh(ctx); err != nil {
		return err
	}

	lc := live.Config{
		EventBus:       s.eb,
		Rules:          s.tournament.Table,
		Roster:         s.tournament.Roster,
		Standings:      s.service.standings,
		Metrics:        s.metrics,
		MailboxSize:    s.c.Broadcast.MailboxSize,
		RecentEvents:   s.c.Broadcast.RecentEvents,
		SnapshotEvents: s.c.Broadcast.SnapshotEvents,
	}

	if s.infra.postgres.archive != nil {
		s.service.score = score.NewService(score.Config{
			DB: s.infra.postgres.archive,
		})
		if err := s.service.score.Migrate(ctx); err != nil {
			return err
		}
		lc.Archive = s.service.score
	}

	s.service.live = live.New(lc)

	bc := broadcast.Config{
		EventBus:   s.eb,
		Source:     s.service.live,
		Metrics:    s.metrics,
		Interval:   s.c.Broadcast.Interval,
		SendBuffer: s.c.Broadcast.SendBuffer,
	}
	if s.infra.redis.pubsub != nil {
		bc.Redis = s.infra.redis.pubsub
		bc.PubsubPrefix = s.c.Redis.Pubsub.Prefix
	}
	s.service.hub = broadcast.New(bc)

	return nil
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor())
	s.health = telemetry.RegisterHealth(s.grpc)

	ac := api.Config{
		Router:      e,
		Live:        s.service.live,
		Standings:   s.service.standings,
		Viewers:     s.service.hub,
		ViewerRate:  s.c.Viewer.RPS,
		ViewerBurst: s.c.Viewer.Burst,
	}
	if s.service.score != nil {
		ac.Archive = s.service.score
	}
	api.New(ac)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.service.hub.Close()
	s.service.live.Close()
	s.eb.Stop()

	if s.infra.postgres.archive != nil {
		s.infra.postgres.archive.Close()
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
