package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"

	"quiz-cricket-service/internal/app"
	"quiz-cricket-service/internal/domain"
	pg "quiz-cricket-service/internal/infra/postgres"
	pgmigrations "quiz-cricket-service/internal/infra/postgres/migrations"
	infraredis "quiz-cricket-service/internal/infra/redis"
	"quiz-cricket-service/internal/questions"
)

func TestMatchLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := pg.NewDB(ctx, pgURL)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	bank, err := questions.Bank()
	if err != nil {
		t.Fatalf("embedded bank: %v", err)
	}
	if err := pg.SeedBank(ctx, pool, bank); err != nil {
		t.Fatalf("seed bank: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	loader := pg.NewQuestionLoader(pool)
	questionCache := infraredis.NewQuestionCache(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	games := app.NewGameStore(pg.NewGameRepository(db), nil)

	service := app.NewMatchService(sessionStore, questionCache, games, nil)
	service.SetSeed(11)

	snap, resumed, err := service.CreateMatch(ctx, app.NewMatchParams{
		TeamAName:    "Lions",
		TeamBName:    "Tigers",
		PlayersA:     []string{"A1", "A2"},
		PlayersB:     []string{"B1", "B2"},
		BattingFirst: domain.TeamA,
		Stage:        domain.StageGroup,
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if resumed {
		t.Fatalf("fresh match must not resume")
	}
	if len(snap.AvailableBalls) == 0 {
		t.Fatalf("expected question pool from postgres-backed bank")
	}

	// Second read comes from the redis cache.
	if _, err := questionCache.Bank(ctx); err != nil {
		t.Fatalf("cached bank read: %v", err)
	}

	// Grind both innings to completion with timeouts so the record gets
	// persisted in postgres.
	playInningsOut(t, ctx, service, snap.MatchID)
	playInningsOut(t, ctx, service, snap.MatchID)

	final, err := service.Snapshot(snap.MatchID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !final.State.GameOver {
		t.Fatalf("expected game over, got %+v", final.State)
	}

	recs, err := games.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 persisted game, got %d", len(recs))
	}
	got, err := games.ByID(ctx, recs[0].ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.TeamA.Name != "Lions" || !got.GameOver {
		t.Fatalf("unexpected stored record %+v", got)
	}
}

// playInningsOut drives the current innings to its end by selecting balls
// and answering with a deliberately wrong choice for both sides.
func playInningsOut(t *testing.T, ctx context.Context, service *app.MatchService, matchID string) {
	t.Helper()
	for {
		snap, err := service.Snapshot(matchID)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.State.GameOver {
			return
		}
		startInnings := snap.State.Innings

		if err := service.SelectBatter(matchID, freeBatter(snap)); err != nil {
			t.Fatalf("SelectBatter: %v", err)
		}
		if err := service.SelectBowler(matchID, 0); err != nil {
			t.Fatalf("SelectBowler: %v", err)
		}
		if len(snap.AvailableBalls) == 0 {
			t.Fatalf("no balls left before the innings ended")
		}
		ballID := snap.AvailableBalls[0]
		if err := service.SelectBall(ctx, matchID, ballID); err != nil {
			t.Fatalf("SelectBall(%d): %v", ballID, err)
		}

		after, err := service.Snapshot(matchID)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if after.Question != nil {
			// Wrong answer from the batter, then a wrong answer from the
			// bowler that avoids the disabled choice.
			if err := service.Answer(ctx, matchID, wrongChoice(after.Question, -1)); err != nil {
				t.Fatalf("batter answer: %v", err)
			}
			mid, err := service.Snapshot(matchID)
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if mid.Question != nil {
				if err := service.Answer(ctx, matchID, wrongChoice(mid.Question, mid.Question.DisabledChoice)); err != nil {
					t.Fatalf("bowler answer: %v", err)
				}
			}
		}

		end, err := service.Snapshot(matchID)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if end.State.GameOver || end.State.Innings != startInnings {
			return
		}
	}
}

// freeBatter returns the lowest roster index on the batting side that has
// not been given out yet.
func freeBatter(snap app.Snapshot) int {
	locked := snap.State.LockedA
	roster := snap.PlayersA
	if snap.State.BattingTeam == domain.TeamB {
		locked = snap.State.LockedB
		roster = snap.PlayersB
	}
	out := make(map[int]bool, len(locked))
	for _, idx := range locked {
		out[idx] = true
	}
	for i := range roster {
		if !out[i] {
			return i
		}
	}
	return 0
}

// wrongChoice picks an option that is neither correct-by-luck critical nor
// disabled; the engine treats any non-matching index as wrong.
func wrongChoice(q *app.QuestionView, disabled int) int {
	for i := range q.Choices {
		if i != disabled {
			return i
		}
	}
	return 0
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "match", "POSTGRES_PASSWORD": "matchpass", "POSTGRES_DB": "matchdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://match:matchpass@%s:%s/matchdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
