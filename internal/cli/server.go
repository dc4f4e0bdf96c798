package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-cricket-service/internal/app"
	"quiz-cricket-service/internal/auth"
	"quiz-cricket-service/internal/config"
	"quiz-cricket-service/internal/domain"
	"quiz-cricket-service/internal/engine"
	"quiz-cricket-service/internal/infra/local"
	"quiz-cricket-service/internal/infra/memory"
	pg "quiz-cricket-service/internal/infra/postgres"
	redisinfra "quiz-cricket-service/internal/infra/redis"
	transport "quiz-cricket-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 12*time.Hour)

	localDir := cfg.Local.Dir
	if localDir == "" {
		localDir = "data"
	}
	localStore, err := local.NewStore(localDir)
	if err != nil {
		return err
	}

	var pool *pgxpool.Pool
	var primary app.GameRepository
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		db, err := pg.NewDB(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		primary = pg.NewGameRepository(db)
	}
	games := app.NewGameStore(primary, localStore)

	var loader memory.BankLoader = memory.NewEmbeddedBankLoader()
	if pool != nil {
		loader = pg.NewQuestionLoader(pool)
	}
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var bank app.QuestionRepository
	if redisClient != nil {
		bank = redisinfra.NewQuestionCache(redisClient, loader, questionTTL)
	} else {
		bank = memory.NewQuestionRepository(loader, questionTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	service := app.NewMatchService(sessions, bank, games, localStore)
	service.SetRules(matchRules(cfg))

	var authSvc *auth.Service
	var authHandler *transport.AuthHandler
	if cfg.Auth.Secret != "" {
		authSvc, err = auth.NewService(authConfig(cfg))
		if err != nil {
			return err
		}
		authHandler = transport.NewAuthHandler(authSvc)
	}

	router := transport.Router(
		transport.NewGameHandler(games),
		authHandler,
		transport.NewWSHandler(service, authSvc),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting match service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func matchRules(cfg config.Config) engine.Rules {
	rules := engine.DefaultRules()
	if cfg.Match.BallsPerInnings > 0 {
		rules.BallsPerInnings = cfg.Match.BallsPerInnings
	}
	if cfg.Match.BallsPerOver > 0 {
		rules.BallsPerOver = cfg.Match.BallsPerOver
	}
	if cfg.Match.PoolSize > 0 {
		rules.PoolSize = cfg.Match.PoolSize
	}
	rules.Timer.Single = config.TTLDuration(cfg.Match.Timer.Single, rules.Timer.Single)
	rules.Timer.Two = config.TTLDuration(cfg.Match.Timer.Two, rules.Timer.Two)
	rules.Timer.Four = config.TTLDuration(cfg.Match.Timer.Four, rules.Timer.Four)
	rules.Timer.Six = config.TTLDuration(cfg.Match.Timer.Six, rules.Timer.Six)
	return rules
}

func authConfig(cfg config.Config) auth.Config {
	out := auth.Config{
		Secret:   cfg.Auth.Secret,
		TokenTTL: config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour),
	}
	for _, o := range cfg.Auth.Organizers {
		out.Organizers = append(out.Organizers, auth.Organizer{
			Username:     o.Username,
			PasswordHash: o.PasswordHash,
		})
	}
	if len(cfg.Auth.StageCodes) > 0 {
		out.StageCodes = make(map[string]domain.TournamentStage, len(cfg.Auth.StageCodes))
		for code, stage := range cfg.Auth.StageCodes {
			out.StageCodes[code] = domain.TournamentStage(stage)
		}
	}
	return out
}
