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

	"quizhub/internal/app"
	"quizhub/internal/auth"
	"quizhub/internal/config"
	"quizhub/internal/domain"
	filestore "quizhub/internal/infra/file"
	"quizhub/internal/infra/memory"
	pgloader "quizhub/internal/infra/postgres"
	redisinfra "quizhub/internal/infra/redis"
	transport "quizhub/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
		finalPort = "3000"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Question bank: Postgres when configured, otherwise the JSON file,
	// otherwise a small built-in demo bank.
	var loader memory.QuestionLoader
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		loader = pgloader.NewQuestionLoader(pool)
	case cfg.Quiz.QuestionsFile != "":
		loader = filestore.NewQuestionLoader(cfg.Quiz.QuestionsFile)
	default:
		loader = memory.NewStaticQuestionLoader(sampleQuestions())
	}
	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 10*time.Minute)
	bank := memory.NewQuestionBank(loader, bankTTL)

	// A present-but-corrupt store file fails startup here instead of
	// degrading to an empty store.
	var credStore auth.CredentialStore
	if cfg.Store.UsersFile != "" {
		credStore, err = filestore.NewCredentialStore(cfg.Store.UsersFile)
		if err != nil {
			return err
		}
	} else {
		credStore = memory.NewCredentialStore()
	}

	var board app.LeaderboardStore
	if cfg.Store.LeaderboardFile != "" {
		board, err = filestore.NewLeaderboardStore(cfg.Store.LeaderboardFile)
		if err != nil {
			return err
		}
	} else {
		board = memory.NewLeaderboardStore()
	}
	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Redis.TTL, time.Minute)
		board = redisinfra.NewLeaderboardCache(redisClient, board, cacheTTL)
	}

	var snapshots app.SnapshotStore
	if cfg.Store.SnapshotDir != "" {
		snapshots, err = filestore.NewSnapshotStore(cfg.Store.SnapshotDir)
		if err != nil {
			return err
		}
	} else {
		snapshots = memory.NewSnapshotStore()
	}

	var tokens auth.TokenStore
	if redisClient != nil {
		tokens = redisinfra.NewTokenStore(redisClient)
	} else {
		tokens = memory.NewTokenStore()
	}
	sessionTTL := config.TTLDuration(cfg.Session.TTL, 24*time.Hour)
	sessions := auth.NewSessionManager(tokens, sessionTTL)

	creds := auth.NewCredentialService(credStore)
	if err := creds.SeedDefault(ctx); err != nil {
		return err
	}

	perQuestion := time.Duration(cfg.Quiz.SecondsPerQuestion) * time.Second
	quiz := app.NewQuizService(bank, board, snapshots, perQuestion)

	// Replay attempts stranded by an earlier leaderboard outage, then keep
	// retrying in the background.
	if err := quiz.FlushPending(ctx); err != nil {
		log.Printf("flush pending attempts: %v", err)
	}
	retryCtx, cancelRetry := context.WithCancel(ctx)
	defer cancelRetry()
	go quiz.RunRetryLoop(retryCtx, 30*time.Second)

	api := transport.NewAPI(creds, credStore, sessions, quiz, cfg.Quiz.DefaultCount)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("starting quizhub on :%s", finalPort)
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

// sampleQuestions provides a minimal built-in bank so the server can run
// without any configured question source.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "q1",
			Prompt: "What is 2 + 2?",
			Choices: map[string]string{
				"A": "3", "B": "4", "C": "5", "D": "22",
			},
			CorrectLabel: "B",
		},
		{
			ID:     "q2",
			Prompt: "Which planet is known as the Red Planet?",
			Choices: map[string]string{
				"A": "Venus", "B": "Jupiter", "C": "Mars", "D": "Saturn",
			},
			CorrectLabel: "C",
		},
		{
			ID:     "q3",
			Prompt: "What is the capital of France?",
			Choices: map[string]string{
				"A": "Paris", "B": "Lyon", "C": "Marseille", "D": "Nice",
			},
			CorrectLabel: "A",
		},
		{
			ID:     "q4",
			Prompt: "How many continents are there?",
			Choices: map[string]string{
				"A": "5", "B": "6", "C": "7", "D": "8",
			},
			CorrectLabel: "C",
		},
		{
			ID:     "q5",
			Prompt: "Which gas do plants absorb from the atmosphere?",
			Choices: map[string]string{
				"A": "Oxygen", "B": "Carbon dioxide", "C": "Nitrogen", "D": "Hydrogen",
			},
			CorrectLabel: "B",
		},
	}
}
