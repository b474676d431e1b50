package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/CTAG07/markovbot/pkg/chatbot"
	"github.com/CTAG07/markovbot/pkg/corpus"
	"github.com/CTAG07/markovbot/pkg/markov"
	"golang.org/x/sync/errgroup"
)

// Server wires one built chain to the HTTP API and the reply log.
type Server struct {
	config    *Config
	logger    *slog.Logger
	chain     *markov.Chain
	authAPI   *AuthAPI
	markovAPI *MarkovAPI
	statsAPI  *StatsAPI
	serverAPI *ServerAPI
	apiMux    *http.ServeMux
}

func NewServer(config *Config, logger *slog.Logger, chain *markov.Chain, db *sql.DB, actionChan chan string) *Server {
	server := &Server{
		config:    config,
		logger:    logger,
		chain:     chain,
		authAPI:   NewAuthAPI(config.Server.ApiKey, logger),
		markovAPI: NewMarkovAPI(chain, config.Generate, logger),
		statsAPI:  NewStatsAPI(db, logger),
		serverAPI: NewServerAPI(actionChan, logger),
		apiMux:    http.NewServeMux(),
	}

	apiMux := http.NewServeMux()
	server.markovAPI.RegisterRoutes(apiMux)
	server.statsAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Make sure api functions must pass through authentication first
	authedAPI := server.authAPI.Authenticate(apiMux)
	// ... except for the health check, which is unauthed so something like docker can use it
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", authedAPI)

	return server
}

// loadChain reads the configured corpus and builds the chain. Load failures
// are returned as is so the caller can refuse to start.
func loadChain(ctx context.Context, config *Config, logger *slog.Logger) (*markov.Chain, error) {
	tokenizer, err := newTokenizer(config.Server.Tokenizer)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tokens, err := corpus.LoadFiles(ctx, tokenizer, config.Server.CorpusPaths...)
	if err != nil {
		return nil, err
	}
	chain := markov.Build(tokens)

	stats := chain.Stats()
	logger.Info("Chain built",
		slog.Int("sources", len(config.Server.CorpusPaths)),
		slog.Int("tokens", stats.Tokens),
		slog.Int("prefixes", stats.Keys),
		slog.Int("vocabulary", stats.Vocabulary),
		slog.Duration("elapsed", time.Since(start)),
	)
	if chain.Empty() {
		logger.Warn("Corpus has fewer than three tokens; every generation will report an empty model")
	}
	return chain, nil
}

// run is the main loop that hosts the API and the bot, and returns whenever
// the server is shutdown or restarted. Every cycle reloads the configuration
// and rebuilds the chain.
func run(ctx context.Context, configPath string, corpusArgs []string, actionChan chan string) (string, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if err = ApplyEnv(config); err != nil {
		return "", fmt.Errorf("failed to apply environment: %w", err)
	}
	if len(corpusArgs) > 0 {
		config.Server.CorpusPaths = corpusArgs
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(config.Server.LogLevel)}))
	logger.Info("Starting server cycle...")

	chain, err := loadChain(ctx, config, logger)
	if err != nil {
		return "", fmt.Errorf("failed to build chain: %w", err)
	}

	if err = os.MkdirAll(config.Server.DataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := initDB(config.Server.StatsDatabasePath)
	if err != nil {
		return "", fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = setupStatsSchema(db); err != nil {
		logger.Error("Failed to setup stats schema", "error", err)
	}

	server := NewServer(config, logger, chain, db, actionChan)
	apiHttpServer := &http.Server{Addr: config.Server.ApiAddr, Handler: server.apiMux}

	var discord *chatbot.Discord
	if config.Server.DiscordToken != "" {
		bot := chatbot.New(chain, config.Bot, chatbot.WithRecorder(server.statsAPI), chatbot.WithLogger(logger))
		if discord, err = chatbot.NewDiscord(config.Server.DiscordToken, bot, logger); err != nil {
			_ = db.Close()
			return "", err
		}
	} else {
		logger.Warn("DISCORD_TOKEN is not set; serving the HTTP API only")
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(cycleCtx)

	g.Go(func() error {
		logger.Info("Starting api server", "address", apiHttpServer.Addr)
		if err := apiHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	if discord != nil {
		g.Go(func() error {
			return discord.Run(gctx)
		})
	}

	var action string
	select {
	case action = <-actionChan: // Block here until API or OS signal sends an action.
	case <-gctx.Done():
		action = actionShutdown
	}

	logger.Info("Stopping servers for " + action + "...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err = apiHttpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Api server shutdown failed", "error", err)
	}
	cancel()
	runErr := g.Wait()
	logger.Info("Servers stopped.")

	logger.Info("Closing database connection.")
	if err = db.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	}

	return action, runErr
}
