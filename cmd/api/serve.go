package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/KarenSyu/travel/internal/chat"
	"github.com/KarenSyu/travel/internal/config"
	"github.com/KarenSyu/travel/internal/handler"
	"github.com/KarenSyu/travel/internal/middleware"
	"github.com/KarenSyu/travel/internal/repo"
	"github.com/KarenSyu/travel/internal/service"
	"github.com/KarenSyu/travel/internal/sheet"
	"github.com/KarenSyu/travel/spec"
)

// initialLoadTimeout bounds the first remote load, retries included. A slow
// sheet must not keep the server from accepting traffic with cached data.
const initialLoadTimeout = 45 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// --- Logger -----------------------------------------------------------
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Local cache ------------------------------------------------------
	snapshots, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	// --- Itinerary --------------------------------------------------------
	remote := sheet.NewClient(sheet.ClientConfig{
		CSVURL:   cfg.SheetCSVURL,
		WriteURL: cfg.SheetWriteURL,
		Title:    cfg.TripTitle,
		Timeout:  cfg.RemoteTimeout,
	}, logger)
	itineraries := service.NewItineraryService(remote, snapshots, cfg.CacheKey, logger)

	if err := itineraries.Bootstrap(ctx); err != nil {
		logger.Warn("cache bootstrap failed", "error", err)
	}
	loadCtx, cancelLoad := context.WithTimeout(ctx, initialLoadTimeout)
	if _, err := itineraries.Load(loadCtx); err != nil {
		logger.Warn("initial load failed, serving cached itinerary", "error", err)
	}
	cancelLoad()

	exports := service.NewExportService(itineraries, cfg.Location(), logger)

	// --- Chat -------------------------------------------------------------
	// Assign through the interface only when enabled: a typed nil
	// *chat.Conversation would read as configured.
	var conversation handler.ChatServicer
	if cfg.LLMProvider != config.ProviderNone {
		conv, err := newConversation(ctx, cfg, itineraries, logger)
		if err != nil {
			return err
		}
		conversation = conv
	} else {
		logger.Info("chat disabled", "provider", cfg.LLMProvider)
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	// RealIP must run before the chat rate limiter so it keys on the client address.
	server := handler.NewServer(itineraries, conversation, exports, spec.OpenAPI, logger)
	limiter := middleware.NewRateLimiter(cfg.ChatRatePerMinute)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", server.Routes(limiter.Handler))

	// --- HTTP Server ------------------------------------------------------
	// A chat turn waits on the model and may run tool calls, so writes get
	// more room than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give in-flight requests up to 15 seconds to complete before closing.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openCache connects the configured snapshot backend. For Postgres the
// migrations are applied before the repo is handed out.
func openCache(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.SnapshotRepo, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		client, err := repo.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("redis connection established")
		return repo.NewRedisSnapshotRepo(client), func() { _ = client.Close() }, nil

	default:
		// New() does not open connections immediately; Ping verifies the DB
		// is reachable before accepting traffic.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("serve: create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("serve: connect to database: %w", err)
		}
		log.Info("database connection established")

		db := stdlib.OpenDBFromPool(pool)
		err = migrate(ctx, db, "up", log)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo.NewSnapshotRepo(pool), pool.Close, nil
	}
}

// newConversation builds the chat turn consumer for the configured provider.
func newConversation(ctx context.Context, cfg config.Config, itineraries *service.ItineraryService, log *slog.Logger) (*chat.Conversation, error) {
	trip, err := chat.LoadTripContext(cfg.TripContextFile)
	if err != nil {
		return nil, err
	}

	var backend chat.Backend
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		backend = chat.NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.LLMModel)
	default:
		gemini, err := chat.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		backend = gemini
	}
	log.Info("chat enabled", "provider", cfg.LLMProvider)

	bridge := chat.NewBridge(itineraries, log)
	return chat.NewConversation(backend, bridge, itineraries, trip, log), nil
}
