// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/sethouse/internal/catalog"
	"github.com/codr1/sethouse/internal/config"
	"github.com/codr1/sethouse/internal/db"
	"github.com/codr1/sethouse/internal/ratelimit"
	"github.com/codr1/sethouse/internal/scheduler"
)

const catalogRefreshTimeout = 30 * time.Second

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg)
	shutdownTimeout := time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	store := catalog.NewStore(database)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	if cfg.Catalog.SeedFile != "" {
		if err := importSeed(ctx, store, cfg.Catalog.SeedFile); err != nil {
			log.Fatal().Err(err).Str("file", cfg.Catalog.SeedFile).Msg("Failed to import rate card")
		}
	}

	cache := catalog.NewCache(store)
	if err := cache.Refresh(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalog")
	}

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if _, err := sched.AddJob("catalog-refresh", cfg.Catalog.RefreshCron, catalogRefreshTimeout, cache.Refresh); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule catalog refresh")
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
	}()

	limiter := ratelimit.New(&ratelimit.Config{
		MaxPerWindow: cfg.RateLimit.QuotesPerMinute,
		Window:       time.Minute,
	})
	defer limiter.Close()

	server := newServer(cfg, cache, limiter)

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("app", cfg.App.Name).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}

func importSeed(ctx context.Context, store *catalog.Store, path string) error {
	card, err := catalog.LoadRateCardFile(path)
	if err != nil {
		return err
	}
	if err := store.Import(ctx, card); err != nil {
		return err
	}
	log.Info().
		Str("file", path).
		Int("spaces", len(card.Spaces)).
		Int("packages", len(card.Packages)).
		Msg("Imported rate card")
	return nil
}
