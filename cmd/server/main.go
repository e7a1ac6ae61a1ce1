package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"papeleria/backend/internal/cache"
	"papeleria/backend/internal/config"
	"papeleria/backend/internal/httpapi"
	"papeleria/backend/internal/jobs"
	"papeleria/backend/internal/service"
	"papeleria/backend/internal/store"
	"papeleria/backend/internal/store/memory"
	"papeleria/backend/internal/store/sqlstore"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}
	cfg := config.Load()
	setupLogger(cfg, os.Stderr)

	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database unavailable")
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	catalog := cache.CatalogCache(cache.NoopCatalogCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCatalogCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using noop cache")
			_ = redisCache.Close()
		} else {
			catalog = redisCache
			closers = append(closers, redisCache.Close)
			log.Info().Str("addr", cfg.RedisAddr).Msg("cache: redis")
		}
	} else {
		log.Info().Msg("cache: noop")
	}

	svc := service.New(repo, catalog, time.Duration(cfg.CatalogTTLSeconds)*time.Second)
	if cfg.AdminPassword != "" {
		created, err := svc.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap admin account")
		}
		if created {
			log.Info().Str("email", cfg.AdminEmail).Msg("bootstrap admin account created")
		}
	}
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, svc)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	scheduler := jobs.NewScheduler(svc, jobs.Config{
		OverdueSchedule:   cfg.OverdueSchedule,
		LowStockSchedule:  cfg.LowStockSchedule,
		LowStockThreshold: cfg.LowStockThreshold,
	})
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("invalid job schedule")
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("Papelería Ángel backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	scheduler.Stop(shutdownCtx)

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("close error")
		}
	}

	log.Info().Msg("server stopped")
}

func openRepository(ctx context.Context, cfg config.Config) (store.Repository, func() error, error) {
	if cfg.DBDriver == "memory" {
		log.Warn().Msg("repository: in-memory, data is lost on restart")
		return memory.NewSeeded(), nil, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlstore.Open(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	log.Info().Str("driver", db.Driver()).Bool("migrated", cfg.AutoMigrate).Msg("repository: sql")
	return db, db.Close, nil
}

func setupLogger(cfg config.Config, out io.Writer) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "papeleria").Logger()
}

func validateConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.DBDriver != "memory" && !sqlstore.SupportedDriver(cfg.DBDriver) {
		return fmt.Errorf("DB_DRIVER %q is not supported (postgres, mysql, sqlite, memory)", cfg.DBDriver)
	}
	if cfg.DBDriver == "sqlite" && cfg.SQLitePath == "" && cfg.DatabaseURL == "" {
		return fmt.Errorf("SQLITE_PATH must be set for the sqlite driver")
	}
	return nil
}
