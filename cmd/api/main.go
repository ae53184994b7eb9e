package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/choncance/choncance-backend/internal/handlers"
	"github.com/choncance/choncance-backend/internal/mailer"
	"github.com/choncance/choncance-backend/internal/repository"
	"github.com/choncance/choncance-backend/internal/service"
	"github.com/choncance/choncance-backend/internal/storage"
	"github.com/choncance/choncance-backend/pkg/auth"
	"github.com/choncance/choncance-backend/pkg/config"
	"github.com/choncance/choncance-backend/pkg/database"
	"github.com/choncance/choncance-backend/pkg/events"
	"github.com/choncance/choncance-backend/pkg/logger"
	mw "github.com/choncance/choncance-backend/pkg/middleware"
)

func main() {
	if err := run(); err != nil {
		logger.Error("API stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.RunMigrations {
		if err := migrate(cfg.Database.URL); err != nil {
			return err
		}
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Rate limits fail open; password resets fail until Redis is back.
		logger.Warn("Redis unreachable at startup", "error", err)
	}

	var eventBus events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, events disabled", "error", err)
		} else {
			eventBus = natsBus
		}
	}
	defer eventBus.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	hostRepo := repository.NewHostProfileRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	resetStore := repository.NewResetTokenStore(rdb)
	rateLimitRepo := repository.NewRateLimitRepository(rdb)

	// Services
	hasher := auth.NewPasswordHasher(cfg.Auth.HashAlgorithm, cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL, cfg.Auth.ResetTokenTTL)
	authService := service.NewAuthService(userRepo, resetStore, hasher, tokens, mailer.New(cfg.Email), eventBus, cfg)
	userService := service.NewUserService(userRepo, hostRepo, store, eventBus, cfg)
	tagService := service.NewTagService(tagRepo)
	resolver := service.NewResolver(tokens, userRepo)

	metrics := mw.NewMetrics("choncance")
	h := handlers.New(authService, userService, tagService, resolver, rateLimitRepo, store, metrics, cfg)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)
	r.Use(metrics.Instrument)

	r.Handle("/metrics", metrics.Handler())
	h.Mount(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting API", "port", cfg.Server.Port, "env", cfg.Environment, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func migrate(databaseURL string) error {
	m, err := database.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("Failed to close migrator", "error", err)
		}
	}()

	if err := m.Up(); err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("Database migrated", "version", version, "dirty", dirty)
	return nil
}
