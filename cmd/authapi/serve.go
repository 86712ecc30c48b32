package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/auth-api/internal/api"
	"github.com/99minutos/auth-api/internal/api/handler"
	"github.com/99minutos/auth-api/internal/core/domain"
	"github.com/99minutos/auth-api/internal/core/ports"
	"github.com/99minutos/auth-api/internal/core/service"
	"github.com/99minutos/auth-api/internal/infrastructure/db/mongo"
	"github.com/99minutos/auth-api/internal/infrastructure/db/postgres"
	"github.com/99minutos/auth-api/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-api/internal/infrastructure/secret"
	"github.com/99minutos/auth-api/internal/pkg/config"
	"github.com/99minutos/auth-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Replaced in tests.
var (
	connectPostgres = postgres.Connect
	migratePostgres = migrateUp
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auth-api",
		Version: version,
	})

	// Refuse to start without a signing secret rather than fail on first login.
	secrets := secret.New(cfg.JWT.Secret, cfg.JWT.SecretFile)
	if err := secrets.Err(); err != nil {
		log.Error().Err(err).Msg("signing secret unavailable")
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	hasher, err := service.NewPasswordHasher(cfg.Password.HashAlgorithm, cfg.Password.BcryptCost)
	if err != nil {
		return err
	}

	store, pingers, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []service.Option{service.WithConcealedUnknownUsers(cfg.Auth.ConcealUnknownUsers)}
	if cfg.Redis.Addr != "" {
		rdb, err := withRetry(ctx, log, "redis", func(ctx context.Context) (*goredis.Client, error) {
			return redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()

		opts = append(opts, service.WithLoginThrottle(
			redis.NewLoginThrottle(rdb, cfg.Auth.MaxLoginFailures, cfg.Auth.LoginFailureWindow),
		))
		pingers = append(pingers, redis.NewPinger(rdb))
		log.Info().Int("max_failures", cfg.Auth.MaxLoginFailures).Dur("window", cfg.Auth.LoginFailureWindow).Msg("login throttle enabled")
	}

	tokens := service.NewTokenIssuer(secrets, service.SystemClock{})
	authService := service.NewAuthService(
		store,
		service.NewPasswordPolicy(cfg.Password.RequireSpecial),
		hasher,
		tokens,
		log,
		opts...,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e, err := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Tokens:      tokens,
		Pingers:     pingers,
		Registry:    reg,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("auth api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore connects the configured user store and returns it with its
// readiness pinger and a close function.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserStore, []handler.Pinger, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := withRetry(ctx, log, "postgres", func(ctx context.Context) (*pgxpool.Pool, error) {
			return connectPostgres(ctx, cfg.Postgres.DSN)
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		// Migrations run only once the server accepts connections.
		if cfg.Postgres.AutoMigrate {
			if err := migratePostgres(cfg.Postgres.DSN); err != nil {
				pool.Close()
				return nil, nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return postgres.NewUserStore(pool), []handler.Pinger{postgres.NewPinger(pool)}, pool.Close, nil

	default:
		db, err := withRetry(ctx, log, "mongodb", func(ctx context.Context) (*mongodriver.Database, error) {
			return mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		closeFn := func() { _ = db.Client().Disconnect(context.Background()) }

		store := mongo.NewUserStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("ensure user indexes: %w", err)
		}
		return store, []handler.Pinger{mongo.NewPinger(db)}, closeFn, nil
	}
}

func migrateUp(dsn string) error {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
