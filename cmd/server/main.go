package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/auth"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/eventpublisher"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/httpserver"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/postgres"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/redis"
	"github.com/shikhar190399/q-and-a-websockets/internal/app"
	"github.com/shikhar190399/q-and-a-websockets/internal/broadcast"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/config"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/logging"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/retry"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/version"
)

const (
	connectTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

var connectPolicy = retry.Policy{
	MaxAttempts:    6,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     8 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Connection attempt failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config, m *metrics.DBMetrics) *pgxpool.Pool {
	pool, err := retry.Do(ctx, connectPolicy, retry.Transient, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, postgres.NewMetricsTracer(m))
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	client, err := retry.Do(ctx, connectPolicy, retry.Transient, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, m)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func healthChecks(pool *pgxpool.Pool, redisClient *goredis.Client) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
	}
	if redisClient != nil {
		checks = append(checks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	return checks
}

func runGracefulShutdown(srv *httpserver.Server, registry *broadcast.Registry, stopRelay context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Close sessions first: hijacked websocket connections are not
		// tracked by the HTTP server's Shutdown.
		registry.Close("server shutting down")
		stopRelay()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	info := version.Get()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", info.Version, "instance_id", cfg.InstanceID)

	promRegistry := metrics.NewRegistry()
	var reg prometheus.Registerer = promRegistry

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	defer cancelConnect()

	pool := setupDB(connectCtx, cfg, metrics.NewDBMetrics(reg))
	defer pool.Close()

	wsMetrics := metrics.NewWebSocketMetrics(reg)
	registry := broadcast.NewRegistry(cfg.MaxWebSocketConnections, clock, wsMetrics)
	broadcaster := broadcast.NewBroadcaster(registry, clock, wsMetrics)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	var publisher domain.EventPublisher = broadcaster
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisMetrics := metrics.NewRedisMetrics(reg)
		redisClient = setupRedis(connectCtx, cfg, redisMetrics)
		defer func() { _ = redisClient.Close() }()

		relay := redis.NewRelay(redisClient, cfg.InstanceID, broadcaster, redisMetrics)
		if err := relay.Start(relayCtx); err != nil {
			slog.Error("Failed to start relay", "error", err)
			os.Exit(1)
		}
		publisher = eventpublisher.New(broadcaster, relay)
	} else {
		slog.Info("REDIS_URL not set, events stay on this instance")
	}

	questionRepo := postgres.NewQuestionRepo(pool)
	adminRepo := postgres.NewAdminRepo(pool)
	authenticator := auth.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL, adminRepo, clock)

	appSvc := app.NewService(questionRepo, adminRepo, authenticator, publisher, clock, metrics.NewQuestionMetrics(reg))

	srv := httpserver.NewServer(cfg, appSvc, authenticator, registry,
		metrics.Handler(promRegistry), metrics.NewHTTPMetrics(reg), healthChecks(pool, redisClient))

	done := runGracefulShutdown(srv, registry, stopRelay)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
