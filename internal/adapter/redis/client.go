package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/version"
)

// NewClient parses redisURL, installs the metrics and circuit breaker hooks
// and verifies the connection.
func NewClient(ctx context.Context, redisURL string, m *metrics.RedisMetrics) (*goredis.Client, error) {
	opts, err := clientOptions(redisURL)
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(opts)
	client.AddHook(NewMetricsHook(m))
	client.AddHook(NewCircuitBreakerHook(m))

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func clientOptions(redisURL string) (*goredis.Options, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if opts.ClientName == "" {
		opts.ClientName = version.UserAgent()
	}
	// Per-call deadlines such as the relay's publish timeout apply to reads
	// and writes, not only the pool wait.
	opts.ContextTimeoutEnabled = true
	return opts, nil
}
