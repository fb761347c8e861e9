package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const minJWTSecretLength = 16

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8000"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	InstanceID  string `env:"INSTANCE_ID"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" default:"24h"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	MaxWebSocketConnections      int     `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxWebSocketConnectionsPerIP int     `env:"MAX_WEBSOCKET_CONNECTIONS_PER_IP" default:"20"`
	WebSocketConnectRate         float64 `env:"WEBSOCKET_CONNECT_RATE" default:"2"`
	WebSocketConnectBurst        int     `env:"WEBSOCKET_CONNECT_BURST" default:"10"`
	QuestionRateLimit            float64 `env:"QUESTION_RATE_LIMIT" default:"5"`
	QuestionRateBurst            int     `env:"QUESTION_RATE_BURST" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas, dropping blanks.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if cfg.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if cfg.MaxWebSocketConnections < 1 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS must be at least 1")
	}
	if cfg.MaxWebSocketConnectionsPerIP < 1 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS_PER_IP must be at least 1")
	}
	if cfg.WebSocketConnectRate <= 0 || cfg.WebSocketConnectBurst < 1 {
		return errors.New("WEBSOCKET_CONNECT_RATE and WEBSOCKET_CONNECT_BURST must be positive")
	}
	if cfg.QuestionRateLimit <= 0 || cfg.QuestionRateBurst < 1 {
		return errors.New("QUESTION_RATE_LIMIT and QUESTION_RATE_BURST must be positive")
	}
	return nil
}
