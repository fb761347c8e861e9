package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
	"github.com/shikhar190399/q-and-a-websockets/internal/app"
	"github.com/shikhar190399/q-and-a-websockets/internal/broadcast"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/config"
)

type appService interface {
	ListQuestions(ctx context.Context, page domain.PageRequest) (*domain.QuestionPage, error)
	GetQuestion(ctx context.Context, questionID int64) (*domain.Question, error)
	CreateQuestion(ctx context.Context, message string) (*domain.Question, error)
	AnswerQuestion(ctx context.Context, questionID int64, answer string) (*domain.Question, error)
	UpdateStatus(ctx context.Context, questionID int64, status string, admin domain.AdminIdentity) (*domain.Question, error)
	DeleteQuestion(ctx context.Context, questionID int64, admin domain.AdminIdentity) error
	RegisterAdmin(ctx context.Context, username, email, password string) (*domain.Admin, error)
	Login(ctx context.Context, email, password string) (*app.LoginResult, error)
}

type sessionRegistry interface {
	Available() bool
	Register(conn *websocket.Conn) (*broadcast.Session, error)
	Unregister(s *broadcast.Session)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app      appService
	verifier domain.TokenVerifier
	sessions  sessionRegistry
	upgrader  websocket.Upgrader
	wsLimiter *connectionLimiter

	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	healthChecks   []HealthCheck
	startTime      time.Time
}

func NewServer(cfg *config.Config, app appService, verifier domain.TokenVerifier, sessions sessionRegistry, metricsHandler http.Handler, httpMetrics *metrics.HTTPMetrics, healthChecks []HealthCheck) *Server {
	srv := &Server{
		echo:           newEcho(),
		config:         cfg,
		app:            app,
		verifier:       verifier,
		sessions:       sessions,
		upgrader:       newUpgrader(cfg),
		wsLimiter:      limiterFromConfig(cfg, clockwork.NewRealClock()),
		metricsHandler: metricsHandler,
		httpMetrics:    httpMetrics,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

func newUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     NewCheckOrigin(cfg.AllowedOrigins(), cfg.AppEnv == "development"),
	}
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

var _ http.Handler = (*Server)(nil)

// ServeHTTP lets tests drive the full middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
