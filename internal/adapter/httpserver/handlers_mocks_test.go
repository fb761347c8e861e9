package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
	"github.com/shikhar190399/q-and-a-websockets/internal/app"
	"github.com/shikhar190399/q-and-a-websockets/internal/broadcast"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	listQuestionsFn  func(ctx context.Context, page domain.PageRequest) (*domain.QuestionPage, error)
	getQuestionFn    func(ctx context.Context, questionID int64) (*domain.Question, error)
	createQuestionFn func(ctx context.Context, message string) (*domain.Question, error)
	answerQuestionFn func(ctx context.Context, questionID int64, answer string) (*domain.Question, error)
	updateStatusFn   func(ctx context.Context, questionID int64, status string, admin domain.AdminIdentity) (*domain.Question, error)
	deleteQuestionFn func(ctx context.Context, questionID int64, admin domain.AdminIdentity) error
	registerAdminFn  func(ctx context.Context, username, email, password string) (*domain.Admin, error)
	loginFn          func(ctx context.Context, email, password string) (*app.LoginResult, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockAppService) ListQuestions(ctx context.Context, page domain.PageRequest) (*domain.QuestionPage, error) {
	if m.listQuestionsFn != nil {
		return m.listQuestionsFn(ctx, page)
	}
	return &domain.QuestionPage{Questions: []domain.Question{}}, nil
}

func (m *mockAppService) GetQuestion(ctx context.Context, questionID int64) (*domain.Question, error) {
	if m.getQuestionFn != nil {
		return m.getQuestionFn(ctx, questionID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) CreateQuestion(ctx context.Context, message string) (*domain.Question, error) {
	if m.createQuestionFn != nil {
		return m.createQuestionFn(ctx, message)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) AnswerQuestion(ctx context.Context, questionID int64, answer string) (*domain.Question, error) {
	if m.answerQuestionFn != nil {
		return m.answerQuestionFn(ctx, questionID, answer)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) UpdateStatus(ctx context.Context, questionID int64, status string, admin domain.AdminIdentity) (*domain.Question, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, questionID, status, admin)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) DeleteQuestion(ctx context.Context, questionID int64, admin domain.AdminIdentity) error {
	if m.deleteQuestionFn != nil {
		return m.deleteQuestionFn(ctx, questionID, admin)
	}
	return errNotImplemented
}

func (m *mockAppService) RegisterAdmin(ctx context.Context, username, email, password string) (*domain.Admin, error) {
	if m.registerAdminFn != nil {
		return m.registerAdminFn(ctx, username, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) Login(ctx context.Context, email, password string) (*app.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, errNotImplemented
}

// mockVerifier accepts exactly one token.
type mockVerifier struct {
	token    string
	identity domain.AdminIdentity
}

func (m *mockVerifier) Verify(_ context.Context, token string) (domain.AdminIdentity, bool) {
	if token == m.token {
		return m.identity, true
	}
	return domain.AdminIdentity{}, false
}

// --- Test helpers ---

const adminToken = "valid-admin-token"

var testAdmin = domain.AdminIdentity{ID: 3, Username: "moderator"}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                       "test",
		Port:                         "0",
		CORSAllowedOrigins:           "http://localhost:3000",
		MaxWebSocketConnections:      10,
		MaxWebSocketConnectionsPerIP: 10,
		WebSocketConnectRate:         100,
		WebSocketConnectBurst:        100,
		QuestionRateLimit:            1000,
		QuestionRateBurst:            1000,
	}
}

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	cfg := testConfig()
	registry := broadcast.NewRegistry(cfg.MaxWebSocketConnections, clockwork.NewRealClock(), metrics.NewWebSocketMetrics(prometheus.NewRegistry()))
	t.Cleanup(func() { registry.Close("test finished") })

	srv := &Server{
		echo:     newEcho(),
		config:   cfg,
		app:      app,
		verifier: &mockVerifier{token: adminToken, identity: testAdmin},
		sessions: registry,
		upgrader: newUpgrader(cfg),
	}

	for _, opt := range opts {
		opt(srv)
	}
	if srv.wsLimiter == nil {
		srv.wsLimiter = limiterFromConfig(srv.config, clockwork.NewRealClock())
	}

	srv.registerRoutes()

	return srv
}

func withConfig(mutate func(*config.Config)) func(*Server) {
	return func(s *Server) {
		mutate(s.config)
		s.upgrader = newUpgrader(s.config)
	}
}

func withSessions(sessions sessionRegistry) func(*Server) {
	return func(s *Server) {
		s.sessions = sessions
	}
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// do sends a request through the full middleware chain.
func do(t *testing.T, srv *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) []string {
	return []string{"Authorization", "Bearer " + token}
}
