package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

// Service is the application layer. It is the only component that touches
// both the store and the event publisher.
type Service struct {
	questions   domain.QuestionRepository
	admins      domain.AdminRepository
	credentials domain.Credentials
	publisher   domain.EventPublisher
	clock       clockwork.Clock
	metrics     *metrics.QuestionMetrics
}

func NewService(questions domain.QuestionRepository, admins domain.AdminRepository, credentials domain.Credentials, publisher domain.EventPublisher, clock clockwork.Clock, m *metrics.QuestionMetrics) *Service {
	return &Service{
		questions:   questions,
		admins:      admins,
		credentials: credentials,
		publisher:   publisher,
		clock:       clock,
		metrics:     m,
	}
}

// ListQuestions returns one page of the board in priority order.
func (s *Service) ListQuestions(ctx context.Context, page domain.PageRequest) (*domain.QuestionPage, error) {
	if page.Limit < 1 || page.Limit > domain.MaxPageLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPageLimit, domain.MaxPageLimit)
	}
	return s.questions.List(ctx, page)
}

func (s *Service) GetQuestion(ctx context.Context, questionID int64) (*domain.Question, error) {
	return s.questions.GetByID(ctx, questionID)
}

func (s *Service) CreateQuestion(ctx context.Context, message string) (*domain.Question, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}

	q, err := s.questions.Create(ctx, message)
	if err != nil {
		s.record("create", err)
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.record("create", nil)

	slog.InfoContext(ctx, "Question created", "question_id", q.ID)
	s.publisher.Publish(ctx, domain.NewQuestionCreatedEvent(*q))
	return q, nil
}

// AnswerQuestion stores an answer. Status and answered_by/answered_at are
// left alone; only a status change to Answered sets those.
func (s *Service) AnswerQuestion(ctx context.Context, questionID int64, answer string) (*domain.Question, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		// A missing question wins over an empty answer.
		if _, err := s.questions.GetByID(ctx, questionID); err != nil {
			return nil, err
		}
		return nil, domain.ErrEmptyAnswer
	}

	q, err := s.questions.SetAnswer(ctx, questionID, answer)
	if err != nil {
		s.record("answer", err)
		return nil, err
	}
	s.record("answer", nil)

	slog.InfoContext(ctx, "Question answered", "question_id", q.ID)
	s.publisher.Publish(ctx, domain.NewQuestionAnsweredEvent(*q))
	return q, nil
}

// UpdateStatus changes a question's status on behalf of an admin. Moving to
// Answered stamps the admin and the current time; any other status clears
// both.
func (s *Service) UpdateStatus(ctx context.Context, questionID int64, status string, admin domain.AdminIdentity) (*domain.Question, error) {
	parsed, err := domain.ParseQuestionStatus(status)
	if err != nil {
		return nil, err
	}

	change := domain.StatusChange{Status: parsed}
	if parsed == domain.StatusAnswered {
		answeredBy := admin.ID
		answeredAt := s.clock.Now().UTC()
		change.AnsweredBy = &answeredBy
		change.AnsweredAt = &answeredAt
	}

	q, err := s.questions.UpdateStatus(ctx, questionID, change)
	if err != nil {
		s.record("update_status", err)
		return nil, err
	}
	s.record("update_status", nil)

	slog.InfoContext(ctx, "Question status updated", "question_id", q.ID, "status", q.Status, "admin_id", admin.ID)
	s.publisher.Publish(ctx, domain.NewQuestionUpdatedEvent(*q))
	return q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, questionID int64, admin domain.AdminIdentity) error {
	if err := s.questions.Delete(ctx, questionID); err != nil {
		s.record("delete", err)
		return err
	}
	s.record("delete", nil)

	slog.InfoContext(ctx, "Question deleted", "question_id", questionID, "admin_id", admin.ID)
	s.publisher.Publish(ctx, domain.NewQuestionDeletedEvent(questionID))
	return nil
}

func (s *Service) record(operation string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrQuestionNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	s.metrics.Mutations.WithLabelValues(operation, result).Inc()
}
