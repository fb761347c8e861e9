package domain

import (
	"context"
	"fmt"
	"time"
)

type QuestionStatus string

const (
	StatusPending   QuestionStatus = "Pending"
	StatusEscalated QuestionStatus = "Escalated"
	StatusAnswered  QuestionStatus = "Answered"
)

// ValidStatuses lists the accepted statuses in listing priority order.
var ValidStatuses = []QuestionStatus{StatusEscalated, StatusPending, StatusAnswered}

// ParseQuestionStatus accepts the exact (case-sensitive) status names only.
func ParseQuestionStatus(s string) (QuestionStatus, error) {
	for _, status := range ValidStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Priority returns the listing rank of a status; lower ranks are listed first.
func (s QuestionStatus) Priority() int {
	switch s {
	case StatusEscalated:
		return 1
	case StatusPending:
		return 2
	case StatusAnswered:
		return 3
	default:
		return 4
	}
}

// Question is a single board entry. AnsweredBy and AnsweredAt are only set by
// a status change to Answered; submitting an answer never touches them.
type Question struct {
	ID         int64          `json:"question_id"`
	Message    string         `json:"message"`
	Status     QuestionStatus `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Answer     *string        `json:"answer"`
	AnsweredBy *int64         `json:"answered_by"`
	AnsweredAt *time.Time     `json:"answered_at"`
}

// StatusChange is the post-validation input of a status update.
type StatusChange struct {
	Status     QuestionStatus
	AnsweredBy *int64
	AnsweredAt *time.Time
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest selects one page of the listing. Cursor is the question_id of
// the last row of the previous page.
type PageRequest struct {
	Limit  int
	Cursor *int64
}

type QuestionPage struct {
	Questions  []Question `json:"questions"`
	NextCursor *int64     `json:"next_cursor"`
	HasMore    bool       `json:"has_more"`
}

// QuestionRepository is the data store for questions. Every mutating method
// returns only after the write is committed.
type QuestionRepository interface {
	Create(ctx context.Context, message string) (*Question, error)
	GetByID(ctx context.Context, questionID int64) (*Question, error)
	SetAnswer(ctx context.Context, questionID int64, answer string) (*Question, error)
	UpdateStatus(ctx context.Context, questionID int64, change StatusChange) (*Question, error)
	Delete(ctx context.Context, questionID int64) error
	List(ctx context.Context, page PageRequest) (*QuestionPage, error)
}
