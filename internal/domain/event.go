package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventNewQuestion      EventType = "NEW_QUESTION"
	EventQuestionAnswered EventType = "QUESTION_ANSWERED"
	EventQuestionUpdated  EventType = "QUESTION_UPDATED"
	EventQuestionDeleted  EventType = "QUESTION_DELETED"
)

// Event is the envelope pushed to every live session.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type QuestionAnsweredData struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

type QuestionUpdatedData struct {
	QuestionID int64          `json:"question_id"`
	Status     QuestionStatus `json:"status"`
	AnsweredBy *int64         `json:"answered_by"`
	AnsweredAt *time.Time     `json:"answered_at"`
}

type QuestionDeletedData struct {
	QuestionID int64 `json:"question_id"`
}

// NewQuestionCreatedEvent carries the full record with answered_at forced to null.
func NewQuestionCreatedEvent(q Question) Event {
	q.AnsweredAt = nil
	return Event{Type: EventNewQuestion, Data: q}
}

func NewQuestionAnsweredEvent(q Question) Event {
	data := QuestionAnsweredData{QuestionID: q.ID}
	if q.Answer != nil {
		data.Answer = *q.Answer
	}
	return Event{Type: EventQuestionAnswered, Data: data}
}

func NewQuestionUpdatedEvent(q Question) Event {
	return Event{Type: EventQuestionUpdated, Data: QuestionUpdatedData{
		QuestionID: q.ID,
		Status:     q.Status,
		AnsweredBy: q.AnsweredBy,
		AnsweredAt: q.AnsweredAt,
	}}
}

func NewQuestionDeletedEvent(questionID int64) Event {
	return Event{Type: EventQuestionDeleted, Data: QuestionDeletedData{QuestionID: questionID}}
}

// EventPublisher hands an event to the real-time layer. Publishing is
// fire-and-forget: implementations absorb delivery failures.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}
