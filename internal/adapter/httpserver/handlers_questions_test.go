package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikhar190399/q-and-a-websockets/internal/app"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/config"
	apperrors "github.com/shikhar190399/q-and-a-websockets/internal/platform/errors"
)

var questionTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func pendingQuestion(id int64, message string) *domain.Question {
	return &domain.Question{ID: id, Message: message, Status: domain.StatusPending, Timestamp: questionTime}
}

func decodeError(t *testing.T, body []byte) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestListQuestions(t *testing.T) {
	cursor := int64(40)
	var got domain.PageRequest
	srv := newTestServer(t, &mockAppService{
		listQuestionsFn: func(_ context.Context, page domain.PageRequest) (*domain.QuestionPage, error) {
			got = page
			return &domain.QuestionPage{
				Questions:  []domain.Question{*pendingQuestion(41, "hello")},
				NextCursor: &cursor,
				HasMore:    true,
			}, nil
		},
	})

	rec := do(t, srv, http.MethodGet, "/questions?limit=1&cursor=50", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, got.Limit)
	require.NotNil(t, got.Cursor)
	assert.Equal(t, int64(50), *got.Cursor)
	assert.JSONEq(t, `{
		"questions": [{
			"question_id": 41, "message": "hello", "status": "Pending",
			"timestamp": "2025-03-01T12:00:00Z",
			"answer": null, "answered_by": null, "answered_at": null
		}],
		"next_cursor": 40,
		"has_more": true
	}`, rec.Body.String())
}

func TestListQuestions_Defaults(t *testing.T) {
	var got domain.PageRequest
	srv := newTestServer(t, &mockAppService{
		listQuestionsFn: func(_ context.Context, page domain.PageRequest) (*domain.QuestionPage, error) {
			got = page
			return &domain.QuestionPage{Questions: []domain.Question{}}, nil
		},
	})

	rec := do(t, srv, http.MethodGet, "/questions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DefaultPageLimit, got.Limit)
	assert.Nil(t, got.Cursor)
	assert.JSONEq(t, `{"questions":[],"next_cursor":null,"has_more":false}`, rec.Body.String())
}

func TestListQuestions_ZeroLimitIsNotDefaulted(t *testing.T) {
	var got domain.PageRequest
	srv := newTestServer(t, &mockAppService{
		listQuestionsFn: func(_ context.Context, page domain.PageRequest) (*domain.QuestionPage, error) {
			got = page
			return nil, app.ErrInvalidPageLimit
		},
	})

	rec := do(t, srv, http.MethodGet, "/questions?limit=0", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, got.Limit)
}

func TestListQuestions_BadInput(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		err     error
		message string
	}{
		{"non-numeric limit", "?limit=ten", nil, "limit must be an integer"},
		{"non-numeric cursor", "?cursor=abc", nil, "cursor must be an integer"},
		{"limit out of range", "?limit=500", app.ErrInvalidPageLimit, "limit must be between 1 and 100"},
		{"zero limit", "?limit=0", app.ErrInvalidPageLimit, "limit must be between 1 and 100"},
		{"unknown cursor", "?cursor=9", domain.ErrInvalidCursor, "Invalid cursor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{
				listQuestionsFn: func(context.Context, domain.PageRequest) (*domain.QuestionPage, error) {
					return nil, tt.err
				},
			})

			rec := do(t, srv, http.MethodGet, "/questions"+tt.query, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec.Body.Bytes())
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, apperrors.TypeValidation, resp.Type)
		})
	}
}

func TestGetQuestion(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		getQuestionFn: func(_ context.Context, id int64) (*domain.Question, error) {
			if id != 7 {
				return nil, domain.ErrQuestionNotFound
			}
			return pendingQuestion(7, "where is the venue?"), nil
		},
	})

	rec := do(t, srv, http.MethodGet, "/questions/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"question_id":7`)

	rec = do(t, srv, http.MethodGet, "/questions/8", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Question not found", decodeError(t, rec.Body.Bytes()).Error)

	rec = do(t, srv, http.MethodGet, "/questions/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateQuestion(t *testing.T) {
	var got string
	srv := newTestServer(t, &mockAppService{
		createQuestionFn: func(_ context.Context, message string) (*domain.Question, error) {
			got = message
			return pendingQuestion(1, "What is Go?"), nil
		},
	})

	rec := do(t, srv, http.MethodPost, "/questions", `{"message":"  What is Go?  "}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "  What is Go?  ", got)
	assert.Contains(t, rec.Body.String(), `"question_id":1`)
	assert.Contains(t, rec.Body.String(), `"status":"Pending"`)
}

func TestCreateQuestion_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"empty message", `{"message":"   "}`, domain.ErrEmptyMessage, http.StatusBadRequest, "Question message cannot be empty"},
		{"malformed body", `{"message":`, nil, http.StatusBadRequest, "Invalid request body"},
		{"store failure", `{"message":"hi"}`, errors.New("db down"), http.StatusInternalServerError, "failed to create question"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{
				createQuestionFn: func(context.Context, string) (*domain.Question, error) {
					return nil, tt.err
				},
			})

			rec := do(t, srv, http.MethodPost, "/questions", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rec.Body.Bytes()).Error)
		})
	}
}

func TestCreateQuestion_RateLimited(t *testing.T) {
	calls := 0
	srv := newTestServer(t, &mockAppService{
		createQuestionFn: func(context.Context, string) (*domain.Question, error) {
			calls++
			return pendingQuestion(int64(calls), "q"), nil
		},
	}, withConfig(func(cfg *config.Config) {
		cfg.QuestionRateLimit = 0.01
		cfg.QuestionRateBurst = 2
	}))

	for range 2 {
		rec := do(t, srv, http.MethodPost, "/questions", `{"message":"q"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, srv, http.MethodPost, "/questions", `{"message":"q"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, calls)

	// Listing is not limited.
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/questions", "").Code)
}

func TestAnswerQuestion(t *testing.T) {
	answer := "A language"
	srv := newTestServer(t, &mockAppService{
		answerQuestionFn: func(_ context.Context, questionID int64, a string) (*domain.Question, error) {
			q := pendingQuestion(questionID, "What is Go?")
			q.Answer = &answer
			return q, nil
		},
	})

	rec := do(t, srv, http.MethodPost, "/questions/7/answer", `{"answer":"A language"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"question_id":7`)
	assert.Contains(t, rec.Body.String(), `"answer":"A language"`)
	assert.Contains(t, rec.Body.String(), `"status":"Pending"`)
}

func TestAnswerQuestion_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", "/questions/99/answer", domain.ErrQuestionNotFound, http.StatusNotFound, "Question not found"},
		{"empty answer", "/questions/1/answer", domain.ErrEmptyAnswer, http.StatusBadRequest, "Answer cannot be empty"},
		{"bad id", "/questions/abc/answer", nil, http.StatusBadRequest, "question id must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{
				answerQuestionFn: func(context.Context, int64, string) (*domain.Question, error) {
					return nil, tt.err
				},
			})

			rec := do(t, srv, http.MethodPost, tt.path, `{"answer":"x"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rec.Body.Bytes()).Error)
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	var gotAdmin domain.AdminIdentity
	var gotStatus string
	srv := newTestServer(t, &mockAppService{
		updateStatusFn: func(_ context.Context, questionID int64, status string, admin domain.AdminIdentity) (*domain.Question, error) {
			gotAdmin, gotStatus = admin, status
			q := pendingQuestion(questionID, "m")
			q.Status = domain.StatusAnswered
			answeredBy := admin.ID
			answeredAt := questionTime.Add(time.Minute)
			q.AnsweredBy, q.AnsweredAt = &answeredBy, &answeredAt
			return q, nil
		},
	})

	rec := do(t, srv, http.MethodPatch, "/questions/5/status", `{"status":"Answered"}`, bearer(adminToken)...)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testAdmin, gotAdmin)
	assert.Equal(t, "Answered", gotStatus)
	assert.Contains(t, rec.Body.String(), `"answered_by":3`)
	assert.Contains(t, rec.Body.String(), `"answered_at":"2025-03-01T12:01:00Z"`)
}

func TestUpdateStatus_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"bogus status", fmt.Errorf("%w: %q", domain.ErrInvalidStatus, "Bogus"), http.StatusBadRequest, "Invalid status. Must be one of: Pending, Escalated, Answered"},
		{"not found", domain.ErrQuestionNotFound, http.StatusNotFound, "Question not found"},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, "failed to update question status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{
				updateStatusFn: func(context.Context, int64, string, domain.AdminIdentity) (*domain.Question, error) {
					return nil, tt.err
				},
			})

			rec := do(t, srv, http.MethodPatch, "/questions/5/status", `{"status":"Bogus"}`, bearer(adminToken)...)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rec.Body.Bytes()).Error)
		})
	}
}

func TestAdminRoutes_RequireBearer(t *testing.T) {
	tests := []struct {
		name      string
		headers   []string
		wantError string
	}{
		{"missing header", nil, "Authorization header missing"},
		{"wrong scheme", []string{"Authorization", "Basic abc"}, "Invalid authorization format. Use: Bearer <token>"},
		{"invalid token", bearer("forged"), "Invalid or expired token"},
	}

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPatch, "/questions/1/status", `{"status":"Answered"}`},
		{http.MethodDelete, "/questions/1", ""},
	}

	for _, route := range routes {
		for _, tt := range tests {
			t.Run(route.method+" "+tt.name, func(t *testing.T) {
				svc := &mockAppService{
					updateStatusFn: func(context.Context, int64, string, domain.AdminIdentity) (*domain.Question, error) {
						t.Fatal("handler must not run without a valid token")
						return nil, nil
					},
					deleteQuestionFn: func(context.Context, int64, domain.AdminIdentity) error {
						t.Fatal("handler must not run without a valid token")
						return nil
					},
				}
				srv := newTestServer(t, svc)

				rec := do(t, srv, route.method, route.path, route.body, tt.headers...)

				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				resp := decodeError(t, rec.Body.Bytes())
				assert.Equal(t, tt.wantError, resp.Error)
				assert.Equal(t, apperrors.TypeUnauthorized, resp.Type)
			})
		}
	}
}

func TestDeleteQuestion(t *testing.T) {
	var gotID int64
	srv := newTestServer(t, &mockAppService{
		deleteQuestionFn: func(_ context.Context, questionID int64, _ domain.AdminIdentity) error {
			gotID = questionID
			return nil
		},
	})

	rec := do(t, srv, http.MethodDelete, "/questions/12", "", bearer(adminToken)...)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, int64(12), gotID)
}

func TestDeleteQuestion_NotFound(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		deleteQuestionFn: func(context.Context, int64, domain.AdminIdentity) error {
			return domain.ErrQuestionNotFound
		},
	})

	rec := do(t, srv, http.MethodDelete, "/questions/12", "", bearer(adminToken)...)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec.Body.Bytes())
	assert.Equal(t, "Question not found", resp.Error)
	assert.InDelta(t, 12, resp.Context["question_id"], 0)
}
