package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shikhar190399/q-and-a-websockets/internal/app"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
	apperrors "github.com/shikhar190399/q-and-a-websockets/internal/platform/errors"
)

type createQuestionRequest struct {
	Message string `json:"message"`
}

type answerQuestionRequest struct {
	Answer string `json:"answer"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) registerQuestionRoutes() {
	createLimiter := newRateLimiter(s.config.QuestionRateLimit, s.config.QuestionRateBurst)

	s.echo.GET("/questions", s.handleListQuestions)
	s.echo.POST("/questions", s.handleCreateQuestion, createLimiter)
	s.echo.GET("/questions/:id", s.handleGetQuestion)
	s.echo.POST("/questions/:id/answer", s.handleAnswerQuestion)
	s.echo.PATCH("/questions/:id/status", s.handleUpdateStatus, s.requireAdmin)
	s.echo.DELETE("/questions/:id", s.handleDeleteQuestion, s.requireAdmin)
}

func (s *Server) handleListQuestions(c echo.Context) error {
	page := domain.PageRequest{Limit: domain.DefaultPageLimit}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.ValidationError("limit must be an integer").WithField("limit", raw)
		}
		page.Limit = limit
	}

	if raw := c.QueryParam("cursor"); raw != "" {
		cursor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.ValidationError("cursor must be an integer").WithField("cursor", raw)
		}
		page.Cursor = &cursor
	}

	result, err := s.app.ListQuestions(c.Request().Context(), page)
	switch {
	case errors.Is(err, app.ErrInvalidPageLimit):
		return apperrors.ValidationError(fmt.Sprintf("limit must be between 1 and %d", domain.MaxPageLimit))
	case errors.Is(err, domain.ErrInvalidCursor):
		return apperrors.ValidationError("Invalid cursor").WithField("cursor", *page.Cursor)
	case err != nil:
		return apperrors.InternalError("failed to list questions", err)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetQuestion(c echo.Context) error {
	questionID, err := questionIDParam(c)
	if err != nil {
		return err
	}

	question, err := s.app.GetQuestion(c.Request().Context(), questionID)
	if err != nil {
		return questionError(err, questionID, "failed to get question")
	}

	if err := c.JSON(http.StatusOK, question); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateQuestion(c echo.Context) error {
	var req createQuestionRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	question, err := s.app.CreateQuestion(c.Request().Context(), req.Message)
	if err != nil {
		return questionError(err, 0, "failed to create question")
	}

	if err := c.JSON(http.StatusCreated, question); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleAnswerQuestion(c echo.Context) error {
	questionID, err := questionIDParam(c)
	if err != nil {
		return err
	}

	var req answerQuestionRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	question, err := s.app.AnswerQuestion(c.Request().Context(), questionID, req.Answer)
	if err != nil {
		return questionError(err, questionID, "failed to answer question")
	}

	if err := c.JSON(http.StatusOK, question); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateStatus(c echo.Context) error {
	admin, err := adminFromContext(c)
	if err != nil {
		return err
	}

	questionID, err := questionIDParam(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	question, err := s.app.UpdateStatus(c.Request().Context(), questionID, req.Status, admin)
	if err != nil {
		return questionError(err, questionID, "failed to update question status")
	}

	if err := c.JSON(http.StatusOK, question); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteQuestion(c echo.Context) error {
	admin, err := adminFromContext(c)
	if err != nil {
		return err
	}

	questionID, err := questionIDParam(c)
	if err != nil {
		return err
	}

	if err := s.app.DeleteQuestion(c.Request().Context(), questionID, admin); err != nil {
		return questionError(err, questionID, "failed to delete question")
	}

	if err := c.NoContent(http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}
	return nil
}

func questionIDParam(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.ValidationError("question id must be an integer").WithField("question_id", raw)
	}
	return id, nil
}

func questionError(err error, questionID int64, internalMessage string) error {
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound):
		return apperrors.NotFoundError("Question not found").WithField("question_id", questionID)
	case errors.Is(err, domain.ErrEmptyMessage):
		return apperrors.ValidationError("Question message cannot be empty")
	case errors.Is(err, domain.ErrEmptyAnswer):
		return apperrors.ValidationError("Answer cannot be empty").WithField("question_id", questionID)
	case errors.Is(err, domain.ErrInvalidStatus):
		return apperrors.ValidationError("Invalid status. Must be one of: Pending, Escalated, Answered").
			WithField("question_id", questionID)
	default:
		e := apperrors.InternalError(internalMessage, err)
		if questionID != 0 {
			e = e.WithField("question_id", questionID)
		}
		return e
	}
}

func bindBody(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			wrapped := WrapHTTPError(httpErr)
			wrapped.Message = "Invalid request body"
			return wrapped
		}
		return apperrors.ValidationError("Invalid request body")
	}
	return nil
}
