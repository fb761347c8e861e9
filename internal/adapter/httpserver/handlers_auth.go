package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shikhar190399/q-and-a-websockets/internal/app"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
	apperrors "github.com/shikhar190399/q-and-a-websockets/internal/platform/errors"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) registerAuthRoutes() {
	s.echo.POST("/auth/register", s.handleRegister)
	s.echo.POST("/auth/login", s.handleLogin)
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	admin, err := s.app.RegisterAdmin(c.Request().Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return apperrors.ConflictError("Email already registered")
	case errors.Is(err, domain.ErrUsernameTaken):
		return apperrors.ConflictError("Username already taken")
	case errors.Is(err, app.ErrInvalidUsername),
		errors.Is(err, app.ErrInvalidEmail),
		errors.Is(err, app.ErrWeakPassword),
		errors.Is(err, app.ErrPasswordTooLong):
		return apperrors.ValidationError(err.Error())
	case err != nil:
		return apperrors.InternalError("failed to register admin", err)
	}

	if err := c.JSON(http.StatusCreated, admin); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	result, err := s.app.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return apperrors.UnauthorizedError("Invalid email or password")
	}
	if err != nil {
		return apperrors.InternalError("failed to log in", err)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
