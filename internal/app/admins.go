package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

// LoginResult is the bearer token handed to an admin after login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterAdmin validates and stores a new admin account.
func (s *Service) RegisterAdmin(ctx context.Context, username, email, password string) (*domain.Admin, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, ErrInvalidUsername
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(password) > maxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	hash, err := s.credentials.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin, err := s.admins.Create(ctx, username, email, hash)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Admin registered", "admin_id", admin.ID, "username", admin.Username)
	return admin, nil
}

// Login checks an email/password pair and issues a token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrAdminNotFound) {
		s.metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	if !s.credentials.ComparePassword(admin.PasswordHash, password) {
		s.metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.credentials.IssueToken(admin)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	return &LoginResult{AccessToken: token, TokenType: "bearer"}, nil
}
