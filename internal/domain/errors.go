package domain

import "errors"

var (
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidStatus      = errors.New("invalid question status")
	ErrInvalidCursor      = errors.New("invalid cursor")
	ErrEmptyMessage       = errors.New("question message cannot be empty")
	ErrEmptyAnswer        = errors.New("answer cannot be empty")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
