package app

import "errors"

var (
	ErrInvalidPageLimit = errors.New("invalid page limit")
	ErrInvalidUsername  = errors.New("username cannot be empty")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrWeakPassword     = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)
