package repositories

import "errors"

var (
	// ErrNotFound is returned when a row does not exist or is not owned by the current user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned before touching the database when arguments cannot be valid.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateUsername is returned when the username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")
)
