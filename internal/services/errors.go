package services

import "errors"

var (
	// ErrDuplicateEmail is returned when a register hits the unique email index.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrUserNotFound is returned when no user document matches the email.
	ErrUserNotFound = errors.New("user not found")
)
