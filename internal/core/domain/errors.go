package domain

import "errors"

var (
	// ErrUserExists is returned when registering an email that is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrRegistrationInProgress means another registration of the same email
	// is in flight and no user holds it yet. Retrying is safe.
	ErrRegistrationInProgress = errors.New("registration for this email is already in progress")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid input")
	// ErrInternal replaces collaborator failures; the cause is logged, never returned.
	ErrInternal = errors.New("internal error")
)
