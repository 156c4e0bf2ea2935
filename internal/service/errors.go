package service

import "errors"

// Business sentinels. Handlers branch on these with errors.Is and translate
// them to status codes; anything else is an infrastructure failure.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrEmailNotRegistered = errors.New("email not registered")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidName        = errors.New("name must be between 2 and 50 characters")

	// ErrTokenInvalid covers every rejected token shape. Not-found,
	// wrong-kind, and expired are deliberately indistinguishable so a
	// caller probing tokens learns nothing about which rows exist.
	ErrTokenInvalid = errors.New("verification token not found")
)
