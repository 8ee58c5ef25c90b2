package services

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRole         = errors.New("role is not allowed for this registration")
	ErrUserAlreadyExists   = errors.New("a user with this email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrSignupEmailMismatch = errors.New("email does not match the signup link")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")
	ErrUnauthorized        = errors.New("authentication required")

	// Identity provider outcomes.
	ErrProfileFetch = errors.New("identity provider did not return an email")
	ErrUpstream     = errors.New("identity provider unavailable")

	// Signup link outcomes.
	ErrTokenNotValid     = errors.New("signup token is not valid")
	ErrTokenAlreadyUsed  = errors.New("signup token has already been used")
	ErrSignupLinkExpired = errors.New("signup token has expired")
	ErrDuplicateToken    = errors.New("signup token already exists")
)
