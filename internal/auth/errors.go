package auth

import "errors"

var (
	// ErrInvalidToken covers bad signatures, malformed tokens, unexpected
	// algorithms and tokens minted for a different purpose.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a well-signed token is past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrUnsupportedAlgorithm means a stored hash was produced by an algorithm
	// this hasher does not implement. It is internal and never shown to clients.
	ErrUnsupportedAlgorithm = errors.New("unsupported password hash algorithm")

	// ErrMalformedHash means a stored hash string could not be parsed.
	ErrMalformedHash = errors.New("malformed password hash")

	ErrEmptyPassword = errors.New("password cannot be empty")
)
