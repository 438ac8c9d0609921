package auth

import "errors"

// Sentinel errors returned by the auth package.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrUnknownRole      = errors.New("unknown role")
	ErrUnknownAction    = errors.New("unknown action")
	ErrLegacyGate       = errors.New("legacy officer passphrase rejected")
)
