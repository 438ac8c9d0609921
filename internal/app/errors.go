package service

import (
	"errors"

	"github.com/lairofevil/standings/internal/adapters/repository"
)

// Errors returned by Service operations. Authorization failures are the
// auth package's sentinels and tally.ErrAnonymous is passed through.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidInput  = errors.New("invalid input")
	ErrWrongCurrency = errors.New("operation does not match round currency")
	ErrNotEligible   = errors.New("choice is not eligible in this session")

	ErrNotFound      = repository.ErrNotFound
	ErrConflict      = repository.ErrConflict
	ErrSessionClosed = repository.ErrClosed
)
