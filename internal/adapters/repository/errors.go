package repository

import "errors"

// Sentinel errors returned by stores.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	ErrClosed   = errors.New("session is closed")
)
