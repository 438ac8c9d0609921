package queue

import "errors"

// Sentinel errors for enqueue failures.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)
