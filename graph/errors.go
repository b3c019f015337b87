package graph

import "errors"

// Errors.
var (
	ErrThreadIDRequired   = errors.New("thread_id is required")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrNoEntryPoint       = errors.New("no entry point found")
	ErrMaxStepsExceeded   = errors.New("maximum execution steps exceeded")
)
