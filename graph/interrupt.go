package graph

import (
	"errors"
	"fmt"
	"time"
)

// InterruptError represents an interrupt in graph execution that can be
// resumed. Nodes do not construct it directly; it is returned by Interrupt
// and recognized by the executor.
type InterruptError struct {
	// Value is the value surfaced to the caller, typically a prompt.
	Value any
	// Key identifies the interrupt site within the node.
	Key string
	// NodeID is the ID of the node where the interrupt occurred.
	NodeID string
	// Step is the step number when the interrupt occurred.
	Step int
	// Timestamp is when the interrupt occurred.
	Timestamp time.Time
}

// Error returns the error message for the interrupt.
func (g *InterruptError) Error() string {
	return fmt.Sprintf("graph interrupted at node %s (step %d): %v", g.NodeID, g.Step, g.Value)
}

// NewInterruptError creates a new InterruptError with the given key and value.
func NewInterruptError(key string, value any) *InterruptError {
	return &InterruptError{
		Key:       key,
		Value:     value,
		Timestamp: time.Now().UTC(),
	}
}

// IsInterruptError checks if an error is an InterruptError.
func IsInterruptError(err error) bool {
	var interrupt *InterruptError
	return errors.As(err, &interrupt)
}

// GetInterruptError extracts an InterruptError from an error.
func GetInterruptError(err error) (*InterruptError, bool) {
	var interrupt *InterruptError
	if errors.As(err, &interrupt) {
		return interrupt, true
	}
	return nil, false
}

// PendingInterrupt is a suspended-execution marker persisted with a thread's
// checkpoint. It records where to re-enter and what was asked.
type PendingInterrupt struct {
	// NodeID is the node to re-enter on resume.
	NodeID string `json:"node_id"`
	// Key identifies the interrupt site within the node.
	Key string `json:"key"`
	// Value is the value that was surfaced to the caller.
	Value any `json:"value"`
	// Step is the step number when the interrupt occurred.
	Step int `json:"step"`
	// CreatedAt is when the interrupt occurred.
	CreatedAt time.Time `json:"created_at"`
}
