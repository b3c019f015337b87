package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// Checkpoint is the last committed snapshot of a thread's state, plus the
// pending interrupt if the thread is suspended.
type Checkpoint struct {
	// ThreadID identifies the conversation thread.
	ThreadID string `json:"thread_id"`
	// State is the durable state at the time of the commit.
	State State `json:"state"`
	// PendingInterrupt is non-nil while the thread awaits a resume value.
	PendingInterrupt *PendingInterrupt `json:"pending_interrupt,omitempty"`
	// UpdatedAt is the time of the last commit.
	UpdatedAt time.Time `json:"updated_at"`
}

// Copy creates a deep-enough copy of the checkpoint: the state map and the
// message slice are duplicated, message values are shared.
func (c *Checkpoint) Copy() *Checkpoint {
	if c == nil {
		return nil
	}
	clone := *c
	clone.State = c.State.Clone()
	if msgs := c.State.Messages(); msgs != nil {
		copied := make([]schema.Message, len(msgs))
		copy(copied, msgs)
		clone.State[StateKeyMessages] = copied
	}
	if c.PendingInterrupt != nil {
		pi := *c.PendingInterrupt
		clone.PendingInterrupt = &pi
	}
	return &clone
}

// CheckpointSaver is the persistence contract for thread state. One
// checkpoint per thread; Put overwrites. Get returns ErrCheckpointNotFound
// for threads that have never committed.
type CheckpointSaver interface {
	// Get returns the checkpoint for the thread.
	Get(ctx context.Context, threadID string) (*Checkpoint, error)
	// Put commits the checkpoint for the thread.
	Put(ctx context.Context, threadID string, checkpoint *Checkpoint) error
	// Delete removes the checkpoint for the thread, if present.
	Delete(ctx context.Context, threadID string) error
	// Close releases any resources held by the saver.
	Close() error
}

// checkpointWire is the serialized form of a checkpoint. State values are
// kept raw so typed fields can be decoded individually.
type checkpointWire struct {
	ThreadID         string                     `json:"thread_id"`
	State            map[string]json.RawMessage `json:"state"`
	PendingInterrupt *PendingInterrupt          `json:"pending_interrupt,omitempty"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// EncodeCheckpoint serializes a checkpoint to JSON for storage backends.
// Internal state keys are stripped before encoding.
func EncodeCheckpoint(checkpoint *Checkpoint) ([]byte, error) {
	wire := checkpointWire{
		ThreadID:         checkpoint.ThreadID,
		State:            make(map[string]json.RawMessage),
		PendingInterrupt: checkpoint.PendingInterrupt,
		UpdatedAt:        checkpoint.UpdatedAt,
	}
	for key, value := range DurableState(checkpoint.State) {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode state field %s: %w", key, err)
		}
		wire.State[key] = raw
	}
	return json.Marshal(wire)
}

// DecodeCheckpoint deserializes a checkpoint produced by EncodeCheckpoint.
// The message log is decoded back to its typed form; other state fields
// decode to generic JSON values.
func DecodeCheckpoint(data []byte) (*Checkpoint, error) {
	var wire checkpointWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	checkpoint := &Checkpoint{
		ThreadID:         wire.ThreadID,
		State:            make(State, len(wire.State)),
		PendingInterrupt: wire.PendingInterrupt,
		UpdatedAt:        wire.UpdatedAt,
	}
	for key, raw := range wire.State {
		if key == StateKeyMessages {
			var msgs []schema.Message
			if err := json.Unmarshal(raw, &msgs); err != nil {
				return nil, fmt.Errorf("failed to decode message log: %w", err)
			}
			checkpoint.State[key] = msgs
			continue
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("failed to decode state field %s: %w", key, err)
		}
		checkpoint.State[key] = value
	}
	return checkpoint, nil
}
