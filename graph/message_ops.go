package graph

import (
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// MessageOp defines an operation applied to the message log by the message
// reducer. Operations never reorder or drop entries; the log stays
// append-only with tombstones as the only in-place change.
type MessageOp interface {
	Apply([]schema.Message) []schema.Message
}

// AppendMessages appends messages to the log.
type AppendMessages struct{ Items []schema.Message }

// Apply implements the MessageOp interface.
func (op AppendMessages) Apply(dst []schema.Message) []schema.Message {
	return append(dst, op.Items...)
}

// RemoveMessages tombstones the messages with the given IDs.
type RemoveMessages struct{ IDs []string }

// Apply implements the MessageOp interface.
func (op RemoveMessages) Apply(dst []schema.Message) []schema.Message {
	for _, id := range op.IDs {
		dst = tombstone(dst, id)
	}
	return dst
}
