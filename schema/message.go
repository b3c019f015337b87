// Package schema defines the conversation data model shared by agents,
// the execution core and the service boundary.
package schema

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Role represents the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
	RoleCustom Role = "custom"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAI, RoleTool, RoleCustom:
		return true
	default:
		return false
	}
}

// ToolCall is a model-requested tool invocation embedded in an ai message.
type ToolCall struct {
	// ID is the call identifier the paired tool result must reference.
	ID string `json:"id"`
	// Name is the registered tool name.
	Name string `json:"name"`
	// Arguments holds the JSON-encoded call arguments.
	Arguments json.RawMessage `json:"args,omitempty"`
}

// Message represents a single turn of conversation content.
//
// Messages are immutable once appended to a thread's log. The only permitted
// mutation is tombstoning via RemoveMessage, which marks a message invalid
// for display without changing its position.
type Message struct {
	// ID uniquely identifies the message within a thread.
	ID string `json:"id"`
	// Role is the author role.
	Role Role `json:"role"`
	// Content is the message text, possibly empty.
	Content string `json:"content"`
	// ToolCalls is populated only on ai messages that request tool use.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID references the call a tool message answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ResponseMetadata is an opaque bag, e.g. token usage.
	ResponseMetadata map[string]any `json:"response_metadata,omitempty"`
	// CustomPayload carries structured data for custom-role messages.
	CustomPayload map[string]any `json:"custom_payload,omitempty"`
	// RunID tags the run that produced the message, for feedback correlation.
	RunID string `json:"run_id,omitempty"`
	// Removed marks the message tombstoned. Tombstoned messages keep their
	// position in the log but are omitted from display and model input.
	Removed bool `json:"removed,omitempty"`
}

// RemoveMessage is a tombstone operation targeting an earlier message by ID.
type RemoveMessage struct {
	// ID of the message to tombstone.
	ID string `json:"id"`
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{ID: uuid.New().String(), Role: RoleSystem, Content: content}
}

// NewHumanMessage creates a new human message.
func NewHumanMessage(content string) Message {
	return Message{ID: uuid.New().String(), Role: RoleHuman, Content: content}
}

// NewAIMessage creates a new ai message.
func NewAIMessage(content string) Message {
	return Message{ID: uuid.New().String(), Role: RoleAI, Content: content}
}

// NewToolMessage creates a new tool message answering the given call ID.
func NewToolMessage(toolCallID, content string) Message {
	return Message{
		ID:         uuid.New().String(),
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
	}
}

// NewCustomMessage creates a new custom message carrying structured data.
func NewCustomMessage(payload map[string]any) Message {
	return Message{ID: uuid.New().String(), Role: RoleCustom, CustomPayload: payload}
}

// HasToolCalls reports whether the message requests tool use.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
