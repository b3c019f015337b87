package schema

import "fmt"

// ChatMessage is the wire representation of a Message as delivered to
// clients by the service boundary.
type ChatMessage struct {
	// Type is the role of the message: human, ai, tool or custom.
	Type string `json:"type"`
	// Content of the message.
	Content string `json:"content"`
	// ToolCalls in the message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID is the tool call this message is responding to.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// RunID of the run that produced the message.
	RunID string `json:"run_id,omitempty"`
	// ResponseMetadata is an opaque bag, e.g. token usage.
	ResponseMetadata map[string]any `json:"response_metadata,omitempty"`
	// CustomData carries the payload of a custom message.
	CustomData map[string]any `json:"custom_data,omitempty"`
}

// ToChatMessage converts an internal Message to its wire representation.
// System messages and tombstoned messages have no wire form.
func ToChatMessage(m Message) (ChatMessage, error) {
	if m.Removed {
		return ChatMessage{}, fmt.Errorf("message %s is removed", m.ID)
	}
	switch m.Role {
	case RoleHuman:
		return ChatMessage{Type: "human", Content: m.Content, RunID: m.RunID}, nil
	case RoleAI:
		return ChatMessage{
			Type:             "ai",
			Content:          m.Content,
			ToolCalls:        m.ToolCalls,
			ResponseMetadata: m.ResponseMetadata,
			RunID:            m.RunID,
		}, nil
	case RoleTool:
		return ChatMessage{
			Type:       "tool",
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			RunID:      m.RunID,
		}, nil
	case RoleCustom:
		return ChatMessage{Type: "custom", CustomData: m.CustomPayload, RunID: m.RunID}, nil
	default:
		return ChatMessage{}, fmt.Errorf("unsupported message role: %s", m.Role)
	}
}
