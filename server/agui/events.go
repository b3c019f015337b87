// Package agui implements the AG-UI style streaming protocol: typed
// lifecycle events for runs, text messages and tool calls, delivered over
// SSE.
package agui

// EventType identifies an AG-UI event.
type EventType string

// AG-UI event types.
const (
	EventTypeRunStarted         EventType = "RUN_STARTED"
	EventTypeRunFinished        EventType = "RUN_FINISHED"
	EventTypeRunError           EventType = "RUN_ERROR"
	EventTypeTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTypeTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventTypeToolCallStart      EventType = "TOOL_CALL_START"
	EventTypeToolCallArgs       EventType = "TOOL_CALL_ARGS"
	EventTypeToolCallEnd        EventType = "TOOL_CALL_END"
	EventTypeCustom             EventType = "CUSTOM"
	EventTypeRaw                EventType = "RAW"
)

// Event is one AG-UI protocol event. Fields are populated according to the
// event type; unused fields are omitted from the wire form.
type Event struct {
	Type EventType `json:"type"`

	// Run lifecycle.
	ThreadID string `json:"thread_id,omitempty"`
	RunID    string `json:"run_id,omitempty"`
	Message  string `json:"message,omitempty"`

	// Text message events.
	MessageID string `json:"message_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Delta     string `json:"delta,omitempty"`

	// Tool call events.
	ToolCallID      string `json:"tool_call_id,omitempty"`
	ToolCallName    string `json:"tool_call_name,omitempty"`
	ParentMessageID string `json:"parent_message_id,omitempty"`

	// Custom and raw passthrough.
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`
}

// NewRunStartedEvent signals the start of a run.
func NewRunStartedEvent(threadID, runID string) Event {
	return Event{Type: EventTypeRunStarted, ThreadID: threadID, RunID: runID}
}

// NewRunFinishedEvent signals the successful end of a run.
func NewRunFinishedEvent(threadID, runID string) Event {
	return Event{Type: EventTypeRunFinished, ThreadID: threadID, RunID: runID}
}

// NewRunErrorEvent signals a run failure. It does not terminate the stream
// by itself.
func NewRunErrorEvent(runID, message string) Event {
	return Event{Type: EventTypeRunError, RunID: runID, Message: message}
}

// NewTextMessageStartEvent opens a text message.
func NewTextMessageStartEvent(messageID, role string) Event {
	return Event{Type: EventTypeTextMessageStart, MessageID: messageID, Role: role}
}

// NewTextMessageContentEvent carries a text increment of an open message.
func NewTextMessageContentEvent(messageID, delta string) Event {
	return Event{Type: EventTypeTextMessageContent, MessageID: messageID, Delta: delta}
}

// NewTextMessageEndEvent closes a text message.
func NewTextMessageEndEvent(messageID string) Event {
	return Event{Type: EventTypeTextMessageEnd, MessageID: messageID}
}

// NewToolCallStartEvent opens a tool call requested by a message.
func NewToolCallStartEvent(toolCallID, name, parentMessageID string) Event {
	return Event{
		Type:            EventTypeToolCallStart,
		ToolCallID:      toolCallID,
		ToolCallName:    name,
		ParentMessageID: parentMessageID,
	}
}

// NewToolCallArgsEvent carries the arguments of an open tool call.
func NewToolCallArgsEvent(toolCallID, delta string) Event {
	return Event{Type: EventTypeToolCallArgs, ToolCallID: toolCallID, Delta: delta}
}

// NewToolCallEndEvent closes a tool call.
func NewToolCallEndEvent(toolCallID string) Event {
	return Event{Type: EventTypeToolCallEnd, ToolCallID: toolCallID}
}

// NewCustomEvent carries structured data that has no dedicated event type.
func NewCustomEvent(name string, value any) Event {
	return Event{Type: EventTypeCustom, Name: name, Value: value}
}

// NewRawEvent passes an arbitrary payload through unchanged.
func NewRawEvent(value any) Event {
	return Event{Type: EventTypeRaw, Value: value}
}
