package agui

import (
	"errors"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// Translator converts execution events into AG-UI events.
type Translator interface {
	// Translate converts one execution event into zero or more AG-UI
	// events.
	Translate(evt *event.Event) ([]Event, error)
}

// NewTranslator creates an event translator for one run.
func NewTranslator(threadID, runID string) Translator {
	return &translator{
		threadID: threadID,
		runID:    runID,
		framed:   make(map[string]struct{}),
	}
}

type translator struct {
	threadID      string
	runID         string
	lastMessageID string
	framed        map[string]struct{}
}

// Translate maps one execution event to AG-UI events. Tool result messages
// have no representation in this protocol and are dropped; an ai message
// with tool calls emits one complete start/args/end triple per call before
// any of its own text events.
func (t *translator) Translate(evt *event.Event) ([]Event, error) {
	if evt == nil || evt.Response == nil {
		return nil, errors.New("event is nil")
	}
	rsp := evt.Response
	if rsp.Error != nil {
		return []Event{NewRunErrorEvent(t.runID, rsp.Error.Message)}, nil
	}
	switch rsp.Object {
	case model.ObjectTypeChatCompletionChunk:
		return t.chunkEvents(rsp), nil
	case model.ObjectTypeChatCompletion:
		return t.completionEvents(rsp), nil
	case model.ObjectTypeToolResponse:
		// Not representable in this protocol.
		return nil, nil
	case model.ObjectTypeCustom:
		return t.customEvents(rsp), nil
	case model.ObjectTypeInterrupt:
		return t.interruptEvents(rsp), nil
	case model.ObjectTypeRunnerCompletion:
		// The run lifecycle is framed by the caller.
		return nil, nil
	default:
		return []Event{NewRawEvent(rsp)}, nil
	}
}

// chunkEvents frames streamed token increments, opening the message on its
// first chunk.
func (t *translator) chunkEvents(rsp *model.Response) []Event {
	if len(rsp.Choices) == 0 {
		return nil
	}
	var events []Event
	if t.lastMessageID != rsp.ID {
		t.lastMessageID = rsp.ID
		events = append(events, NewTextMessageStartEvent(rsp.ID, string(schema.RoleAI)))
	}
	if delta := rsp.Choices[0].Delta.Content; delta != "" {
		events = append(events, NewTextMessageContentEvent(rsp.ID, delta))
	}
	return events
}

// completionEvents frames a complete ai message: its tool call triples
// first, then its text. A message whose tokens were already streamed is
// only closed.
func (t *translator) completionEvents(rsp *model.Response) []Event {
	if len(rsp.Choices) == 0 {
		return nil
	}
	msg := rsp.Choices[0].Message
	var events []Event
	for _, call := range msg.ToolCalls {
		events = append(events, NewToolCallStartEvent(call.ID, call.Name, messageID(rsp, msg)))
		if len(call.Arguments) > 0 {
			events = append(events, NewToolCallArgsEvent(call.ID, string(call.Arguments)))
		}
		events = append(events, NewToolCallEndEvent(call.ID))
	}
	if msg.Content == "" {
		return events
	}
	id := messageID(rsp, msg)
	if t.lastMessageID == rsp.ID {
		// Token chunks already streamed the content.
		events = append(events, NewTextMessageEndEvent(rsp.ID))
		return events
	}
	if _, seen := t.framed[id]; seen {
		return events
	}
	t.framed[id] = struct{}{}
	events = append(events,
		NewTextMessageStartEvent(id, string(msg.Role)),
		NewTextMessageContentEvent(id, msg.Content),
		NewTextMessageEndEvent(id),
	)
	return events
}

// customEvents frames custom-role messages as custom data passthrough.
func (t *translator) customEvents(rsp *model.Response) []Event {
	var events []Event
	for _, choice := range rsp.Choices {
		events = append(events, NewCustomEvent("custom_data", choice.Message.CustomPayload))
	}
	return events
}

// interruptEvents frames an interrupt value as a custom event.
func (t *translator) interruptEvents(rsp *model.Response) []Event {
	if len(rsp.Choices) == 0 {
		return nil
	}
	return []Event{NewCustomEvent("interrupt", rsp.Choices[0].Message.Content)}
}

// messageID prefers the message's own identity over the response envelope.
func messageID(rsp *model.Response, msg schema.Message) string {
	if msg.ID != "" {
		return msg.ID
	}
	return rsp.ID
}
