package agui

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

func responseEvent(rsp *model.Response) *event.Event {
	return event.NewResponseEvent("inv-1", "tester", rsp)
}

func TestTranslateNilEvent(t *testing.T) {
	tr := NewTranslator("t-1", "r-1")
	_, err := tr.Translate(nil)
	assert.Error(t, err)
}

func TestTranslateError(t *testing.T) {
	tr := NewTranslator("t-1", "r-1")
	events, err := tr.Translate(event.NewErrorEvent("inv-1", "tester", "boom_type", "boom"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeRunError, events[0].Type)
	assert.Equal(t, "boom", events[0].Message)
	assert.Equal(t, "r-1", events[0].RunID)
}

func TestTranslateStreamedMessage(t *testing.T) {
	tr := NewTranslator("t-1", "r-1")

	chunk := func(delta string) *model.Response {
		return &model.Response{
			ID:        "rsp-1",
			Object:    model.ObjectTypeChatCompletionChunk,
			IsPartial: true,
			Choices:   []model.Choice{{Delta: schema.Message{Role: schema.RoleAI, Content: delta}}},
		}
	}

	events, err := tr.Translate(responseEvent(chunk("Hel")))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeTextMessageStart, events[0].Type)
	assert.Equal(t, EventTypeTextMessageContent, events[1].Type)
	assert.Equal(t, "Hel", events[1].Delta)

	events, err = tr.Translate(responseEvent(chunk("lo")))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeTextMessageContent, events[0].Type)
	assert.Equal(t, "lo", events[0].Delta)

	final := &model.Response{
		ID:      "rsp-1",
		Object:  model.ObjectTypeChatCompletion,
		Done:    true,
		Choices: []model.Choice{{Message: schema.NewAIMessage("Hello")}},
	}
	events, err = tr.Translate(responseEvent(final))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeTextMessageEnd, events[0].Type)
}

func TestTranslateCompleteMessage(t *testing.T) {
	tr := NewTranslator("t-1", "r-1")
	msg := schema.NewAIMessage("All done.")
	events, err := tr.Translate(responseEvent(&model.Response{
		ID:      "rsp-2",
		Object:  model.ObjectTypeChatCompletion,
		Done:    true,
		Choices: []model.Choice{{Message: msg}},
	}))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, EventTypeTextMessageStart, events[0].Type)
	assert.Equal(t, msg.ID, events[0].MessageID)
	assert.Equal(t, EventTypeTextMessageContent, events[1].Type)
	assert.Equal(t, "All done.", events[1].Delta)
	assert.Equal(t, EventTypeTextMessageEnd, events[2].Type)
}

func TestTranslateToolCallsPrecedeText(t *testing.T) {
	tr := NewTranslator("t-1", "r-1")
	msg := schema.NewAIMessage("Running both tools.")
	msg.ToolCalls = []schema.ToolCall{
		{ID: "call_1", Name: "add", Arguments: json.RawMessage(`{"a":1,"b":2}`)},
		{ID: "call_2", Name: "multiply", Arguments: json.RawMessage(`{"a":3,"b":4}`)},
	}
	events, err := tr.Translate(responseEvent(&model.Response{
		ID:      "rsp-3",
		Object:  model.ObjectTypeChatCompletion,
		Done:    true,
		Choices: []model.Choice{{Message: msg}},
	}))
	require.NoError(t, err)

	// One complete triple per call, then the text events.
	require.Len(t, events, 9)
	assert.Equal(t, EventTypeToolCallStart, events[0].Type)
	assert.Equal(t, "call_1", events[0].ToolCallID)
	assert.Equal(t, "add", events[0].ToolCallName)
	assert.Equal(t, EventTypeToolCallArgs, events[1].Type)
	assert.Equal(t, EventTypeToolCallEnd, events[2].Type)
	assert.Equal(t, EventTypeToolCallStart, events[3].Type)
	assert.Equal(t, "call_2", events[3].ToolCallID)
	assert.Equal(t, EventTypeToolCallEnd, events[5].Type)
	assert.Equal(t, EventTypeTextMessageStart, events[6].Type)
	assert.Equal(t, EventTypeTextMessageContent, events[7].Type)
	assert.Equal(t, EventTypeTextMessageEnd, events[8].Type)
}

func TestTranslateToolResultDropped(t *testing.T) {
	tr := NewTranslator("t-1", "r-1")
	events, err := tr.Translate(responseEvent(&model.Response{
		Object:  model.ObjectTypeToolResponse,
		Choices: []model.Choice{{Message: schema.NewToolMessage("call_1", "5")}},
	}))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTranslateCustomAndInterrupt(t *testing.T) {
	tr := NewTranslator("t-1", "r-1")

	events, err := tr.Translate(responseEvent(&model.Response{
		Object: model.ObjectTypeCustom,
		Choices: []model.Choice{{
			Message: schema.NewCustomMessage(map[string]any{"name": "Task 1", "state": "running"}),
		}},
	}))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeCustom, events[0].Type)
	assert.Equal(t, "custom_data", events[0].Name)

	events, err = tr.Translate(responseEvent(&model.Response{
		Object:  model.ObjectTypeInterrupt,
		Done:    true,
		Choices: []model.Choice{{Message: schema.NewAIMessage("Please tell me your birthdate?")}},
	}))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeCustom, events[0].Type)
	assert.Equal(t, "interrupt", events[0].Name)
	assert.Equal(t, "Please tell me your birthdate?", events[0].Value)
}

func TestTranslateRunnerCompletionSilent(t *testing.T) {
	tr := NewTranslator("t-1", "r-1")
	events, err := tr.Translate(responseEvent(&model.Response{
		Object:  model.ObjectTypeRunnerCompletion,
		Done:    true,
		Choices: []model.Choice{{Message: schema.NewAIMessage("final")}},
	}))
	require.NoError(t, err)
	assert.Empty(t, events)
}
