package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleHuman.IsValid())
	assert.True(t, RoleCustom.IsValid())
	assert.False(t, Role("assistant").IsValid())
}

func TestConstructors(t *testing.T) {
	h := NewHumanMessage("hi")
	assert.Equal(t, RoleHuman, h.Role)
	assert.NotEmpty(t, h.ID)

	tm := NewToolMessage("call_1", "5")
	assert.Equal(t, RoleTool, tm.Role)
	assert.Equal(t, "call_1", tm.ToolCallID)

	cm := NewCustomMessage(map[string]any{"name": "bg_task"})
	assert.Equal(t, RoleCustom, cm.Role)
	assert.Empty(t, cm.Content)
}

func TestHasToolCalls(t *testing.T) {
	m := NewAIMessage("")
	assert.False(t, m.HasToolCalls())
	m.ToolCalls = []ToolCall{{ID: "call_1", Name: "add"}}
	assert.True(t, m.HasToolCalls())
}

func TestToChatMessage(t *testing.T) {
	ai := NewAIMessage("answer")
	ai.ToolCalls = []ToolCall{{ID: "call_1", Name: "add", Arguments: json.RawMessage(`{"a":2,"b":3}`)}}
	ai.RunID = "run-1"

	cm, err := ToChatMessage(ai)
	require.NoError(t, err)
	assert.Equal(t, "ai", cm.Type)
	assert.Equal(t, "answer", cm.Content)
	assert.Len(t, cm.ToolCalls, 1)
	assert.Equal(t, "run-1", cm.RunID)

	_, err = ToChatMessage(NewSystemMessage("prompt"))
	assert.Error(t, err)

	removed := NewAIMessage("gone")
	removed.Removed = true
	_, err = ToChatMessage(removed)
	assert.Error(t, err)
}

func TestStreamInputDefaults(t *testing.T) {
	var in StreamInput
	assert.True(t, in.TokenStreamingEnabled())

	off := false
	in.StreamTokens = &off
	assert.False(t, in.TokenStreamingEnabled())
}
