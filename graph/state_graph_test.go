package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshuaC215/agent-service-toolkit/schema"
	"github.com/JoshuaC215/agent-service-toolkit/tool"
)

type stubTool struct {
	name string
	fn   func(ctx context.Context, args []byte) (any, error)
}

func (s stubTool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: s.name, Description: s.name}
}

func (s stubTool) Call(ctx context.Context, args []byte) (any, error) {
	return s.fn(ctx, args)
}

func passthrough(id string) NodeFunc {
	return func(ctx context.Context, state State) (any, error) {
		return State{"visited": id}, nil
	}
}

func TestStateGraphCompileValidation(t *testing.T) {
	_, err := NewStateGraph(nil).Compile()
	require.Error(t, err, "missing entry point")

	_, err = NewStateGraph(nil).
		AddNode("a", passthrough("a")).
		AddNode("a", passthrough("a")).
		SetEntryPoint("a").
		Compile()
	require.Error(t, err, "duplicate node ID")

	_, err = NewStateGraph(nil).
		AddNode("a", passthrough("a")).
		AddEdge("a", "missing").
		SetEntryPoint("a").
		Compile()
	require.Error(t, err, "edge to unknown node")

	g, err := NewStateGraph(nil).
		AddNode("a", passthrough("a")).
		SetEntryPoint("a").
		SetFinishPoint("a").
		Compile()
	require.NoError(t, err)
	assert.Equal(t, "a", g.EntryPoint())
}

func registryOf(tools ...tool.CallableTool) map[string]tool.Tool {
	m := make(map[string]tool.Tool)
	for _, t := range tools {
		m[t.Declaration().Name] = t
	}
	return m
}

func toolRouting(t *testing.T, lastMessage schema.Message, opts ...ToolsRoutingOption) (string, error) {
	t.Helper()
	registry := registryOf(stubTool{name: "add", fn: func(ctx context.Context, args []byte) (any, error) {
		return "5", nil
	}})
	sg := NewStateGraph(MessagesStateSchema()).
		AddNode("model", passthrough("model")).
		AddToolsNode("tools", registry).
		AddNode("summarize", passthrough("summarize")).
		AddNode("supervisor", passthrough("supervisor")).
		AddToolsConditionalEdges("model", "tools", End, registry, opts...).
		SetEntryPoint("model")
	g, err := sg.Compile()
	require.NoError(t, err)

	condEdge, ok := g.ConditionalEdge("model")
	require.True(t, ok)
	state := State{StateKeyMessages: []schema.Message{lastMessage}}
	target, err := condEdge.Condition(context.Background(), state)
	if err != nil {
		return "", err
	}
	next, ok := condEdge.PathMap[target]
	require.True(t, ok, "condition result %s missing from path map", target)
	return next, nil
}

func TestToolsRoutingPlainText(t *testing.T) {
	next, err := toolRouting(t, schema.NewAIMessage("done"))
	require.NoError(t, err)
	assert.Equal(t, End, next)
}

func TestToolsRoutingToToolsNode(t *testing.T) {
	msg := schema.NewAIMessage("")
	msg.ToolCalls = []schema.ToolCall{{ID: "1", Name: "add"}}
	next, err := toolRouting(t, msg)
	require.NoError(t, err)
	assert.Equal(t, "tools", next)
}

func TestToolsRoutingHandoffWinsOverTools(t *testing.T) {
	msg := schema.NewAIMessage("")
	msg.ToolCalls = []schema.ToolCall{
		{ID: "1", Name: "add"},
		{ID: "2", Name: "transfer_to_summarizer"},
	}
	next, err := toolRouting(t, msg,
		WithHandoff("transfer_to_summarizer", "summarize"))
	require.NoError(t, err)
	assert.Equal(t, "summarize", next)
}

func TestToolsRoutingPopWinsOverTools(t *testing.T) {
	msg := schema.NewAIMessage("")
	msg.ToolCalls = []schema.ToolCall{{ID: "1", Name: "task_complete"}}
	next, err := toolRouting(t, msg,
		WithPop("task_complete", "supervisor"))
	require.NoError(t, err)
	assert.Equal(t, "supervisor", next)
}

func TestToolsRoutingUnknownNameIsHardError(t *testing.T) {
	msg := schema.NewAIMessage("")
	msg.ToolCalls = []schema.ToolCall{{ID: "1", Name: "no_such_tool"}}
	_, err := toolRouting(t, msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_tool")
}

func TestToolsNodeResolvesCallsInOrder(t *testing.T) {
	registry := registryOf(
		stubTool{name: "add", fn: func(ctx context.Context, args []byte) (any, error) {
			var in struct{ A, B int }
			require.NoError(t, json.Unmarshal(args, &in))
			return "5", nil
		}},
		stubTool{name: "multiply", fn: func(ctx context.Context, args []byte) (any, error) {
			return "6", nil
		}},
	)
	msg := schema.NewAIMessage("")
	msg.ToolCalls = []schema.ToolCall{
		{ID: "call_1", Name: "add", Arguments: []byte(`{"a":2,"b":3}`)},
		{ID: "call_2", Name: "multiply", Arguments: []byte(`{"a":2,"b":3}`)},
	}
	fn := NewToolsNodeFunc(registry)
	result, err := fn(context.Background(), State{StateKeyMessages: []schema.Message{msg}})
	require.NoError(t, err)

	update, ok := result.(State)
	require.True(t, ok)
	results := update[StateKeyMessages].([]schema.Message)
	require.Len(t, results, 2)
	assert.Equal(t, "call_1", results[0].ToolCallID)
	assert.Equal(t, "5", results[0].Content)
	assert.Equal(t, "call_2", results[1].ToolCallID)
	assert.Equal(t, "6", results[1].Content)
}

func TestToolsNodeUnknownToolProducesErrorResult(t *testing.T) {
	registry := registryOf(stubTool{name: "add", fn: func(ctx context.Context, args []byte) (any, error) {
		return "5", nil
	}})
	msg := schema.NewAIMessage("")
	msg.ToolCalls = []schema.ToolCall{{ID: "call_1", Name: "divide"}}
	fn := NewToolsNodeFunc(registry)
	result, err := fn(context.Background(), State{StateKeyMessages: []schema.Message{msg}})
	require.NoError(t, err, "unknown tools are rendered, not raised")

	results := result.(State)[StateKeyMessages].([]schema.Message)
	require.Len(t, results, 1)
	assert.Equal(t, "call_1", results[0].ToolCallID)
	assert.Contains(t, results[0].Content, "divide is not a valid tool")
	assert.Contains(t, results[0].Content, "add")
}

func TestToolsNodeErrorKeepsPairingAndBatch(t *testing.T) {
	registry := registryOf(
		stubTool{name: "Calculator", fn: func(ctx context.Context, args []byte) (any, error) {
			return nil, errors.New("invalid expression: 2 +* 3")
		}},
		stubTool{name: "add", fn: func(ctx context.Context, args []byte) (any, error) {
			return "5", nil
		}},
	)
	msg := schema.NewAIMessage("")
	msg.ToolCalls = []schema.ToolCall{
		{ID: "call_1", Name: "Calculator", Arguments: []byte(`{"expression":"2 +* 3"}`)},
		{ID: "call_2", Name: "add", Arguments: []byte(`{"a":2,"b":3}`)},
	}
	fn := NewToolsNodeFunc(registry)
	result, err := fn(context.Background(), State{StateKeyMessages: []schema.Message{msg}})
	require.NoError(t, err)

	results := result.(State)[StateKeyMessages].([]schema.Message)
	require.Len(t, results, 2, "a failed call still yields a result")
	assert.Equal(t, "call_1", results[0].ToolCallID)
	assert.Contains(t, results[0].Content, "invalid expression")
	assert.Contains(t, results[0].Content, "Please fix your mistakes")
	assert.Equal(t, "5", results[1].Content)
}

func TestBuildMessagesFromState(t *testing.T) {
	human := schema.NewHumanMessage("hi")
	msgs := buildMessagesFromState(State{StateKeyMessages: []schema.Message{human}}, "be nice")
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.RoleSystem, msgs[0].Role)
	assert.Equal(t, "be nice", msgs[0].Content)
	assert.Equal(t, human.ID, msgs[1].ID)

	// Instruction is not duplicated when already present.
	again := buildMessagesFromState(State{StateKeyMessages: msgs}, "be nice")
	require.Len(t, again, 2)
}
