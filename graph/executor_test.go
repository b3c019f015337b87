package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/graph"
	checkpointinmemory "github.com/JoshuaC215/agent-service-toolkit/graph/checkpoint/inmemory"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// fakeModel streams the content of each scripted reply in two chunks and
// then the full reply. Each GenerateContent call consumes one reply.
type fakeModel struct {
	name    string
	replies []schema.Message
	calls   int
}

func (f *fakeModel) Info() model.Info { return model.Info{Name: f.name} }

func (f *fakeModel) GenerateContent(ctx context.Context, request *model.Request) (<-chan *model.Response, error) {
	reply := f.replies[f.calls%len(f.replies)]
	f.calls++
	ch := make(chan *model.Response, 4)
	go func() {
		defer close(ch)
		half := len(reply.Content) / 2
		for _, part := range []string{reply.Content[:half], reply.Content[half:]} {
			if part == "" {
				continue
			}
			ch <- &model.Response{
				Object:    model.ObjectTypeChatCompletionChunk,
				IsPartial: true,
				Choices: []model.Choice{{
					Delta: schema.Message{Role: schema.RoleAI, Content: part},
				}},
			}
		}
		ch <- &model.Response{
			Object:  model.ObjectTypeChatCompletion,
			Done:    true,
			Choices: []model.Choice{{Message: reply}},
		}
	}()
	return ch, nil
}

func drain(t *testing.T, ch <-chan *event.Event) []*event.Event {
	t.Helper()
	var events []*event.Event
	for evt := range ch {
		events = append(events, evt)
	}
	return events
}

func TestExecutorSequentialRun(t *testing.T) {
	saver := checkpointinmemory.NewSaver()
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("first", func(ctx context.Context, state graph.State) (any, error) {
			return graph.State{graph.StateKeyLastResponse: "one"}, nil
		}).
		AddNode("second", func(ctx context.Context, state graph.State) (any, error) {
			require.Equal(t, "one", state[graph.StateKeyLastResponse])
			return graph.State{graph.StateKeyLastResponse: "two"}, nil
		}).
		AddEdge("first", "second").
		SetEntryPoint("first").
		SetFinishPoint("second").
		Compile()
	require.NoError(t, err)

	exec, err := graph.NewExecutor(g, graph.WithCheckpointSaver(saver))
	require.NoError(t, err)

	events, err := exec.Execute(context.Background(), graph.State{}, &graph.Invocation{
		InvocationID: "inv-1", RunID: "run-1", ThreadID: "t1",
	})
	require.NoError(t, err)
	collected := drain(t, events)

	require.NotEmpty(t, collected)
	final := collected[len(collected)-1]
	assert.Equal(t, model.ObjectTypeRunnerCompletion, final.Object)
	assert.True(t, final.Done)
	assert.Equal(t, "two", final.Choices[0].Message.Content)

	checkpoint, err := saver.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "two", checkpoint.State[graph.StateKeyLastResponse])
	assert.Nil(t, checkpoint.PendingInterrupt)
}

func TestExecutorCommitsAfterEveryNode(t *testing.T) {
	saver := checkpointinmemory.NewSaver()
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("ok", func(ctx context.Context, state graph.State) (any, error) {
			return graph.State{graph.StateKeyLastResponse: "committed"}, nil
		}).
		AddNode("boom", func(ctx context.Context, state graph.State) (any, error) {
			return nil, assert.AnError
		}).
		AddEdge("ok", "boom").
		SetEntryPoint("ok").
		Compile()
	require.NoError(t, err)

	exec, err := graph.NewExecutor(g, graph.WithCheckpointSaver(saver))
	require.NoError(t, err)
	events, err := exec.Execute(context.Background(), graph.State{}, &graph.Invocation{
		InvocationID: "inv-1", RunID: "run-1", ThreadID: "t1",
	})
	require.NoError(t, err)
	collected := drain(t, events)

	// The run fails but the state committed by the first node survives.
	last := collected[len(collected)-1]
	require.NotNil(t, last.Error)
	assert.Equal(t, graph.ErrorTypeGraphExecution, last.Error.Type)

	checkpoint, err := saver.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "committed", checkpoint.State[graph.StateKeyLastResponse])
}

func TestExecutorMaxSteps(t *testing.T) {
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("loop", func(ctx context.Context, state graph.State) (any, error) {
			return graph.State{}, nil
		}).
		AddEdge("loop", "loop").
		SetEntryPoint("loop").
		Compile()
	require.NoError(t, err)

	exec, err := graph.NewExecutor(g, graph.WithMaxSteps(3))
	require.NoError(t, err)
	events, err := exec.Execute(context.Background(), graph.State{}, &graph.Invocation{
		InvocationID: "inv-1", RunID: "run-1", ThreadID: "t1",
	})
	require.NoError(t, err)
	collected := drain(t, events)

	last := collected[len(collected)-1]
	require.NotNil(t, last.Error)
	assert.Contains(t, last.Error.Message, "maximum execution steps")
}

func TestExecutorCommandRouting(t *testing.T) {
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("router", func(ctx context.Context, state graph.State) (any, error) {
			return &graph.Command{
				Update: graph.State{graph.StateKeyLastResponse: "routed"},
				GoTo:   graph.End,
			}, nil
		}).
		AddNode("never", func(ctx context.Context, state graph.State) (any, error) {
			t.Fatal("must not run")
			return nil, nil
		}).
		AddEdge("router", "never").
		SetEntryPoint("router").
		Compile()
	require.NoError(t, err)

	exec, err := graph.NewExecutor(g)
	require.NoError(t, err)
	events, err := exec.Execute(context.Background(), graph.State{}, &graph.Invocation{
		InvocationID: "inv-1", RunID: "run-1", ThreadID: "t1",
	})
	require.NoError(t, err)
	collected := drain(t, events)

	final := collected[len(collected)-1]
	assert.Equal(t, model.ObjectTypeRunnerCompletion, final.Object)
	assert.Equal(t, "routed", final.Choices[0].Message.Content)
}

func TestExecutorStreamsTokensBeforeUpdate(t *testing.T) {
	reply := schema.NewAIMessage("The answer is 5")
	llm := &fakeModel{name: "fake", replies: []schema.Message{reply}}

	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddLLMNode("model", llm, "", nil).
		SetEntryPoint("model").
		SetFinishPoint("model").
		Compile()
	require.NoError(t, err)

	exec, err := graph.NewExecutor(g)
	require.NoError(t, err)
	initial := graph.State{
		graph.StateKeyMessages: []schema.Message{schema.NewHumanMessage("question")},
	}
	events, err := exec.Execute(context.Background(), initial, &graph.Invocation{
		InvocationID: "inv-1", RunID: "run-1", ThreadID: "t1",
	})
	require.NoError(t, err)
	collected := drain(t, events)

	// Concatenated deltas reproduce the final content, and all deltas come
	// before the full message event.
	var tokens strings.Builder
	finalSeen := false
	for _, evt := range collected {
		if evt.IsPartial {
			require.False(t, finalSeen, "token after final message event")
			tokens.WriteString(evt.Choices[0].Delta.Content)
			continue
		}
		if evt.Object == model.ObjectTypeChatCompletion {
			finalSeen = true
			assert.Equal(t, "The answer is 5", evt.Choices[0].Message.Content)
		}
	}
	assert.True(t, finalSeen)
	assert.Equal(t, "The answer is 5", tokens.String())
}

func TestExecutorInterruptAndResume(t *testing.T) {
	saver := checkpointinmemory.NewSaver()
	askNode := func(ctx context.Context, state graph.State) (any, error) {
		value, err := graph.Interrupt(ctx, state, "birthdate", "Please tell me your birthdate?")
		if err != nil {
			return nil, err
		}
		return graph.State{graph.StateKeyLastResponse: "Got " + value.(string)}, nil
	}
	build := func() *graph.Executor {
		g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
			AddNode("ask", askNode).
			SetEntryPoint("ask").
			SetFinishPoint("ask").
			Compile()
		require.NoError(t, err)
		exec, err := graph.NewExecutor(g, graph.WithCheckpointSaver(saver))
		require.NoError(t, err)
		return exec
	}

	// First run suspends.
	events, err := build().Execute(context.Background(), graph.State{}, &graph.Invocation{
		InvocationID: "inv-1", RunID: "run-1", ThreadID: "t1",
	})
	require.NoError(t, err)
	collected := drain(t, events)
	last := collected[len(collected)-1]
	assert.Equal(t, model.ObjectTypeInterrupt, last.Object)
	assert.Equal(t, "Please tell me your birthdate?", last.Choices[0].Message.Content)

	checkpoint, err := saver.Get(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, checkpoint.PendingInterrupt)
	assert.Equal(t, "ask", checkpoint.PendingInterrupt.NodeID)

	// Second run re-enters the node with the resume value injected.
	resumeState := checkpoint.State.Clone()
	resumeState[graph.StateKeyResume] = "1990-01-01"
	events, err = build().Execute(context.Background(), resumeState, &graph.Invocation{
		InvocationID: "inv-2", RunID: "run-2", ThreadID: "t1",
		StartNode: checkpoint.PendingInterrupt.NodeID,
	})
	require.NoError(t, err)
	collected = drain(t, events)
	final := collected[len(collected)-1]
	assert.Equal(t, model.ObjectTypeRunnerCompletion, final.Object)
	assert.Equal(t, "Got 1990-01-01", final.Choices[0].Message.Content)

	checkpoint, err = saver.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, checkpoint.PendingInterrupt, "interrupt consumed on resume")
}
