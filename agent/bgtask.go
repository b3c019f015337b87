package agent

import (
	"context"
	"time"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// BackgroundTaskConfig configures the background-task demo agent.
type BackgroundTaskConfig struct {
	// StepDelay is the simulated work interval between task updates.
	// Zero disables the delay, which keeps tests fast.
	StepDelay time.Duration
}

// NewBackgroundTaskAgent creates an agent that demonstrates streaming
// out-of-band progress updates: a node runs two simulated background tasks,
// dispatching their lifecycle as custom events, before the model answers
// the user.
func NewBackgroundTaskAgent(llm model.Model, cfg BackgroundTaskConfig, opts ...Option) (*Agent, error) {
	pause := func(ctx context.Context) error {
		if cfg.StepDelay <= 0 {
			return nil
		}
		select {
		case <-time.After(cfg.StepDelay):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	bgTask := func(ctx context.Context, state graph.State) (any, error) {
		task1 := NewTask("Simple task 1...")
		task2 := NewTask("Simple task 2...")

		var logged []schema.Message
		steps := []func() (schema.Message, error){
			func() (schema.Message, error) { return task1.Start(ctx, state, nil) },
			func() (schema.Message, error) { return task2.Start(ctx, state, nil) },
			func() (schema.Message, error) {
				return task1.WriteData(ctx, state, map[string]any{"status": "Still running..."})
			},
			func() (schema.Message, error) {
				return task2.Finish(ctx, state, schema.TaskResultError, map[string]any{"output": 42})
			},
			func() (schema.Message, error) {
				return task1.Finish(ctx, state, schema.TaskResultSuccess, map[string]any{"output": 42})
			},
		}
		for _, step := range steps {
			message, err := step()
			if err != nil {
				return nil, err
			}
			logged = append(logged, message)
			if err := pause(ctx); err != nil {
				return nil, err
			}
		}
		return graph.State{graph.StateKeyMessages: logged}, nil
	}

	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("bg_task", bgTask).
		AddLLMNode("model", llm, "", nil).
		SetEntryPoint("bg_task").
		AddEdge("bg_task", "model").
		SetFinishPoint("model").
		Compile()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{
		WithDescription("An agent that runs background tasks while responding."),
	}, opts...)
	return New("bg-task-agent", g, opts...)
}
