package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// Task reports the progress of a long-running background job to the
// client. Each lifecycle change is dispatched immediately as a custom
// event and also returned as a custom message for the conversation log.
type Task struct {
	name   string
	id     string
	state  string
	result string
}

// NewTask creates a task in the new state.
func NewTask(name string) *Task {
	return &Task{
		name:  name,
		id:    uuid.New().String(),
		state: schema.TaskStateNew,
	}
}

// Start dispatches the initial progress update.
func (t *Task) Start(ctx context.Context, state graph.State, data map[string]any) (schema.Message, error) {
	t.state = schema.TaskStateNew
	return t.dispatch(ctx, state, data)
}

// WriteData dispatches an intermediate progress update. Completed tasks
// cannot output further data.
func (t *Task) WriteData(ctx context.Context, state graph.State, data map[string]any) (schema.Message, error) {
	if t.state == schema.TaskStateComplete {
		return schema.Message{}, errors.New("only incomplete tasks can output data")
	}
	t.state = schema.TaskStateRunning
	return t.dispatch(ctx, state, data)
}

// Finish dispatches the final progress update with the task result.
func (t *Task) Finish(ctx context.Context, state graph.State, result string, data map[string]any) (schema.Message, error) {
	t.state = schema.TaskStateComplete
	t.result = result
	return t.dispatch(ctx, state, data)
}

// dispatch emits the current task state on the run's event channel and
// returns the equivalent custom message.
func (t *Task) dispatch(ctx context.Context, state graph.State, data map[string]any) (schema.Message, error) {
	taskData := schema.TaskData{
		Name:   t.name,
		RunID:  t.id,
		State:  t.state,
		Result: t.result,
		Data:   data,
	}
	message := schema.NewCustomMessage(taskData.Payload())

	execCtx := executionContext(state)
	if execCtx == nil || execCtx.EventChan == nil {
		return message, nil
	}
	message.RunID = execCtx.RunID

	evt := event.New(execCtx.InvocationID, t.name,
		event.WithRunID(execCtx.RunID),
		event.WithResponse(&model.Response{
			Object:  model.ObjectTypeCustom,
			Choices: []model.Choice{{Message: message}},
		}))
	select {
	case execCtx.EventChan <- evt:
		return message, nil
	case <-ctx.Done():
		return schema.Message{}, ctx.Err()
	}
}
