// Package agent provides graph-backed conversational agents and the
// registry the service boundary serves them from.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/log"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

const defaultChannelBufferSize = 256

// Info contains basic information about an agent.
type Info struct {
	Name        string
	Description string
}

// RunInput is one user turn against an agent.
type RunInput struct {
	// ThreadID is the conversation thread. Empty means a fresh thread; the
	// minted ID is written back here when the run starts.
	ThreadID string
	// RunID identifies this run; generated (and written back) when empty.
	RunID string
	// UserID is an opaque caller identity, recorded in state metadata.
	UserID string
	// Message is the user's message, or the resume value when the thread
	// has a pending interrupt.
	Message string
	// Model overrides the agent's default completion provider for this run.
	Model model.Model
	// Configurable carries per-run key-value overrides visible to nodes.
	Configurable map[string]any
}

// Agent wraps a compiled graph with the per-run plumbing: loading the
// thread's checkpoint, deciding between a new turn and an interrupt resume,
// and executing the graph.
type Agent struct {
	name        string
	description string
	graph       *graph.Graph
	executor    *graph.Executor
	saver       graph.CheckpointSaver
}

// Option is a function that configures an Agent.
type Option func(*Options)

// Options contains configuration options for creating an Agent.
type Options struct {
	// Description is a description of the agent.
	Description string
	// CheckpointSaver persists thread state across runs.
	CheckpointSaver graph.CheckpointSaver
	// MaxSteps is the maximum number of steps per run.
	MaxSteps int
	// ChannelBufferSize is the buffer size for event channels.
	ChannelBufferSize int
}

// WithDescription sets the description of the agent.
func WithDescription(description string) Option {
	return func(opts *Options) {
		opts.Description = description
	}
}

// WithCheckpointSaver sets the checkpoint saver.
func WithCheckpointSaver(saver graph.CheckpointSaver) Option {
	return func(opts *Options) {
		opts.CheckpointSaver = saver
	}
}

// WithMaxSteps sets the maximum number of steps per run.
func WithMaxSteps(maxSteps int) Option {
	return func(opts *Options) {
		opts.MaxSteps = maxSteps
	}
}

// WithChannelBufferSize sets the buffer size for event channels.
func WithChannelBufferSize(size int) Option {
	return func(opts *Options) {
		opts.ChannelBufferSize = size
	}
}

// New creates an agent from a compiled graph.
func New(name string, g *graph.Graph, opts ...Option) (*Agent, error) {
	options := Options{
		ChannelBufferSize: defaultChannelBufferSize,
	}
	for _, opt := range opts {
		opt(&options)
	}
	executorOpts := []graph.ExecutorOption{
		graph.WithChannelBufferSize(options.ChannelBufferSize),
	}
	if options.CheckpointSaver != nil {
		executorOpts = append(executorOpts, graph.WithCheckpointSaver(options.CheckpointSaver))
	}
	if options.MaxSteps > 0 {
		executorOpts = append(executorOpts, graph.WithMaxSteps(options.MaxSteps))
	}
	executor, err := graph.NewExecutor(g, executorOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph executor: %w", err)
	}
	return &Agent{
		name:        name,
		description: options.Description,
		graph:       g,
		executor:    executor,
		saver:       options.CheckpointSaver,
	}, nil
}

// Info returns the basic information about this agent.
func (a *Agent) Info() Info {
	return Info{Name: a.name, Description: a.description}
}

// Stream executes one run and returns its event channel. Events arrive in
// production order; the channel closes when the run completes, suspends on
// an interrupt, or fails.
func (a *Agent) Stream(ctx context.Context, input *RunInput) (<-chan *event.Event, error) {
	state, invocation, err := a.prepareRun(ctx, input)
	if err != nil {
		return nil, err
	}
	return a.executor.Execute(ctx, state, invocation)
}

// Invoke executes one run to completion and returns the final message: the
// last answer, or the surfaced interrupt value when the run suspends.
func (a *Agent) Invoke(ctx context.Context, input *RunInput) (*schema.Message, error) {
	events, err := a.Stream(ctx, input)
	if err != nil {
		return nil, err
	}
	var final *schema.Message
	for evt := range events {
		if evt.Error != nil {
			return nil, fmt.Errorf("run failed: %s", evt.Error.Message)
		}
		if evt.IsFinalResponse() && len(evt.Choices) > 0 {
			msg := evt.Choices[0].Message
			final = &msg
		}
	}
	if final == nil {
		return nil, errors.New("run produced no output")
	}
	return final, nil
}

// prepareRun loads the thread's checkpoint and builds the initial state:
// either a new human turn appended to the log, or a resume value for a
// pending interrupt. A resume input is consumed by the interrupted node and
// is not appended as a duplicate human turn.
func (a *Agent) prepareRun(ctx context.Context, input *RunInput) (graph.State, *graph.Invocation, error) {
	if input == nil {
		return nil, nil, errors.New("input is nil")
	}
	threadID := input.ThreadID
	if threadID == "" {
		threadID = uuid.New().String()
		// Write the minted ID back so callers can report the real thread.
		input.ThreadID = threadID
	}
	runID := input.RunID
	if runID == "" {
		runID = uuid.New().String()
		input.RunID = runID
	}
	invocation := &graph.Invocation{
		InvocationID: uuid.New().String(),
		RunID:        runID,
		ThreadID:     threadID,
	}

	state := graph.State{}
	var pending *graph.PendingInterrupt
	if a.saver != nil {
		checkpoint, err := a.saver.Get(ctx, threadID)
		switch {
		case err == nil:
			state = checkpoint.State.Clone()
			pending = checkpoint.PendingInterrupt
		case errors.Is(err, graph.ErrCheckpointNotFound):
			// Fresh thread.
		default:
			return nil, nil, fmt.Errorf("failed to load thread state: %w", err)
		}
	}

	if pending != nil {
		log.Debugf("resuming interrupted thread %s at node %s", threadID, pending.NodeID)
		state[graph.StateKeyResume] = input.Message
		invocation.StartNode = pending.NodeID
	} else {
		humanMessage := schema.NewHumanMessage(input.Message)
		humanMessage.RunID = runID
		state = a.graph.Schema().ApplyUpdate(state, graph.State{
			graph.StateKeyMessages:  []schema.Message{humanMessage},
			graph.StateKeyUserInput: input.Message,
		})
	}
	if input.Model != nil {
		state[graph.StateKeyModel] = input.Model
	}
	if input.Configurable != nil {
		state[graph.StateKeyConfigurable] = input.Configurable
	}
	if input.UserID != "" {
		state = a.graph.Schema().ApplyUpdate(state, graph.State{
			graph.StateKeyMetadata: map[string]any{"user_id": input.UserID},
		})
	}
	return state, invocation, nil
}

// History returns the thread's non-tombstoned message log in order.
func (a *Agent) History(ctx context.Context, threadID string) ([]schema.Message, error) {
	if a.saver == nil {
		return nil, errors.New("agent has no checkpoint saver configured")
	}
	checkpoint, err := a.saver.Get(ctx, threadID)
	if errors.Is(err, graph.ErrCheckpointNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var visible []schema.Message
	for _, msg := range checkpoint.State.Messages() {
		if msg.Removed || msg.Role == schema.RoleSystem {
			continue
		}
		visible = append(visible, msg)
	}
	return visible, nil
}
