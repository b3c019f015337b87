package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/log"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
	"github.com/JoshuaC215/agent-service-toolkit/telemetry/trace"
)

const (
	// AuthorGraphExecutor is the author of events produced by the executor.
	AuthorGraphExecutor = "graph-executor"
)

// Executor executes a graph with the given initial state. Execution is
// strictly sequential: one node at a time per run, and the caller must not
// run two executions for the same thread concurrently.
type Executor struct {
	graph             *Graph
	saver             CheckpointSaver
	channelBufferSize int
	maxSteps          int
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*ExecutorOptions)

// ExecutorOptions contains configuration options for creating an Executor.
type ExecutorOptions struct {
	// ChannelBufferSize is the buffer size for event channels (default: 256).
	ChannelBufferSize int
	// MaxSteps is the maximum number of steps for graph execution.
	MaxSteps int
	// CheckpointSaver persists state after every node execution.
	CheckpointSaver CheckpointSaver
}

// WithChannelBufferSize sets the buffer size for event channels.
func WithChannelBufferSize(size int) ExecutorOption {
	return func(opts *ExecutorOptions) {
		opts.ChannelBufferSize = size
	}
}

// WithMaxSteps sets the maximum number of steps for graph execution.
func WithMaxSteps(maxSteps int) ExecutorOption {
	return func(opts *ExecutorOptions) {
		opts.MaxSteps = maxSteps
	}
}

// WithCheckpointSaver sets the checkpoint saver. Without one, state lives
// only for the duration of the run.
func WithCheckpointSaver(saver CheckpointSaver) ExecutorOption {
	return func(opts *ExecutorOptions) {
		opts.CheckpointSaver = saver
	}
}

// NewExecutor creates a new graph executor.
func NewExecutor(graph *Graph, opts ...ExecutorOption) (*Executor, error) {
	if err := graph.validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	options := ExecutorOptions{
		ChannelBufferSize: 256,
		MaxSteps:          25,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Executor{
		graph:             graph,
		saver:             options.CheckpointSaver,
		channelBufferSize: options.ChannelBufferSize,
		maxSteps:          options.MaxSteps,
	}, nil
}

// Invocation identifies one execution of the graph against a thread.
type Invocation struct {
	// InvocationID identifies the invocation for event attribution.
	InvocationID string
	// RunID tags produced messages for feedback correlation.
	RunID string
	// ThreadID is the conversation thread being executed.
	ThreadID string
	// StartNode overrides the entry point, used to re-enter the node that
	// interrupted. Empty means the graph's entry point.
	StartNode string
}

// Execute executes the graph with the given initial state. Events are
// delivered on the returned channel in production order; the channel closes
// when the run completes, suspends on an interrupt, or fails.
func (e *Executor) Execute(
	ctx context.Context,
	initialState State,
	invocation *Invocation,
) (<-chan *event.Event, error) {
	if invocation == nil {
		return nil, errors.New("invocation is nil")
	}

	eventChan := make(chan *event.Event, e.channelBufferSize)
	go func() {
		defer close(eventChan)
		ctx, span := trace.Tracer.Start(ctx, "execute_graph")
		defer span.End()
		span.SetAttributes(
			attribute.String("agent.invocation_id", invocation.InvocationID),
			attribute.String("agent.thread_id", invocation.ThreadID),
		)

		execCtx := &ExecutionContext{
			Graph:        e.graph,
			State:        initialState.Clone(),
			EventChan:    eventChan,
			InvocationID: invocation.InvocationID,
			RunID:        invocation.RunID,
		}
		execCtx.State[StateKeyExecContext] = execCtx
		if err := e.executeGraph(ctx, execCtx, invocation); err != nil {
			span.SetAttributes(attribute.String("agent.error", err.Error()))
			log.Errorf("graph execution failed: thread=%s run=%s: %v",
				invocation.ThreadID, invocation.RunID, err)
			errorEvent := event.NewErrorEvent(
				invocation.InvocationID, AuthorGraphExecutor,
				ErrorTypeGraphExecution, err.Error())
			errorEvent.RunID = invocation.RunID
			select {
			case eventChan <- errorEvent:
			case <-ctx.Done():
			}
		}
	}()
	return eventChan, nil
}

// executeGraph drives the state through nodes until a terminal condition.
func (e *Executor) executeGraph(ctx context.Context, execCtx *ExecutionContext, invocation *Invocation) error {
	currentNodeID := invocation.StartNode
	if currentNodeID == "" {
		currentNodeID = e.graph.EntryPoint()
	}
	if currentNodeID == "" {
		return ErrNoEntryPoint
	}
	var stepCount int
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		stepCount++
		if stepCount > e.maxSteps {
			return fmt.Errorf("%w (%d)", ErrMaxStepsExceeded, e.maxSteps)
		}
		if currentNodeID == End {
			return e.finishRun(ctx, execCtx)
		}
		execCtx.State[StateKeyRemainingSteps] = e.maxSteps - stepCount

		nextNodeID, err := e.executeNode(ctx, execCtx, currentNodeID, stepCount)
		if err != nil {
			if interrupt, ok := GetInterruptError(err); ok {
				return e.suspendRun(ctx, execCtx, invocation, interrupt, currentNodeID, stepCount)
			}
			return fmt.Errorf("error executing node %s: %w", currentNodeID, err)
		}
		if err := e.commit(ctx, execCtx, invocation, nil); err != nil {
			return err
		}
		currentNodeID = nextNodeID
	}
}

// finishRun emits the completion event for a run that reached End.
func (e *Executor) finishRun(ctx context.Context, execCtx *ExecutionContext) error {
	lastResponse, _ := execCtx.State[StateKeyLastResponse].(string)
	finalMessage := e.lastAIMessage(execCtx.State, lastResponse)
	completionEvent := event.New(execCtx.InvocationID, AuthorGraphExecutor,
		event.WithObject(model.ObjectTypeRunnerCompletion),
		event.WithRunID(execCtx.RunID))
	completionEvent.Response.Done = true
	completionEvent.Response.Choices = []model.Choice{{Message: finalMessage}}
	select {
	case execCtx.EventChan <- completionEvent:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// lastAIMessage returns the newest ai message in the log, or a synthetic
// one carrying the last response text.
func (e *Executor) lastAIMessage(state State, lastResponse string) schema.Message {
	msgs := state.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == schema.RoleAI && !msgs[i].Removed {
			return msgs[i]
		}
	}
	return schema.NewAIMessage(lastResponse)
}

// suspendRun commits the pending interrupt and surfaces it as an event.
func (e *Executor) suspendRun(
	ctx context.Context,
	execCtx *ExecutionContext,
	invocation *Invocation,
	interrupt *InterruptError,
	nodeID string,
	step int,
) error {
	interrupt.NodeID = nodeID
	interrupt.Step = step
	pending := &PendingInterrupt{
		NodeID:    nodeID,
		Key:       interrupt.Key,
		Value:     interrupt.Value,
		Step:      step,
		CreatedAt: interrupt.Timestamp,
	}
	if err := e.commit(ctx, execCtx, invocation, pending); err != nil {
		return err
	}

	// The interrupt value reaches the caller as an ai message.
	interruptMessage := schema.NewAIMessage(fmt.Sprintf("%v", interrupt.Value))
	interruptMessage.RunID = invocation.RunID
	interruptEvent := event.New(execCtx.InvocationID, AuthorGraphExecutor,
		event.WithObject(model.ObjectTypeInterrupt),
		event.WithRunID(execCtx.RunID))
	interruptEvent.Response.Done = true
	interruptEvent.Response.Choices = []model.Choice{{Message: interruptMessage}}
	select {
	case execCtx.EventChan <- interruptEvent:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// commit persists the current durable state. A failing saver is fatal to
// the run: execution cannot continue without durable state.
func (e *Executor) commit(
	ctx context.Context,
	execCtx *ExecutionContext,
	invocation *Invocation,
	pending *PendingInterrupt,
) error {
	if e.saver == nil {
		return nil
	}
	checkpoint := &Checkpoint{
		ThreadID:         invocation.ThreadID,
		State:            DurableState(execCtx.State),
		PendingInterrupt: pending,
		UpdatedAt:        time.Now().UTC(),
	}
	if err := e.saver.Put(ctx, invocation.ThreadID, checkpoint); err != nil {
		return fmt.Errorf("checkpoint commit failed: %w", err)
	}
	return nil
}

// executeNode executes a single node and returns the next node ID.
func (e *Executor) executeNode(
	ctx context.Context,
	execCtx *ExecutionContext,
	nodeID string,
	step int,
) (string, error) {
	node, exists := e.graph.Node(nodeID)
	if !exists {
		return "", fmt.Errorf("node %s not found", nodeID)
	}

	ctx, span := trace.Tracer.Start(ctx, fmt.Sprintf("execute_node %s", nodeID))
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.node_id", nodeID),
		attribute.String("agent.node_name", node.Name),
		attribute.Int("agent.step", step),
	)
	log.Debugf("executing node %s (step %d)", nodeID, step)

	if node.Function != nil {
		result, err := node.Function(ctx, execCtx.State)
		if err != nil {
			span.SetAttributes(attribute.String("agent.error", err.Error()))
			return "", err
		}
		switch r := result.(type) {
		case *Command:
			if r.Update != nil {
				execCtx.State = e.graph.Schema().ApplyUpdate(execCtx.State, r.Update)
			}
			if r.GoTo != "" {
				if _, ok := e.graph.Node(r.GoTo); !ok && r.GoTo != End {
					return "", fmt.Errorf("command routed to unknown node %s", r.GoTo)
				}
				span.SetAttributes(attribute.String("agent.next_node", r.GoTo))
				return r.GoTo, nil
			}
		case State:
			execCtx.State = e.graph.Schema().ApplyUpdate(execCtx.State, r)
		case nil:
			// No update.
		default:
			return "", fmt.Errorf("node function returned invalid result type: %T", result)
		}
	}
	nextNode, err := e.selectNextNode(ctx, execCtx, nodeID)
	if err == nil {
		span.SetAttributes(attribute.String("agent.next_node", nextNode))
	}
	return nextNode, err
}

// selectNextNode selects the next node based on edges and conditional logic.
func (e *Executor) selectNextNode(
	ctx context.Context,
	execCtx *ExecutionContext,
	currentNodeID string,
) (string, error) {
	if condEdge, exists := e.graph.ConditionalEdge(currentNodeID); exists {
		conditionResult, err := condEdge.Condition(ctx, execCtx.State)
		if err != nil {
			return "", fmt.Errorf("conditional edge evaluation failed: %w", err)
		}
		if nextNode, exists := condEdge.PathMap[conditionResult]; exists {
			return nextNode, nil
		}
		return "", fmt.Errorf("condition result %s not found in path map", conditionResult)
	}
	edges := e.graph.Edges(currentNodeID)
	if len(edges) == 0 {
		// No outgoing edges, the node is terminal.
		return End, nil
	}
	return edges[0].To, nil
}
