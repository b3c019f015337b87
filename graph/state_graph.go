package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
	"github.com/JoshuaC215/agent-service-toolkit/telemetry/trace"
	"github.com/JoshuaC215/agent-service-toolkit/tool"
)

// needMoreStepsContent is the answer substituted by an LLM node when the
// step budget would be exhausted while tool calls are still pending.
const needMoreStepsContent = "Sorry, need more steps to process this request."

// StateGraph provides a fluent interface for building graphs.
// This is the primary public API for creating executable graphs.
//
// Example usage:
//
//	schema := MessagesStateSchema()
//	graph, err := NewStateGraph(schema).
//	  AddLLMNode("model", llm, instruction, tools).
//	  AddToolsNode("tools", tools).
//	  AddToolsConditionalEdges("model", "tools", End, tools).
//	  AddEdge("tools", "model").
//	  SetEntryPoint("model").
//	  Compile()
//
// The compiled Graph can then be executed with NewExecutor(graph).
type StateGraph struct {
	graph *Graph
	err   error
}

// NewStateGraph creates a new graph builder with the given state schema.
func NewStateGraph(schema *StateSchema) *StateGraph {
	return &StateGraph{
		graph: New(schema),
	}
}

// Option is a function that configures a Node.
type Option func(*Node)

// WithName sets the name of the node.
func WithName(name string) Option {
	return func(node *Node) {
		node.Name = name
	}
}

// WithDescription sets the description of the node.
func WithDescription(description string) Option {
	return func(node *Node) {
		node.Description = description
	}
}

// withNodeType sets the node type.
func withNodeType(nodeType NodeType) Option {
	return func(node *Node) {
		node.Type = nodeType
	}
}

// record keeps the first builder error for Compile to surface.
func (sg *StateGraph) record(err error) {
	if sg.err == nil && err != nil {
		sg.err = err
	}
}

// AddNode adds a node with the given ID and function.
// The name and description of the node can be set with the options.
func (sg *StateGraph) AddNode(id string, function NodeFunc, opts ...Option) *StateGraph {
	node := &Node{
		ID:       id,
		Name:     id,
		Function: function,
		Type:     NodeTypeFunction,
	}
	for _, opt := range opts {
		opt(node)
	}
	sg.record(sg.graph.addNode(node))
	return sg
}

// AddLLMNode adds a node that runs the completion provider with the given
// instruction and declared tools.
func (sg *StateGraph) AddLLMNode(
	id string,
	llm model.Model,
	instruction string,
	tools map[string]tool.Tool,
	opts ...Option,
) *StateGraph {
	opts = append([]Option{withNodeType(NodeTypeLLM)}, opts...)
	return sg.AddNode(id, NewLLMNodeFunc(llm, instruction, tools), opts...)
}

// AddToolsNode adds a node that resolves pending tool calls against the
// given registry.
func (sg *StateGraph) AddToolsNode(
	id string,
	tools map[string]tool.Tool,
	opts ...Option,
) *StateGraph {
	opts = append([]Option{withNodeType(NodeTypeTools)}, opts...)
	return sg.AddNode(id, NewToolsNodeFunc(tools), opts...)
}

// AddEdge adds a normal edge between two nodes.
func (sg *StateGraph) AddEdge(from, to string) *StateGraph {
	sg.record(sg.graph.addEdge(&Edge{From: from, To: to}))
	return sg
}

// AddConditionalEdges adds conditional routing from a node.
func (sg *StateGraph) AddConditionalEdges(
	from string,
	condition ConditionalFunc,
	pathMap map[string]string,
) *StateGraph {
	sg.record(sg.graph.addConditionalEdge(&ConditionalEdge{
		From:      from,
		Condition: condition,
		PathMap:   pathMap,
	}))
	return sg
}

// ToolsRoutingOption configures tool-call routing for
// AddToolsConditionalEdges.
type ToolsRoutingOption func(*toolsRouting)

type toolsRouting struct {
	handoffs map[string]string
	pops     map[string]string
}

// WithHandoff routes a tool call with the given name to a hand-off target
// node instead of the generic tools node.
func WithHandoff(toolName, target string) ToolsRoutingOption {
	return func(r *toolsRouting) {
		r.handoffs[toolName] = target
	}
}

// WithPop routes a tool call with the given name to a pop target that
// returns control to the parent context.
func WithPop(toolName, target string) ToolsRoutingOption {
	return func(r *toolsRouting) {
		r.pops[toolName] = target
	}
}

// AddToolsConditionalEdges adds conditional routing from an LLM node.
//
// Routing of the last message, in order: a hand-off tool call goes to its
// declared hand-off target; a complete/cancel tool call goes to its declared
// pop target; tool calls known to the registry go to the tools node; plain
// text goes to the fallback node. A tool-call name that matches none of
// those is a hard routing error, never silently ignored.
func (sg *StateGraph) AddToolsConditionalEdges(
	fromLLMNode string,
	toToolsNode string,
	fallbackNode string,
	tools map[string]tool.Tool,
	opts ...ToolsRoutingOption,
) *StateGraph {
	routing := &toolsRouting{
		handoffs: make(map[string]string),
		pops:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(routing)
	}

	pathMap := map[string]string{
		toToolsNode:  toToolsNode,
		fallbackNode: fallbackNode,
	}
	for _, target := range routing.handoffs {
		pathMap[target] = target
	}
	for _, target := range routing.pops {
		pathMap[target] = target
	}

	condition := func(ctx context.Context, state State) (string, error) {
		last, ok := state.LastMessage()
		if !ok || !last.HasToolCalls() {
			return fallbackNode, nil
		}
		var handoffTarget, popTarget string
		for _, call := range last.ToolCalls {
			if target, ok := routing.handoffs[call.Name]; ok {
				if handoffTarget == "" {
					handoffTarget = target
				}
				continue
			}
			if target, ok := routing.pops[call.Name]; ok {
				if popTarget == "" {
					popTarget = target
				}
				continue
			}
			if _, ok := tools[call.Name]; ok {
				continue
			}
			return "", fmt.Errorf("unrecognized tool call name %q at routing decision after node %s", call.Name, fromLLMNode)
		}
		if handoffTarget != "" {
			return handoffTarget, nil
		}
		if popTarget != "" {
			return popTarget, nil
		}
		return toToolsNode, nil
	}
	return sg.AddConditionalEdges(fromLLMNode, condition, pathMap)
}

// SetEntryPoint sets the entry point of the graph.
// This is equivalent to AddEdge(Start, nodeID).
func (sg *StateGraph) SetEntryPoint(nodeID string) *StateGraph {
	sg.record(sg.graph.setEntryPoint(nodeID))
	return sg.AddEdge(Start, nodeID)
}

// SetFinishPoint adds an edge from the node to End.
// This is equivalent to AddEdge(nodeID, End).
func (sg *StateGraph) SetFinishPoint(nodeID string) *StateGraph {
	return sg.AddEdge(nodeID, End)
}

// Compile compiles the graph and returns it for execution.
func (sg *StateGraph) Compile() (*Graph, error) {
	if sg.err != nil {
		return nil, fmt.Errorf("invalid graph: %w", sg.err)
	}
	if err := sg.graph.validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return sg.graph, nil
}

// MustCompile compiles the graph or panics if invalid.
func (sg *StateGraph) MustCompile() *Graph {
	graph, err := sg.Compile()
	if err != nil {
		panic(err)
	}
	return graph
}

// NewLLMNodeFunc creates a NodeFunc that runs the completion provider and
// streams partial output to the run's event channel. The final ai message
// is appended to the message log.
func NewLLMNodeFunc(llm model.Model, instruction string, tools map[string]tool.Tool) NodeFunc {
	return func(ctx context.Context, state State) (any, error) {
		ctx, span := trace.Tracer.Start(ctx, "llm_node_execution")
		defer span.End()

		if override, ok := state[StateKeyModel].(model.Model); ok {
			llm = override
		}
		span.SetAttributes(attribute.String("agent.model_name", llm.Info().Name))

		messages := buildMessagesFromState(state, instruction)
		execCtx := extractExecutionContext(state)

		request := &model.Request{
			Messages: messages,
			Tools:    tools,
			GenerationConfig: model.GenerationConfig{
				Stream: true,
			},
		}
		responseChan, err := llm.GenerateContent(ctx, request)
		if err != nil {
			span.SetAttributes(attribute.String("agent.error", err.Error()))
			return nil, fmt.Errorf("failed to run model: %w", err)
		}

		var finalResponse *model.Response
		for response := range responseChan {
			if response.Error != nil {
				span.SetAttributes(attribute.String("agent.error", response.Error.Message))
				return nil, fmt.Errorf("model API error: %s", response.Error.Message)
			}
			if response.IsPartial {
				if err := emitEvent(ctx, execCtx, event.NewResponseEvent(
					execCtx.invocationID(), llm.Info().Name, response)); err != nil {
					return nil, err
				}
				continue
			}
			finalResponse = response
		}
		if finalResponse == nil || len(finalResponse.Choices) == 0 {
			span.SetAttributes(attribute.String("agent.error", "no response received from model"))
			return nil, errors.New("no response received from model")
		}

		newMessage := finalResponse.Choices[0].Message
		newMessage.RunID = execCtx.runID()

		// With the step budget nearly spent, a tool-call request could never
		// be answered and folded back into a final reply. Substitute a plain
		// answer instead of starting a tool round that cannot finish.
		if newMessage.HasToolCalls() {
			if remaining, ok := state[StateKeyRemainingSteps].(int); ok && remaining < 2 {
				newMessage = schema.NewAIMessage(needMoreStepsContent)
				newMessage.RunID = execCtx.runID()
			}
		}

		finalEvent := event.NewResponseEvent(execCtx.invocationID(), llm.Info().Name, finalResponse)
		finalEvent.Response.Choices[0].Message = newMessage
		if err := emitEvent(ctx, execCtx, finalEvent); err != nil {
			return nil, err
		}
		return State{
			StateKeyMessages:     []schema.Message{newMessage},
			StateKeyLastResponse: newMessage.Content,
		}, nil
	}
}

// buildMessagesFromState returns the model input: the non-tombstoned message
// log, with the instruction prepended when not already present.
func buildMessagesFromState(state State, instruction string) []schema.Message {
	logged := state.Messages()
	messages := make([]schema.Message, 0, len(logged)+1)
	if instruction != "" && (len(logged) == 0 || logged[0].Role != schema.RoleSystem) {
		messages = append(messages, schema.NewSystemMessage(instruction))
	}
	messages = append(messages, logged...)
	return messages
}

// extractExecutionContext extracts the execution context from state.
func extractExecutionContext(state State) *ExecutionContext {
	execCtx, _ := state[StateKeyExecContext].(*ExecutionContext)
	return execCtx
}

func (e *ExecutionContext) invocationID() string {
	if e == nil {
		return ""
	}
	return e.InvocationID
}

func (e *ExecutionContext) runID() string {
	if e == nil {
		return ""
	}
	return e.RunID
}

// emitEvent sends an event on the run's channel, honoring cancellation.
func emitEvent(ctx context.Context, execCtx *ExecutionContext, evt *event.Event) error {
	if execCtx == nil || execCtx.EventChan == nil {
		return nil
	}
	evt.RunID = execCtx.RunID
	select {
	case execCtx.EventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewToolsNodeFunc creates a NodeFunc that resolves every pending tool call
// in the last ai message into exactly one tool result message, in call
// order. Failures never abort the batch: an unknown tool name or a tool
// error becomes the result's content, keeping the call/result pairing
// intact for the model's next turn.
func NewToolsNodeFunc(tools map[string]tool.Tool) NodeFunc {
	return func(ctx context.Context, state State) (any, error) {
		ctx, span := trace.Tracer.Start(ctx, "tools_node_execution")
		defer span.End()

		last, ok := state.LastMessage()
		if !ok {
			span.SetAttributes(attribute.String("agent.error", "no messages in state"))
			return nil, errors.New("no messages in state")
		}
		if last.Role != schema.RoleAI {
			span.SetAttributes(attribute.String("agent.error", "last message is not an ai message"))
			return nil, errors.New("last message is not an ai message")
		}
		execCtx := extractExecutionContext(state)

		newMessages := make([]schema.Message, 0, len(last.ToolCalls))
		for _, toolCall := range last.ToolCalls {
			content := runToolCall(ctx, toolCall, tools)
			resultMessage := schema.NewToolMessage(toolCall.ID, content)
			resultMessage.RunID = execCtx.runID()
			newMessages = append(newMessages, resultMessage)

			toolEvent := event.New(execCtx.invocationID(), toolCall.Name,
				event.WithObject(model.ObjectTypeToolResponse))
			toolEvent.Response.Choices = []model.Choice{{Message: resultMessage}}
			if err := emitEvent(ctx, execCtx, toolEvent); err != nil {
				return nil, err
			}
		}
		return State{
			StateKeyMessages: newMessages,
		}, nil
	}
}

// runToolCall executes one tool call and renders its result as message
// content. Errors are rendered, not raised.
func runToolCall(ctx context.Context, toolCall schema.ToolCall, tools map[string]tool.Tool) string {
	ctx, span := trace.Tracer.Start(ctx, fmt.Sprintf("execute_tool %s", toolCall.Name))
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.tool_name", toolCall.Name),
		attribute.String("agent.tool_id", toolCall.ID),
	)

	t, ok := tools[toolCall.Name]
	if !ok {
		span.SetAttributes(attribute.String("agent.error", "tool not found"))
		return fmt.Sprintf("Error: %s is not a valid tool, try one of [%s].",
			toolCall.Name, strings.Join(sortedToolNames(tools), ", "))
	}
	callable, ok := t.(tool.CallableTool)
	if !ok {
		span.SetAttributes(attribute.String("agent.error", "tool is not callable"))
		return fmt.Sprintf("Error: tool %s is not callable.\n Please fix your mistakes.", toolCall.Name)
	}
	result, err := callable.Call(ctx, toolCall.Arguments)
	if err != nil {
		span.SetAttributes(attribute.String("agent.error", err.Error()))
		return fmt.Sprintf("Error: %v\n Please fix your mistakes.", err)
	}
	return stringifyToolResult(result)
}

// stringifyToolResult renders a tool result as message content. Strings
// pass through; structured results are JSON-encoded.
func stringifyToolResult(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func sortedToolNames(tools map[string]tool.Tool) []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MessagesStateSchema creates a state schema for message-based workflows.
func MessagesStateSchema() *StateSchema {
	s := NewStateSchema()
	s.AddField(StateKeyMessages, StateField{
		Type:    reflect.TypeOf([]schema.Message{}),
		Reducer: MessageReducer,
		Default: func() any { return []schema.Message{} },
	})
	s.AddField(StateKeyUserInput, StateField{
		Type:    reflect.TypeOf(""),
		Reducer: DefaultReducer,
	})
	s.AddField(StateKeyLastResponse, StateField{
		Type:    reflect.TypeOf(""),
		Reducer: DefaultReducer,
	})
	s.AddField(StateKeyMetadata, StateField{
		Type:    reflect.TypeOf(map[string]any{}),
		Reducer: MergeReducer,
		Default: func() any { return make(map[string]any) },
	})
	return s
}
