package agent

import (
	"context"

	"github.com/JoshuaC215/agent-service-toolkit/event"
	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
	"github.com/JoshuaC215/agent-service-toolkit/tool"
	"github.com/JoshuaC215/agent-service-toolkit/tool/function"
)

const (
	supervisorInstructions = "You are a team supervisor managing a research expert and a math expert. " +
		"For current events, use transfer_to_research_expert. " +
		"For math problems, use transfer_to_math_expert."
	mathExpertInstructions     = "You are a math expert. Always use one tool at a time."
	researchExpertInstructions = "You are a world class researcher with access to web search. Do not do any math."
)

// Transfer tool names used by the supervisor team.
const (
	toolTransferToResearchExpert = "transfer_to_research_expert"
	toolTransferToMathExpert     = "transfer_to_math_expert"
	toolTransferBackToSupervisor = "transfer_back_to_supervisor"
)

type transferInput struct{}

// newTransferTool declares a hand-off tool. Transfer calls are routed by
// the graph rather than executed, so the body only exists to complete the
// declaration.
func newTransferTool(name, description string) tool.CallableTool {
	return function.New(func(ctx context.Context, in transferInput) (string, error) {
		return "Successfully transferred", nil
	},
		function.WithName(name),
		function.WithDescription(description),
	)
}

// SupervisorConfig configures the supervisor team agent.
type SupervisorConfig struct {
	// Search backs the research expert's web_search tool. Nil selects the
	// offline placeholder results.
	Search SearchFunc
}

// NewSupervisorAgent creates a multi-agent team: a supervisor that routes
// the conversation to a research expert or a math expert via hand-off
// tool calls, with the experts returning control through a transfer-back
// call once done.
func NewSupervisorAgent(llm model.Model, cfg SupervisorConfig, opts ...Option) (*Agent, error) {
	transferBack := newTransferTool(toolTransferBackToSupervisor,
		"Return control of the conversation to the supervisor.")

	supervisorTools := registryOf(
		newTransferTool(toolTransferToResearchExpert, "Transfer the conversation to the research expert."),
		newTransferTool(toolTransferToMathExpert, "Transfer the conversation to the math expert."),
	)
	researchTools := registryOf(NewWebSearchTool(cfg.Search))
	mathTools := registryOf(NewAddTool(), NewMultiplyTool())

	// Experts also declare the transfer-back tool so the model can end its
	// turn; routing intercepts those calls before execution.
	researchLLMTools := registryOf(NewWebSearchTool(cfg.Search), transferBack)
	mathLLMTools := registryOf(NewAddTool(), NewMultiplyTool(), transferBack)

	supervisor := answerTransfers(map[string]string{
		toolTransferBackToSupervisor: "Successfully transferred back to supervisor",
	}, graph.NewLLMNodeFunc(llm, supervisorInstructions, supervisorTools))

	researchExpert := answerTransfers(map[string]string{
		toolTransferToResearchExpert: "Successfully transferred to research_expert",
	}, graph.NewLLMNodeFunc(llm, researchExpertInstructions, researchLLMTools))

	mathExpert := answerTransfers(map[string]string{
		toolTransferToMathExpert: "Successfully transferred to math_expert",
	}, graph.NewLLMNodeFunc(llm, mathExpertInstructions, mathLLMTools))

	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("supervisor", supervisor).
		AddNode("research_expert", researchExpert).
		AddNode("math_expert", mathExpert).
		AddToolsNode("research_tools", researchTools).
		AddToolsNode("math_tools", mathTools).
		SetEntryPoint("supervisor").
		AddToolsConditionalEdges("supervisor", graph.End, graph.End, nil,
			graph.WithHandoff(toolTransferToResearchExpert, "research_expert"),
			graph.WithHandoff(toolTransferToMathExpert, "math_expert"),
		).
		AddToolsConditionalEdges("research_expert", "research_tools", "supervisor", researchTools,
			graph.WithPop(toolTransferBackToSupervisor, "supervisor"),
		).
		AddToolsConditionalEdges("math_expert", "math_tools", "supervisor", mathTools,
			graph.WithPop(toolTransferBackToSupervisor, "supervisor"),
		).
		AddEdge("research_tools", "research_expert").
		AddEdge("math_tools", "math_expert").
		Compile()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{
		WithDescription("A supervisor agent delegating to research and math experts."),
	}, opts...)
	return New("langgraph-supervisor-agent", g, opts...)
}

// answerTransfers wraps a node so that pending transfer tool calls in the
// last ai message are acknowledged with a tool result before the node's
// model runs. The receiving side of a hand-off answers the call, keeping
// every tool call paired with exactly one result.
func answerTransfers(transferContent map[string]string, inner graph.NodeFunc) graph.NodeFunc {
	return func(ctx context.Context, state graph.State) (any, error) {
		last, ok := state.LastMessage()
		if !ok || !last.HasToolCalls() {
			return inner(ctx, state)
		}
		execCtx := executionContext(state)
		var acks []schema.Message
		for _, call := range last.ToolCalls {
			content, match := transferContent[call.Name]
			if !match {
				continue
			}
			ack := schema.NewToolMessage(call.ID, content)
			ack.RunID = runIDOf(execCtx)
			acks = append(acks, ack)
			if err := emitToolAck(ctx, execCtx, call.Name, ack); err != nil {
				return nil, err
			}
		}
		if len(acks) == 0 {
			return inner(ctx, state)
		}

		// The inner node must see the acknowledgements as part of the log.
		scoped := state.Clone()
		scoped[graph.StateKeyMessages] = append(
			append([]schema.Message{}, state.Messages()...), acks...)
		out, err := inner(ctx, scoped)
		if err != nil {
			return nil, err
		}
		update, ok := out.(graph.State)
		if !ok {
			return out, nil
		}
		newMessages, _ := update[graph.StateKeyMessages].([]schema.Message)
		update[graph.StateKeyMessages] = append(acks, newMessages...)
		return update, nil
	}
}

// emitToolAck streams a transfer acknowledgement as a tool response event.
func emitToolAck(ctx context.Context, execCtx *graph.ExecutionContext, author string, ack schema.Message) error {
	if execCtx == nil || execCtx.EventChan == nil {
		return nil
	}
	evt := event.New(execCtx.InvocationID, author,
		event.WithRunID(execCtx.RunID),
		event.WithResponse(&model.Response{
			Object:  model.ObjectTypeToolResponse,
			Choices: []model.Choice{{Message: ack}},
		}))
	select {
	case execCtx.EventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
