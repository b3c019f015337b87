package agent

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

const researchInstructionsTemplate = `
You are a helpful research assistant with the ability to search the web and use other tools.
Today's date is %s.

NOTE: THE USER CAN'T SEE THE TOOL RESPONSE.

A few things to remember:
- Please include markdown-formatted links to any citations used in your response. Only include one
or two citations per response unless more are needed. ONLY USE LINKS RETURNED BY THE TOOLS.
- Use the calculator tool to answer math questions. The user does not understand raw expressions,
so for the final response, use human readable format - e.g. "300 * 200", not "(300 \times 200)".
`

// ResearchConfig configures the research assistant agent.
type ResearchConfig struct {
	// Guard moderates user input and model output. A nil guard disables
	// moderation.
	Guard *ContentGuard
	// Search backs the web_search tool. Nil selects the offline
	// placeholder results.
	Search SearchFunc
	// Now supplies the date injected into the instructions. Defaults to
	// time.Now.
	Now func() time.Time
}

// NewResearchAssistant creates a tool-using research agent. User input is
// moderated before the model runs and model output is moderated before it
// is returned; flagged turns are replaced with a block notice and the run
// ends.
func NewResearchAssistant(llm model.Model, cfg ResearchConfig, opts ...Option) (*Agent, error) {
	guard := cfg.Guard
	if guard == nil {
		guard = NewContentGuard(nil)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tools := registryOf(NewCalculatorTool(), NewWebSearchTool(cfg.Search))
	instructions := fmt.Sprintf(researchInstructionsTemplate, now().Format("January 02, 2006"))

	guardInput := func(ctx context.Context, state graph.State) (any, error) {
		safety, err := guard.Check(ctx, "User", state.Messages())
		if err != nil {
			return nil, err
		}
		return graph.State{graph.StateKeySafety: safety}, nil
	}

	blockUnsafeContent := func(ctx context.Context, state graph.State) (any, error) {
		safety, _ := state[graph.StateKeySafety].(SafetyOutput)
		blocked := formatSafetyMessage(safety)
		blocked.RunID = runIDOf(executionContext(state))
		return graph.State{
			graph.StateKeyMessages:     []schema.Message{blocked},
			graph.StateKeyLastResponse: blocked.Content,
		}, nil
	}

	// The model node also moderates its own output, so an unsafe answer is
	// replaced before it is logged or returned.
	llmNode := graph.NewLLMNodeFunc(llm, instructions, tools)
	callModel := func(ctx context.Context, state graph.State) (any, error) {
		out, err := llmNode(ctx, state)
		if err != nil {
			return nil, err
		}
		update, ok := out.(graph.State)
		if !ok {
			return out, nil
		}
		newMessages, _ := update[graph.StateKeyMessages].([]schema.Message)
		if len(newMessages) == 0 || !guard.Enabled() {
			return update, nil
		}
		safety, err := guard.Check(ctx, "Agent", append(state.Messages(), newMessages...))
		if err != nil {
			return nil, err
		}
		if safety.Assessment != SafetyUnsafe {
			return update, nil
		}
		blocked := formatSafetyMessage(safety)
		blocked.RunID = runIDOf(executionContext(state))
		return graph.State{
			graph.StateKeyMessages:     []schema.Message{blocked},
			graph.StateKeySafety:       safety,
			graph.StateKeyLastResponse: blocked.Content,
		}, nil
	}

	checkSafety := func(ctx context.Context, state graph.State) (string, error) {
		safety, _ := state[graph.StateKeySafety].(SafetyOutput)
		if safety.Assessment == SafetyUnsafe {
			return "block_unsafe_content", nil
		}
		return "model", nil
	}

	g, err := graph.NewStateGraph(researchStateSchema()).
		AddNode("guard_input", guardInput).
		AddNode("block_unsafe_content", blockUnsafeContent).
		AddNode("model", callModel).
		AddToolsNode("tools", tools).
		SetEntryPoint("guard_input").
		AddConditionalEdges("guard_input", checkSafety, map[string]string{
			"block_unsafe_content": "block_unsafe_content",
			"model":                "model",
		}).
		SetFinishPoint("block_unsafe_content").
		AddToolsConditionalEdges("model", "tools", graph.End, tools).
		AddEdge("tools", "model").
		Compile()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{
		WithDescription("A research assistant with web search and calculator."),
	}, opts...)
	return New("research-assistant", g, opts...)
}

// researchStateSchema extends the message schema with the safety verdict of
// the most recent moderation pass.
func researchStateSchema() *graph.StateSchema {
	s := graph.MessagesStateSchema()
	s.AddField(graph.StateKeySafety, graph.StateField{
		Type:    reflect.TypeOf(SafetyOutput{}),
		Reducer: graph.DefaultReducer,
	})
	return s
}
