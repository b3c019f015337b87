package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// completeText runs a single non-streaming completion and returns the text
// of the final choice. Nodes that use the model for classification or
// extraction call this instead of the streaming LLM node, so the
// intermediate output never reaches the client.
func completeText(ctx context.Context, llm model.Model, messages []schema.Message) (string, error) {
	if llm == nil {
		return "", errors.New("no model configured")
	}
	request := &model.Request{
		Messages: messages,
		GenerationConfig: model.GenerationConfig{
			Stream: false,
		},
	}
	responseChan, err := llm.GenerateContent(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to run model: %w", err)
	}
	var final *model.Response
	for response := range responseChan {
		if response.Error != nil {
			return "", fmt.Errorf("model API error: %s", response.Error.Message)
		}
		if response.IsPartial {
			continue
		}
		final = response
	}
	if final == nil || len(final.Choices) == 0 {
		return "", errors.New("no response received from model")
	}
	return final.Choices[0].Message.Content, nil
}

// runModel resolves the effective model for a node: the per-run override
// from state when present, otherwise the agent's configured default.
func runModel(state graph.State, fallback model.Model) model.Model {
	if override, ok := state[graph.StateKeyModel].(model.Model); ok && override != nil {
		return override
	}
	return fallback
}

// executionContext extracts the run's execution context from state. It may
// be nil in direct node tests.
func executionContext(state graph.State) *graph.ExecutionContext {
	execCtx, _ := state[graph.StateKeyExecContext].(*graph.ExecutionContext)
	return execCtx
}

// runIDOf returns the run ID from the execution context, or "" without one.
func runIDOf(execCtx *graph.ExecutionContext) string {
	if execCtx == nil {
		return ""
	}
	return execCtx.RunID
}
