package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Knetic/govaluate"

	"github.com/JoshuaC215/agent-service-toolkit/tool"
	"github.com/JoshuaC215/agent-service-toolkit/tool/function"
)

type calculatorInput struct {
	Expression string `json:"expression" description:"A valid mathematical expression, e.g. '2 * (3 + 4)'."`
}

// NewCalculatorTool evaluates arithmetic expressions. Invalid expressions
// return an error, which the tools node renders with a retry hint instead
// of aborting the run.
func NewCalculatorTool() tool.CallableTool {
	return function.New(func(ctx context.Context, in calculatorInput) (string, error) {
		expr, err := govaluate.NewEvaluableExpression(in.Expression)
		if err != nil {
			return "", fmt.Errorf("invalid expression %q: %v", in.Expression, err)
		}
		result, err := expr.Evaluate(nil)
		if err != nil {
			return "", fmt.Errorf("failed to evaluate %q: %v", in.Expression, err)
		}
		if f, ok := result.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return fmt.Sprintf("%v", result), nil
	},
		function.WithName("Calculator"),
		function.WithDescription("Evaluate a mathematical expression and return the numeric result."),
	)
}

type pairInput struct {
	A float64 `json:"a" description:"First number."`
	B float64 `json:"b" description:"Second number."`
}

// NewAddTool adds two numbers.
func NewAddTool() tool.CallableTool {
	return function.New(func(ctx context.Context, in pairInput) (string, error) {
		return formatNumber(in.A + in.B), nil
	},
		function.WithName("add"),
		function.WithDescription("Add two numbers."),
	)
}

// NewMultiplyTool multiplies two numbers.
func NewMultiplyTool() tool.CallableTool {
	return function.New(func(ctx context.Context, in pairInput) (string, error) {
		return formatNumber(in.A * in.B), nil
	},
		function.WithName("multiply"),
		function.WithDescription("Multiply two numbers."),
	)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type webSearchInput struct {
	Query string `json:"query" description:"The search query."`
}

// SearchFunc performs a web search and returns a text summary of results.
type SearchFunc func(ctx context.Context, query string) (string, error)

// NewWebSearchTool wraps a search backend as a tool. A nil search function
// yields an offline placeholder, useful in tests and local development.
func NewWebSearchTool(search SearchFunc) tool.CallableTool {
	if search == nil {
		search = func(ctx context.Context, query string) (string, error) {
			return fmt.Sprintf("No search backend configured; no results for %q.", query), nil
		}
	}
	return function.New(func(ctx context.Context, in webSearchInput) (string, error) {
		return search(ctx, in.Query)
	},
		function.WithName("web_search"),
		function.WithDescription("Search the web for current information."),
	)
}

// registryOf builds a tool registry from callable tools.
func registryOf(tools ...tool.CallableTool) map[string]tool.Tool {
	registry := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		registry[t.Declaration().Name] = t
	}
	return registry
}
