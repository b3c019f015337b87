package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorTool(t *testing.T) {
	calc := NewCalculatorTool()
	assert.Equal(t, "Calculator", calc.Declaration().Name)

	result, err := calc.Call(context.Background(), []byte(`{"expression": "2 * (3 + 4)"}`))
	require.NoError(t, err)
	assert.Equal(t, "14", result)

	result, err = calc.Call(context.Background(), []byte(`{"expression": "10 / 4"}`))
	require.NoError(t, err)
	assert.Equal(t, "2.5", result)
}

func TestCalculatorToolInvalidExpression(t *testing.T) {
	calc := NewCalculatorTool()
	_, err := calc.Call(context.Background(), []byte(`{"expression": "2 +* 3"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid expression")
}

func TestAddAndMultiplyTools(t *testing.T) {
	add := NewAddTool()
	result, err := add.Call(context.Background(), []byte(`{"a": 2, "b": 3}`))
	require.NoError(t, err)
	assert.Equal(t, "5", result)

	multiply := NewMultiplyTool()
	result, err = multiply.Call(context.Background(), []byte(`{"a": 2.5, "b": 4}`))
	require.NoError(t, err)
	assert.Equal(t, "10", result)
}

func TestWebSearchToolOffline(t *testing.T) {
	search := NewWebSearchTool(nil)
	result, err := search.Call(context.Background(), []byte(`{"query": "FAANG headcount"}`))
	require.NoError(t, err)
	assert.Contains(t, result.(string), "No search backend configured")
}

func TestWebSearchToolBackend(t *testing.T) {
	search := NewWebSearchTool(func(ctx context.Context, query string) (string, error) {
		return "results for " + query, nil
	})
	result, err := search.Call(context.Background(), []byte(`{"query": "golang"}`))
	require.NoError(t, err)
	assert.Equal(t, "results for golang", result)
}

func TestRegistryOf(t *testing.T) {
	registry := registryOf(NewCalculatorTool(), NewWebSearchTool(nil))
	require.Len(t, registry, 2)
	assert.Contains(t, registry, "Calculator")
	assert.Contains(t, registry, "web_search")
}
