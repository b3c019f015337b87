package function

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func TestFunctionToolCall(t *testing.T) {
	add := New(func(_ context.Context, in addArgs) (float64, error) {
		return in.A + in.B, nil
	}, WithName("add"), WithDescription("Add two numbers."))

	decl := add.Declaration()
	assert.Equal(t, "add", decl.Name)
	require.NotNil(t, decl.InputSchema)
	assert.Equal(t, "object", decl.InputSchema.Type)
	assert.Contains(t, decl.InputSchema.Properties, "a")
	assert.Contains(t, decl.InputSchema.Properties, "b")
	assert.ElementsMatch(t, []string{"a", "b"}, decl.InputSchema.Required)

	result, err := add.Call(context.Background(), []byte(`{"a":2,"b":3}`))
	require.NoError(t, err)
	assert.Equal(t, float64(5), result)
}

func TestFunctionToolCallError(t *testing.T) {
	boom := New(func(_ context.Context, _ struct{}) (string, error) {
		return "", errors.New("boom")
	}, WithName("boom"))

	_, err := boom.Call(context.Background(), []byte(`{}`))
	assert.Error(t, err)
}

func TestFunctionToolBadArgs(t *testing.T) {
	add := New(func(_ context.Context, in addArgs) (float64, error) {
		return in.A + in.B, nil
	}, WithName("add"))

	_, err := add.Call(context.Background(), []byte(`{"a":"x"}`))
	assert.Error(t, err)
}

func TestFunctionToolEmptyArgs(t *testing.T) {
	echo := New(func(_ context.Context, in addArgs) (addArgs, error) {
		return in, nil
	}, WithName("echo"))

	result, err := echo.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, addArgs{}, result)
}
