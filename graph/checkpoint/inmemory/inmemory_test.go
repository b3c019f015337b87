package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

func TestSaverRoundTrip(t *testing.T) {
	saver := NewSaver()
	ctx := context.Background()

	_, err := saver.Get(ctx, "t1")
	assert.ErrorIs(t, err, graph.ErrCheckpointNotFound)

	checkpoint := &graph.Checkpoint{
		ThreadID: "t1",
		State: graph.State{
			graph.StateKeyMessages: []schema.Message{schema.NewHumanMessage("hi")},
		},
	}
	require.NoError(t, saver.Put(ctx, "t1", checkpoint))

	got, err := saver.Get(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got.State.Messages(), 1)

	// Mutating the returned copy does not affect the stored checkpoint.
	got.State[graph.StateKeyLastResponse] = "mutated"
	again, err := saver.Get(ctx, "t1")
	require.NoError(t, err)
	assert.NotContains(t, again.State, graph.StateKeyLastResponse)

	require.NoError(t, saver.Delete(ctx, "t1"))
	_, err = saver.Get(ctx, "t1")
	assert.ErrorIs(t, err, graph.ErrCheckpointNotFound)
}

func TestSaverRequiresThreadID(t *testing.T) {
	saver := NewSaver()
	ctx := context.Background()
	_, err := saver.Get(ctx, "")
	assert.ErrorIs(t, err, graph.ErrThreadIDRequired)
	assert.ErrorIs(t, saver.Put(ctx, "", &graph.Checkpoint{}), graph.ErrThreadIDRequired)
	assert.ErrorIs(t, saver.Delete(ctx, ""), graph.ErrThreadIDRequired)
}
