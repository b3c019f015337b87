package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:checkpoints?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaverRoundTrip(t *testing.T) {
	saver, err := NewSaver(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = saver.Get(ctx, "t1")
	assert.ErrorIs(t, err, graph.ErrCheckpointNotFound)

	human := schema.NewHumanMessage("hi")
	checkpoint := &graph.Checkpoint{
		ThreadID: "t1",
		State: graph.State{
			graph.StateKeyMessages:     []schema.Message{human},
			graph.StateKeyLastResponse: "hello",
		},
		PendingInterrupt: &graph.PendingInterrupt{NodeID: "ask", Key: "k", Value: "v"},
	}
	require.NoError(t, saver.Put(ctx, "t1", checkpoint))

	got, err := saver.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.State[graph.StateKeyLastResponse])
	require.Len(t, got.State.Messages(), 1)
	assert.Equal(t, human.ID, got.State.Messages()[0].ID)
	require.NotNil(t, got.PendingInterrupt)
	assert.Equal(t, "ask", got.PendingInterrupt.NodeID)

	// Put overwrites.
	checkpoint.State[graph.StateKeyLastResponse] = "updated"
	checkpoint.PendingInterrupt = nil
	require.NoError(t, saver.Put(ctx, "t1", checkpoint))
	got, err = saver.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.State[graph.StateKeyLastResponse])
	assert.Nil(t, got.PendingInterrupt)

	require.NoError(t, saver.Delete(ctx, "t1"))
	_, err = saver.Get(ctx, "t1")
	assert.ErrorIs(t, err, graph.ErrCheckpointNotFound)
}

func TestNewSaverRequiresDB(t *testing.T) {
	_, err := NewSaver(nil)
	require.Error(t, err)
}
