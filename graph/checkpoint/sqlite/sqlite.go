// Package sqlite provides SQLite-backed checkpoint storage for thread state
// persistence. The checkpoint is stored as a JSON blob keyed by thread ID.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
)

const (
	createCheckpoints = "CREATE TABLE IF NOT EXISTS checkpoints (" +
		"thread_id TEXT NOT NULL PRIMARY KEY, " +
		"ts INTEGER NOT NULL, " +
		"checkpoint_json BLOB NOT NULL" +
		")"

	upsertCheckpoint = "INSERT OR REPLACE INTO checkpoints (" +
		"thread_id, ts, checkpoint_json) VALUES (?, ?, ?)"

	selectCheckpoint = "SELECT checkpoint_json FROM checkpoints WHERE thread_id = ? LIMIT 1"

	deleteCheckpoint = "DELETE FROM checkpoints WHERE thread_id = ?"
)

// Saver is a SQLite-backed implementation of graph.CheckpointSaver.
// It expects an initialized *sql.DB and creates the required schema.
type Saver struct {
	db *sql.DB
}

// NewSaver creates a new saver using the provided DB.
// The DB must use a SQLite driver. The constructor creates tables if needed.
func NewSaver(db *sql.DB) (*Saver, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if _, err := db.Exec(createCheckpoints); err != nil {
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}
	return &Saver{db: db}, nil
}

// Get returns the checkpoint for the thread.
func (s *Saver) Get(ctx context.Context, threadID string) (*graph.Checkpoint, error) {
	if threadID == "" {
		return nil, graph.ErrThreadIDRequired
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx, selectCheckpoint, threadID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graph.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query checkpoint: %w", err)
	}
	return graph.DecodeCheckpoint(blob)
}

// Put commits the checkpoint for the thread.
func (s *Saver) Put(ctx context.Context, threadID string, checkpoint *graph.Checkpoint) error {
	if threadID == "" {
		return graph.ErrThreadIDRequired
	}
	blob, err := graph.EncodeCheckpoint(checkpoint)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertCheckpoint,
		threadID, checkpoint.UpdatedAt.UnixNano(), blob); err != nil {
		return fmt.Errorf("store checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint for the thread.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	if threadID == "" {
		return graph.ErrThreadIDRequired
	}
	if _, err := s.db.ExecContext(ctx, deleteCheckpoint, threadID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Saver) Close() error {
	return s.db.Close()
}
