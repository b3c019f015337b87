// Package inmemory provides in-memory checkpoint storage for thread state
// persistence. Suitable for tests and single-process deployments; state is
// lost on restart.
package inmemory

import (
	"context"
	"sync"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
)

// Saver is an in-memory implementation of graph.CheckpointSaver.
type Saver struct {
	mu      sync.RWMutex
	storage map[string]*graph.Checkpoint // threadID -> checkpoint
}

// NewSaver creates a new in-memory checkpoint saver.
func NewSaver() *Saver {
	return &Saver{
		storage: make(map[string]*graph.Checkpoint),
	}
}

// Get returns the checkpoint for the thread.
func (s *Saver) Get(ctx context.Context, threadID string) (*graph.Checkpoint, error) {
	if threadID == "" {
		return nil, graph.ErrThreadIDRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	checkpoint, exists := s.storage[threadID]
	if !exists {
		return nil, graph.ErrCheckpointNotFound
	}
	return checkpoint.Copy(), nil
}

// Put commits the checkpoint for the thread.
func (s *Saver) Put(ctx context.Context, threadID string, checkpoint *graph.Checkpoint) error {
	if threadID == "" {
		return graph.ErrThreadIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storage[threadID] = checkpoint.Copy()
	return nil
}

// Delete removes the checkpoint for the thread.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	if threadID == "" {
		return graph.ErrThreadIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.storage, threadID)
	return nil
}

// Close implements graph.CheckpointSaver.
func (s *Saver) Close() error {
	return nil
}
