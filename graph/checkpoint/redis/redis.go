// Package redis provides Redis-backed checkpoint storage for thread state
// persistence. Checkpoints are stored as JSON blobs with an optional TTL,
// which doubles as a thread retention policy.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
)

const keyPrefix = "checkpoint:"

// Saver is a Redis-backed implementation of graph.CheckpointSaver.
type Saver struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// Option is a function that configures the Saver.
type Option func(*Saver)

// WithTTL sets the expiry applied to stored checkpoints. Zero means no
// expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Saver) {
		s.ttl = ttl
	}
}

// NewSaver creates a new saver using the provided Redis client.
func NewSaver(client redis.UniversalClient, opts ...Option) (*Saver, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	s := &Saver{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func checkpointKey(threadID string) string {
	return keyPrefix + threadID
}

// Get returns the checkpoint for the thread.
func (s *Saver) Get(ctx context.Context, threadID string) (*graph.Checkpoint, error) {
	if threadID == "" {
		return nil, graph.ErrThreadIDRequired
	}
	blob, err := s.client.Get(ctx, checkpointKey(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, graph.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
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
	if err := s.client.Set(ctx, checkpointKey(threadID), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("store checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint for the thread.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	if threadID == "" {
		return graph.ErrThreadIDRequired
	}
	if err := s.client.Del(ctx, checkpointKey(threadID)).Err(); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *Saver) Close() error {
	return s.client.Close()
}
