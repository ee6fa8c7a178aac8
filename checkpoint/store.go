package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists and retrieves encoded checkpoint records keyed by run ID
// and frontier position.
type Store interface {
	Put(ctx context.Context, runID string, position int, data []byte) error
	Get(ctx context.Context, runID string, position int) ([]byte, bool, error)
}

// NewRunID returns a fresh run identifier for a checkpointed search.
func NewRunID() string { return uuid.NewString() }

// FileStore persists one file per (run, position) pair under Dir.
type FileStore struct {
	Dir string
}

func (s FileStore) path(runID string, position int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s-%06d.ckpt", runID, position))
}

func (s FileStore) Put(_ context.Context, runID string, position int, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path(runID, position), data, 0o644); err != nil {
		return fmt.Errorf("checkpoint: write file: %w", err)
	}
	return nil
}

func (s FileStore) Get(_ context.Context, runID string, position int) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(runID, position))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("checkpoint: read file: %w", err)
	}
	return data, true, nil
}

// RedisStore persists checkpoint records as Redis string keys, for sharing
// a long search's checkpoints across machines instead of local disk.
type RedisStore struct {
	Client *redis.Client
}

func (s RedisStore) key(runID string, position int) string {
	return "bbcore:checkpoint:" + runID + ":" + strconv.Itoa(position)
}

func (s RedisStore) Put(ctx context.Context, runID string, position int, data []byte) error {
	if err := s.Client.Set(ctx, s.key(runID, position), data, 0).Err(); err != nil {
		return fmt.Errorf("checkpoint: redis set: %w", err)
	}
	return nil
}

func (s RedisStore) Get(ctx context.Context, runID string, position int) ([]byte, bool, error) {
	data, err := s.Client.Get(ctx, s.key(runID, position)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("checkpoint: redis get: %w", err)
	}
	return data, true, nil
}
