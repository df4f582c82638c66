package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps encoded checkpoints in a map. Values are stored as JSON
// so callers never share memory with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, jobID string) (*Checkpoint, error) {
	Ops.WithLabelValues("load").Inc()

	s.mu.RLock()
	data, ok := s.data[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		Errors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidCheckpoint, err)
	}
	return &cp, nil
}

func (s *MemoryStore) Save(ctx context.Context, cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}
	Ops.WithLabelValues("save").Inc()

	cp.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		Errors.WithLabelValues("save").Inc()
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	s.data[cp.JobID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, jobID string) error {
	Ops.WithLabelValues("delete").Inc()

	s.mu.Lock()
	delete(s.data, jobID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
