package sink

import (
	"context"
	"sync"
)

// MemoryStore keeps nodes in process memory. Useful for tests and dry runs.
type MemoryStore struct {
	mu         sync.RWMutex
	nodes      map[int64]Node
	byExternal map[int]int64
	nextID     int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:      make(map[int64]Node),
		byExternal: make(map[int]int64),
	}
}

func (s *MemoryStore) FindByExternalID(ctx context.Context, extID int) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byExternal[extID]
	if !ok {
		return nil, ErrNotFound
	}
	node := s.nodes[id]
	return &node, nil
}

func (s *MemoryStore) Save(ctx context.Context, node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.ID == 0 {
		if id, ok := s.byExternal[node.ExternalID]; ok {
			node.ID = id
		} else {
			s.nextID++
			node.ID = s.nextID
		}
	}
	s.nodes[node.ID] = *node
	s.byExternal[node.ExternalID] = node.ID
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), nil
}

// Nodes returns a snapshot of every stored node keyed by external id.
func (s *MemoryStore) Nodes() map[int]Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]Node, len(s.nodes))
	for _, n := range s.nodes {
		out[n.ExternalID] = n
	}
	return out
}

func (s *MemoryStore) Close() error {
	return nil
}
