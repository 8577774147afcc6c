package persistence

import (
	"context"
	"sync"

	cartapp "github.com/shopfront/cartengine/internal/application/cart"
)

// MemorySnapshotStore keeps the encoded snapshot in memory. It is intended
// for tests and ephemeral sessions; it still round-trips through the codec
// so it exercises the same normalization as the durable backends.
type MemorySnapshotStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySnapshotStore creates an empty in-memory snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// Load returns the stored snapshot, or (nil, nil) when nothing was saved yet.
func (s *MemorySnapshotStore) Load(_ context.Context) (*cartapp.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	return decodeSnapshot(s.data)
}

// Save stores the snapshot, replacing any previous one.
func (s *MemorySnapshotStore) Save(_ context.Context, snap cartapp.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}
