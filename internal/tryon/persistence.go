package tryon

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ms-tryon/internal/models"
)

// Persistence stores the whole store snapshot as one named record.
// Load returns (nil, nil) when nothing has been saved yet.
type Persistence interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}

// MemoryPersistence keeps the encoded snapshot in process memory. It goes
// through the same JSON encoding as the durable backends.
type MemoryPersistence struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

func (m *MemoryPersistence) Load(ctx context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return DecodeSnapshot(m.data)
}

func (m *MemoryPersistence) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func EncodeSnapshot(snap *models.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func DecodeSnapshot(data []byte) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
