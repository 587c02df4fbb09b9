package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[model.MemoryID]*model.Memory
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		entries: make(map[model.MemoryID]*model.Memory),
	}
}

func copyMemory(m *model.Memory) *model.Memory {
	copied := &model.Memory{
		ID:             m.ID,
		UserID:         m.UserID,
		AgentID:        m.AgentID,
		Scope:          m.Scope,
		Payload:        m.Payload,
		EmbeddingModel: m.EmbeddingModel,
		CreatedAt:      m.CreatedAt,
	}
	if m.Embedding != nil {
		copied.Embedding = make([]float32, len(m.Embedding))
		copy(copied.Embedding, m.Embedding)
	}
	return copied
}

func (r *memoryRepository) Insert(ctx context.Context, mem *model.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[mem.ID] = copyMemory(mem)
	return nil
}

func (r *memoryRepository) DeleteByOwner(ctx context.Context, userID string, memoryID model.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mem, exists := r.entries[memoryID]
	if !exists || mem.UserID != userID {
		return nil
	}

	delete(r.entries, memoryID)
	return nil
}

func (r *memoryRepository) FindVisible(ctx context.Context, userID, agentID string, ids []model.MemoryID) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Memory, 0, len(ids))
	for _, id := range ids {
		mem, exists := r.entries[id]
		if !exists {
			continue
		}
		if mem.UserID != userID || !mem.VisibleTo(agentID) {
			continue
		}
		result = append(result, copyMemory(mem))
	}

	return result, nil
}

func (r *memoryRepository) ListByUser(ctx context.Context, userID string) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Memory, 0)
	for _, mem := range r.entries {
		if mem.UserID != userID {
			continue
		}
		result = append(result, copyMemory(mem))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *memoryRepository) ScanAll(ctx context.Context) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Memory, 0, len(r.entries))
	for _, mem := range r.entries {
		result = append(result, copyMemory(mem))
	}

	return result, nil
}
