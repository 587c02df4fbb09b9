package memory

import (
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
)

// Memory is an in-memory repository backend for development and tests.
type Memory struct {
	memories *memoryRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		memories: newMemoryRepository(),
	}
}

func (m *Memory) Memory() interfaces.MemoryRepository {
	return m.memories
}

func (m *Memory) Close() error {
	return nil
}
