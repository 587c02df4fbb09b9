package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// MemoryRepository defines the interface for durable memory record storage.
// Implementations must treat records as immutable: there is no update path,
// only Insert and DeleteByOwner.
type MemoryRepository interface {
	// Insert persists a fully-populated record as-is. The caller owns ID and
	// CreatedAt generation.
	Insert(ctx context.Context, memory *model.Memory) error

	// DeleteByOwner removes the record only when both userID and memoryID
	// match. A missing or foreign record is not an error (idempotent delete).
	DeleteByOwner(ctx context.Context, userID string, memoryID model.MemoryID) error

	// FindVisible performs a filtered multi-get: among ids, return the records
	// owned by userID that are visible to the requesting agentID (global
	// scope, or agent scope with a matching agent id). Return order is
	// unspecified; callers reorder by similarity rank.
	FindVisible(ctx context.Context, userID, agentID string, ids []model.MemoryID) ([]*model.Memory, error)

	// ListByUser retrieves all records owned by userID, newest first.
	ListByUser(ctx context.Context, userID string) ([]*model.Memory, error)

	// ScanAll returns every record in the store. Used only by index rebuilds.
	ScanAll(ctx context.Context) ([]*model.Memory, error)
}
