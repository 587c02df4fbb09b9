package interfaces

import (
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// IndexHit is a single similarity-search candidate: a record id with its
// cosine similarity score against the query vector.
type IndexHit struct {
	ID    model.MemoryID
	Score float64
}

// VectorIndex is the in-memory similarity index over (id, vector) pairs.
// It is a derived projection of the memory repository, rebuilt on startup.
// Methods take no context: the index performs only in-memory, non-blocking
// work and a search either completes or the whole request fails.
//
// Implementations must be safe for concurrent use; the brute-force index can
// be swapped for an approximate nearest-neighbor structure behind this same
// contract without touching the orchestrator.
type VectorIndex interface {
	// Upsert inserts or replaces the vector for id. Idempotent.
	Upsert(id model.MemoryID, vector []float32)

	// Delete removes the mapping if present; no-op if absent.
	Delete(id model.MemoryID)

	// Clear empties the index. Used only by the rebuild path.
	Clear()

	// Search returns up to limit hits ordered by descending score. Ties are
	// broken deterministically within a process (insertion order).
	Search(query []float32, limit int) []IndexHit

	// Len returns the number of indexed entries.
	Len() int
}
