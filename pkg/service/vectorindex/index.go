package vectorindex

import (
	"math"
	"sort"
	"sync"

	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// entry holds an indexed vector together with its insertion sequence number,
// which makes tie-breaks between equal scores deterministic within a process.
type entry struct {
	vector []float32
	seq    uint64
}

// Index is a brute-force exact cosine-similarity index. Every search scans
// all entries (O(n·d)).
type Index struct {
	mu      sync.RWMutex
	entries map[model.MemoryID]*entry
	nextSeq uint64
}

var _ interfaces.VectorIndex = &Index{}

// New creates an empty index.
func New() *Index {
	return &Index{
		entries: make(map[model.MemoryID]*entry),
	}
}

// Upsert inserts or replaces the vector for id. The vector is copied so the
// caller cannot mutate indexed state afterwards. Replacing an entry assigns
// a fresh sequence number.
func (x *Index) Upsert(id model.MemoryID, vector []float32) {
	copied := make([]float32, len(vector))
	copy(copied, vector)

	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries[id] = &entry{vector: copied, seq: x.nextSeq}
	x.nextSeq++
}

// Delete removes the mapping for id if present.
func (x *Index) Delete(id model.MemoryID) {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.entries, id)
}

// Clear empties the index.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries = make(map[model.MemoryID]*entry)
	x.nextSeq = 0
}

// Len returns the number of indexed entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.entries)
}

// Search scores every entry against query and returns up to limit hits,
// ordered by descending score. Equal scores fall back to insertion order,
// so repeated searches over the same index state return the same ranking.
func (x *Index) Search(query []float32, limit int) []interfaces.IndexHit {
	if limit <= 0 {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		id    model.MemoryID
		score float64
		seq   uint64
	}

	candidates := make([]scored, 0, len(x.entries))
	for id, e := range x.entries {
		candidates = append(candidates, scored{
			id:    id,
			score: cosineSimilarity(query, e.vector),
			seq:   e.seq,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	hits := make([]interfaces.IndexHit, limit)
	for i := 0; i < limit; i++ {
		hits[i] = interfaces.IndexHit{ID: candidates[i].id, Score: candidates[i].score}
	}

	return hits
}

// cosineSimilarity computes dot(a,b) / (|a|*|b|) with float64 accumulation.
// Mismatched dimensions and zero-norm vectors yield 0 rather than an error,
// so a search stays total over heterogeneous stored embeddings.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
