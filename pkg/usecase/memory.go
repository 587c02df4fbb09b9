package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

const (
	// DefaultSearchLimit is used when a search request omits top_k.
	DefaultSearchLimit = 5

	// MaxSearchLimit caps top_k for a single search request.
	MaxSearchLimit = 50
)

// MemoryUseCase orchestrates the durable record store and the in-memory
// vector index. Writes go to the store first and to the index second; the
// two are kept eventually consistent without a transaction, with Rebuild as
// the sole reconciliation path.
type MemoryUseCase struct {
	repo  interfaces.Repository
	index interfaces.VectorIndex
	now   func() time.Time
}

// NewMemoryUseCase creates a new MemoryUseCase instance
func NewMemoryUseCase(repo interfaces.Repository, index interfaces.VectorIndex) *MemoryUseCase {
	return &MemoryUseCase{
		repo:  repo,
		index: index,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// AddMemoryInput carries the fields of a new memory record. Embedding is
// produced by an external embedder; this layer never generates embeddings.
type AddMemoryInput struct {
	UserID         string
	AgentID        string
	Scope          types.Scope
	Payload        string
	Embedding      []float32
	EmbeddingModel string
}

// Add validates the input, persists the record, then makes it searchable.
// A crash between the two writes leaves a durable-but-unindexed record that
// the next Rebuild repairs, never an indexed-but-not-durable one.
//
// Note: scope=agent with an empty AgentID is accepted; such a record is
// reachable only by requests that also carry no agent id.
func (uc *MemoryUseCase) Add(ctx context.Context, input AddMemoryInput) (*model.Memory, error) {
	mem := &model.Memory{
		ID:             model.NewMemoryID(),
		UserID:         input.UserID,
		AgentID:        input.AgentID,
		Scope:          input.Scope,
		Payload:        input.Payload,
		Embedding:      input.Embedding,
		EmbeddingModel: input.EmbeddingModel,
		CreatedAt:      uc.now(),
	}

	if err := mem.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, err.Error())
	}

	if err := uc.repo.Memory().Insert(ctx, mem); err != nil {
		return nil, goerr.Wrap(err, "failed to persist memory", goerr.V("memoryID", mem.ID))
	}

	uc.index.Upsert(mem.ID, mem.Embedding)

	logging.From(ctx).Debug("memory added",
		"memory_id", mem.ID,
		"user_id", mem.UserID,
		"scope", mem.Scope,
		"dimension", len(mem.Embedding),
	)

	return mem, nil
}

// SearchMemoryInput carries a similarity search request. Limit of 0 means
// DefaultSearchLimit.
type SearchMemoryInput struct {
	UserID    string
	AgentID   string
	Embedding []float32
	Limit     int
}

// Search ranks candidates by vector similarity first and filters by scope
// second. Candidates filtered out are dropped rather than backfilled from
// the next rank, so fewer than Limit records may come back even when more
// matching records exist.
//
// Returned records never carry the stored embedding.
func (uc *MemoryUseCase) Search(ctx context.Context, input SearchMemoryInput) ([]*model.Memory, error) {
	if input.UserID == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "user_id is required")
	}
	if len(input.Embedding) == 0 {
		return nil, goerr.Wrap(ErrInvalidInput, "query embedding must not be empty")
	}

	limit := input.Limit
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, goerr.Wrap(ErrInvalidInput, "top_k out of range", goerr.V("top_k", input.Limit))
	}

	hits := uc.index.Search(input.Embedding, limit)
	if len(hits) == 0 {
		return []*model.Memory{}, nil
	}

	ids := make([]model.MemoryID, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}

	visible, err := uc.repo.Memory().FindVisible(ctx, input.UserID, input.AgentID, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch candidate memories", goerr.V("candidates", len(ids)))
	}

	byID := make(map[model.MemoryID]*model.Memory, len(visible))
	for _, mem := range visible {
		byID[mem.ID] = mem
	}

	// Restore similarity rank order over the fetched records.
	result := make([]*model.Memory, 0, len(visible))
	for _, hit := range hits {
		mem, ok := byID[hit.ID]
		if !ok {
			continue
		}
		mem.Embedding = nil
		result = append(result, mem)
	}

	logging.From(ctx).Debug("memory search",
		"user_id", input.UserID,
		"candidates", len(hits),
		"returned", len(result),
	)

	return result, nil
}

// Delete removes the record from the durable store (owner-checked) and then
// unconditionally from the index. Unknown ids succeed. The index delete runs
// even when the store delete fails; the index only has to stay a
// subset-modulo-rebuild of the store.
func (uc *MemoryUseCase) Delete(ctx context.Context, userID string, memoryID model.MemoryID) error {
	if userID == "" {
		return goerr.Wrap(ErrInvalidInput, "user_id is required")
	}
	if memoryID == "" {
		return goerr.Wrap(ErrInvalidInput, "memory_id is required")
	}

	storeErr := uc.repo.Memory().DeleteByOwner(ctx, userID, memoryID)

	uc.index.Delete(memoryID)

	if storeErr != nil {
		return goerr.Wrap(storeErr, "failed to delete memory", goerr.V("memoryID", memoryID))
	}

	logging.From(ctx).Debug("memory deleted", "memory_id", memoryID, "user_id", userID)
	return nil
}

// List returns all records of a user, newest first, without embeddings.
func (uc *MemoryUseCase) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	if userID == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "user_id is required")
	}

	memories, err := uc.repo.Memory().ListByUser(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V("userID", userID))
	}

	for _, mem := range memories {
		mem.Embedding = nil
	}

	return memories, nil
}

// Rebuild repopulates the vector index from the durable store. It is the
// only reconciliation mechanism between the two stores and runs once before
// the process accepts traffic, repairing divergence left by partial failures
// in Add or Delete across restarts.
func (uc *MemoryUseCase) Rebuild(ctx context.Context) error {
	uc.index.Clear()

	memories, err := uc.repo.Memory().ScanAll(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to scan memories for rebuild")
	}

	var indexed, skipped int
	for _, mem := range memories {
		if len(mem.Embedding) == 0 {
			skipped++
			continue
		}
		uc.index.Upsert(mem.ID, mem.Embedding)
		indexed++
	}

	logging.From(ctx).Info("vector index rebuilt",
		"indexed", indexed,
		"skipped", skipped,
	)

	return nil
}
