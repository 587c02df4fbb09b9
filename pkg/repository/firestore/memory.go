package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"google.golang.org/api/iterator"
)

const memoryCollection = "memories"

// memoryDoc is the Firestore document representation of model.Memory.
// Embedding is stored as firestore.Vector32; its dimension is per-record.
type memoryDoc struct {
	ID             model.MemoryID     `firestore:"ID"`
	UserID         string             `firestore:"UserID"`
	AgentID        string             `firestore:"AgentID,omitempty"`
	Scope          string             `firestore:"Scope"`
	Payload        string             `firestore:"Payload"`
	Embedding      firestore.Vector32 `firestore:"Embedding,omitempty"`
	EmbeddingModel string             `firestore:"EmbeddingModel,omitempty"`
	CreatedAt      time.Time          `firestore:"CreatedAt"`
}

func toMemoryDoc(m *model.Memory) *memoryDoc {
	doc := &memoryDoc{
		ID:             m.ID,
		UserID:         m.UserID,
		AgentID:        m.AgentID,
		Scope:          m.Scope.String(),
		Payload:        m.Payload,
		EmbeddingModel: m.EmbeddingModel,
		CreatedAt:      m.CreatedAt,
	}
	if len(m.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(m.Embedding)
	}
	return doc
}

func fromMemoryDoc(d *memoryDoc) *model.Memory {
	m := &model.Memory{
		ID:             d.ID,
		UserID:         d.UserID,
		AgentID:        d.AgentID,
		Scope:          types.Scope(d.Scope),
		Payload:        d.Payload,
		EmbeddingModel: d.EmbeddingModel,
		CreatedAt:      d.CreatedAt,
	}
	if len(d.Embedding) > 0 {
		m.Embedding = []float32(d.Embedding)
	}
	return m
}

type memoryRepository struct {
	client *firestore.Client
}

func newMemoryRepository(client *firestore.Client) *memoryRepository {
	return &memoryRepository{client: client}
}

func (r *memoryRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(memoryCollection)
}

func (r *memoryRepository) Insert(ctx context.Context, mem *model.Memory) error {
	docRef := r.collection().Doc(string(mem.ID))
	if _, err := docRef.Set(ctx, toMemoryDoc(mem)); err != nil {
		return goerr.Wrap(err, "failed to insert memory", goerr.V("memoryID", mem.ID))
	}
	return nil
}

// DeleteByOwner deletes the record only when userID matches the stored owner.
// A missing document or an owner mismatch is a silent no-op.
func (r *memoryRepository) DeleteByOwner(ctx context.Context, userID string, memoryID model.MemoryID) error {
	docRef := r.collection().Doc(string(memoryID))

	doc, err := docRef.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return goerr.Wrap(err, "failed to get memory", goerr.V("memoryID", memoryID))
	}

	var d memoryDoc
	if err := doc.DataTo(&d); err != nil {
		return goerr.Wrap(err, "failed to unmarshal memory", goerr.V("memoryID", memoryID))
	}
	if d.UserID != userID {
		return nil
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("memoryID", memoryID))
	}

	return nil
}

// FindVisible multi-gets the candidate documents and filters by owner and
// scope on the client side. Missing candidates are skipped.
func (r *memoryRepository) FindVisible(ctx context.Context, userID, agentID string, ids []model.MemoryID) ([]*model.Memory, error) {
	if len(ids) == 0 {
		return []*model.Memory{}, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.collection().Doc(string(id))
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to multi-get memories", goerr.V("count", len(ids)))
	}

	memories := make([]*model.Memory, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory", goerr.V("docID", doc.Ref.ID))
		}

		m := fromMemoryDoc(&d)
		if m.UserID != userID || !m.VisibleTo(agentID) {
			continue
		}
		memories = append(memories, m)
	}

	return memories, nil
}

func (r *memoryRepository) ListByUser(ctx context.Context, userID string) ([]*model.Memory, error) {
	iter := r.collection().
		Where("UserID", "==", userID).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	memories := make([]*model.Memory, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories", goerr.V("userID", userID))
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory")
		}

		memories = append(memories, fromMemoryDoc(&d))
	}

	return memories, nil
}

// ScanAll reads the entire collection. Index rebuild only.
func (r *memoryRepository) ScanAll(ctx context.Context) ([]*model.Memory, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	memories := make([]*model.Memory, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan memories")
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory")
		}

		memories = append(memories, fromMemoryDoc(&d))
	}

	return memories, nil
}
