package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// EmbeddingDimension is the dimension requested from the bundled Gemini
// embedder (text-embedding-004). It is not a storage constraint: the store
// and the vector index accept embeddings of any per-record dimension.
const EmbeddingDimension = 768

// MemoryID is a UUID-based identifier for Memory
type MemoryID string

// NewMemoryID generates a new UUID v4 MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// String returns the string representation of MemoryID
func (id MemoryID) String() string {
	return string(id)
}

// Memory represents a durable memory record deposited by an agent.
// Payload is an opaque blob (possibly ciphertext) and is never interpreted;
// Embedding is the similarity-search projection of the payload, produced by
// an external embedder and identified by EmbeddingModel.
type Memory struct {
	ID             MemoryID
	UserID         string      // Owning user; required
	AgentID        string      // Creating/authorized agent; may be empty
	Scope          types.Scope // Visibility: global or agent
	Payload        string
	Embedding      []float32
	EmbeddingModel string // Provenance tag, not validated
	CreatedAt      time.Time
}

// Validate checks required fields for a new memory record.
// Records are immutable after creation, so this runs only on Add.
func (m *Memory) Validate() error {
	if m.UserID == "" {
		return goerr.New("user_id is required")
	}
	if err := m.Scope.Validate(); err != nil {
		return err
	}
	if len(m.Embedding) == 0 {
		return goerr.New("embedding must not be empty")
	}
	return nil
}

// VisibleTo reports whether the record may be returned to a requester
// identified by agentID. Global memories are visible to any agent of the
// owning user; agent-scoped memories only to the matching agent. A record
// with scope=agent and no AgentID is reachable only by a requester that
// also supplies no agent id.
func (m *Memory) VisibleTo(agentID string) bool {
	if m.Scope == types.ScopeGlobal {
		return true
	}
	return m.AgentID == agentID
}
