package core

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/mnemosyne/pkg/agent/tool"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
)

// embeddingModelTag is recorded as provenance on records created through the
// tool surface. The core store never validates it.
const embeddingModelTag = "text-embedding-004"

// addMemoryTool deposits a new memory with an auto-generated embedding
type addMemoryTool struct {
	uc        *usecase.UseCases
	userID    string
	agentID   string
	llmClient gollem.LLMClient
}

func (t *addMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__add",
		Description: "Store a fact or observation as a memory so it can be recalled in later sessions. An embedding is automatically generated from the payload for similarity search.",
		Parameters: map[string]*gollem.Parameter{
			"payload": {
				Type:        gollem.TypeString,
				Description: "The fact, observation, or note to remember",
				Required:    true,
			},
			"scope": {
				Type:        gollem.TypeString,
				Description: "Visibility of the memory: 'global' (any agent of this user) or 'agent' (only this agent). Default: global",
				Required:    false,
			},
		},
	}
}

func (t *addMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	payload, _ := args["payload"].(string)
	if payload == "" {
		return nil, fmt.Errorf("payload is required")
	}

	scope := types.ScopeGlobal
	if s, _ := args["scope"].(string); s != "" {
		scope = types.Scope(s)
	}

	tool.Notify(ctx, "Storing memory...")

	embedding, err := generateEmbedding(ctx, t.llmClient, payload)
	if err != nil {
		return nil, err
	}

	mem, err := t.uc.Memory.Add(ctx, usecase.AddMemoryInput{
		UserID:         t.userID,
		AgentID:        t.agentID,
		Scope:          scope,
		Payload:        payload,
		Embedding:      embedding,
		EmbeddingModel: embeddingModelTag,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to add memory",
			goerr.V("userID", t.userID),
			goerr.V("agentID", t.agentID),
		)
	}

	return map[string]any{
		"memory_id": string(mem.ID),
		"scope":     mem.Scope.String(),
	}, nil
}

// searchMemoryTool recalls memories by semantic similarity
type searchMemoryTool struct {
	uc        *usecase.UseCases
	userID    string
	agentID   string
	llmClient gollem.LLMClient
}

func (t *searchMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__search",
		Description: "Search stored memories by semantic (vector) similarity for the given query. Returns only memories visible to this agent.",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "Search query text",
				Required:    true,
			},
			"limit": {
				Type:        gollem.TypeInteger,
				Description: "Maximum number of results to return, 1-50 (default: 5)",
				Required:    false,
			},
		},
	}
}

func (t *searchMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	tool.Notify(ctx, fmt.Sprintf("Searching memories: %s", query))

	limit := 0
	if v, err := extractInt64(args, "limit"); err == nil && v > 0 {
		limit = int(v)
	}

	embedding, err := generateEmbedding(ctx, t.llmClient, query)
	if err != nil {
		return nil, err
	}

	results, err := t.uc.Memory.Search(ctx, usecase.SearchMemoryInput{
		UserID:    t.userID,
		AgentID:   t.agentID,
		Embedding: embedding,
		Limit:     limit,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories",
			goerr.V("userID", t.userID),
			goerr.V("agentID", t.agentID),
		)
	}

	return map[string]any{"memories": memoriesToItems(results)}, nil
}

// deleteMemoryTool removes a memory by ID
type deleteMemoryTool struct {
	uc     *usecase.UseCases
	userID string
}

func (t *deleteMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__delete",
		Description: "Delete a memory by its ID. Deleting an unknown ID succeeds. Use this to remove outdated or irrelevant memories.",
		Parameters: map[string]*gollem.Parameter{
			"memory_id": {
				Type:        gollem.TypeString,
				Description: "The ID of the memory to delete",
				Required:    true,
			},
		},
	}
}

func (t *deleteMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	memoryID, _ := args["memory_id"].(string)
	if memoryID == "" {
		return nil, fmt.Errorf("memory_id is required")
	}

	tool.Notify(ctx, fmt.Sprintf("Deleting memory %s...", memoryID))

	if err := t.uc.Memory.Delete(ctx, t.userID, model.MemoryID(memoryID)); err != nil {
		return nil, goerr.Wrap(err, "failed to delete memory",
			goerr.V("memoryID", memoryID),
		)
	}

	return map[string]any{"deleted": true}, nil
}

// listMemoriesTool lists all memories of the current user
type listMemoriesTool struct {
	uc     *usecase.UseCases
	userID string
}

func (t *listMemoriesTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__list",
		Description: "List all memories of the current user, sorted by creation date (newest first)",
		Parameters:  map[string]*gollem.Parameter{},
	}
}

func (t *listMemoriesTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	tool.Notify(ctx, "Listing memories...")

	memories, err := t.uc.Memory.List(ctx, t.userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories",
			goerr.V("userID", t.userID),
		)
	}

	return map[string]any{"memories": memoriesToItems(memories), "count": len(memories)}, nil
}

// memoriesToItems renders records for a tool response with the same fields
// as the HTTP surface.
func memoriesToItems(memories []*model.Memory) []map[string]any {
	items := make([]map[string]any, len(memories))
	for i, m := range memories {
		items[i] = map[string]any{
			"memory_id":       string(m.ID),
			"payload":         m.Payload,
			"scope":           m.Scope.String(),
			"agent_id":        m.AgentID,
			"created_at":      m.CreatedAt.Format(time.RFC3339Nano),
			"embedding_model": m.EmbeddingModel,
		}
	}
	return items
}

// generateEmbedding generates a float32 embedding from text
func generateEmbedding(ctx context.Context, llmClient gollem.LLMClient, text string) ([]float32, error) {
	embeddings, err := llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding generation returned empty result")
	}

	embedding64 := embeddings[0]
	embedding32 := make([]float32, len(embedding64))
	for i, v := range embedding64 {
		embedding32[i] = float32(v)
	}
	return embedding32, nil
}

// extractInt64 extracts an int64 value from args map, accepting int, int64, or float64
func extractInt64(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}
