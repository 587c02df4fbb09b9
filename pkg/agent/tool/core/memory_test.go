package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/agent/tool"
	"github.com/secmon-lab/mnemosyne/pkg/agent/tool/core"
	"github.com/secmon-lab/mnemosyne/pkg/repository/memory"
	"github.com/secmon-lab/mnemosyne/pkg/service/vectorindex"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
)

// newCtxWithNotifyCapture returns a context that captures all progress messages
// and a pointer to the slice where they are appended.
func newCtxWithNotifyCapture() (context.Context, *[]string) {
	var messages []string
	ctx := tool.WithNotify(context.Background(), func(_ context.Context, msg string) {
		messages = append(messages, msg)
	})
	return ctx, &messages
}

// ----- mock LLM client -----

type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (m *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (m *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if m.generateEmbeddingFn != nil {
		return m.generateEmbeddingFn(ctx, dimension, input)
	}
	vec := make([]float64, dimension)
	for i := range vec {
		vec[i] = 0.1
	}
	return [][]float64{vec}, nil
}

func findTool(t *testing.T, tools []gollem.Tool, name string) gollem.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Spec().Name == name {
			return tl
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func newToolset(userID, agentID string) []gollem.Tool {
	uc := usecase.New(memory.New(), vectorindex.New())
	return core.New(uc, userID, agentID, &mockLLMClient{})
}

func TestAddMemoryTool(t *testing.T) {
	t.Run("stores payload and returns memory_id", func(t *testing.T) {
		tools := newToolset("u1", "agent-a")
		add := findTool(t, tools, "memory__add")
		ctx, messages := newCtxWithNotifyCapture()

		result, err := add.Run(ctx, map[string]any{"payload": "the deploy window is Friday"})
		gt.NoError(t, err).Required()
		gt.Value(t, result["memory_id"]).NotEqual("")
		gt.Value(t, result["scope"]).Equal("global")
		gt.Array(t, *messages).Length(1)

		list := findTool(t, tools, "memory__list")
		listed, err := list.Run(ctx, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, listed["count"]).Equal(1)
	})

	t.Run("missing payload fails", func(t *testing.T) {
		tools := newToolset("u1", "agent-a")
		add := findTool(t, tools, "memory__add")

		_, err := add.Run(context.Background(), map[string]any{})
		gt.Error(t, err)
	})

	t.Run("invalid scope fails", func(t *testing.T) {
		tools := newToolset("u1", "agent-a")
		add := findTool(t, tools, "memory__add")

		_, err := add.Run(context.Background(), map[string]any{
			"payload": "fact",
			"scope":   "team",
		})
		gt.Error(t, err)
	})
}

func TestSearchMemoryTool(t *testing.T) {
	t.Run("recalls stored memory", func(t *testing.T) {
		tools := newToolset("u1", "agent-a")
		add := findTool(t, tools, "memory__add")
		search := findTool(t, tools, "memory__search")
		ctx := context.Background()

		_, err := add.Run(ctx, map[string]any{"payload": "Jack lives in London"})
		gt.NoError(t, err).Required()

		result, err := search.Run(ctx, map[string]any{"query": "where does Jack live", "limit": 3})
		gt.NoError(t, err).Required()

		items := result["memories"].([]map[string]any)
		gt.Array(t, items).Length(1)
		gt.Value(t, items[0]["payload"]).Equal("Jack lives in London")
	})

	t.Run("result items carry the full record fields", func(t *testing.T) {
		tools := newToolset("u1", "agent-a")
		ctx := context.Background()

		_, err := findTool(t, tools, "memory__add").Run(ctx, map[string]any{
			"payload": "the deploy window is Friday",
			"scope":   "agent",
		})
		gt.NoError(t, err).Required()

		result, err := findTool(t, tools, "memory__search").Run(ctx, map[string]any{"query": "deploy window"})
		gt.NoError(t, err).Required()

		items := result["memories"].([]map[string]any)
		gt.Array(t, items).Length(1)
		gt.Value(t, items[0]["agent_id"]).Equal("agent-a")
		gt.Value(t, items[0]["embedding_model"]).Equal("text-embedding-004")

		createdAt, ok := items[0]["created_at"].(string)
		gt.Bool(t, ok).True()
		_, err = time.Parse(time.RFC3339Nano, createdAt)
		gt.NoError(t, err)
	})

	t.Run("agent scope hides from other agents", func(t *testing.T) {
		uc := usecase.New(memory.New(), vectorindex.New())
		llm := &mockLLMClient{}
		agentA := core.New(uc, "u1", "agent-a", llm)
		agentB := core.New(uc, "u1", "agent-b", llm)
		ctx := context.Background()

		_, err := findTool(t, agentA, "memory__add").Run(ctx, map[string]any{
			"payload": "my private note",
			"scope":   "agent",
		})
		gt.NoError(t, err).Required()

		result, err := findTool(t, agentA, "memory__search").Run(ctx, map[string]any{"query": "note"})
		gt.NoError(t, err).Required()
		gt.Array(t, result["memories"].([]map[string]any)).Length(1)

		result, err = findTool(t, agentB, "memory__search").Run(ctx, map[string]any{"query": "note"})
		gt.NoError(t, err).Required()
		gt.Array(t, result["memories"].([]map[string]any)).Length(0)
	})

	t.Run("missing query fails", func(t *testing.T) {
		tools := newToolset("u1", "")
		search := findTool(t, tools, "memory__search")

		_, err := search.Run(context.Background(), map[string]any{})
		gt.Error(t, err)
	})
}

func TestDeleteMemoryTool(t *testing.T) {
	t.Run("deletes by id and is idempotent", func(t *testing.T) {
		tools := newToolset("u1", "")
		add := findTool(t, tools, "memory__add")
		del := findTool(t, tools, "memory__delete")
		list := findTool(t, tools, "memory__list")
		ctx := context.Background()

		created, err := add.Run(ctx, map[string]any{"payload": "temp"})
		gt.NoError(t, err).Required()
		memoryID := created["memory_id"].(string)

		result, err := del.Run(ctx, map[string]any{"memory_id": memoryID})
		gt.NoError(t, err).Required()
		gt.Value(t, result["deleted"]).Equal(true)

		// Second delete of the same id also succeeds.
		result, err = del.Run(ctx, map[string]any{"memory_id": memoryID})
		gt.NoError(t, err).Required()
		gt.Value(t, result["deleted"]).Equal(true)

		listed, err := list.Run(ctx, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, listed["count"]).Equal(0)
	})

	t.Run("missing memory_id fails", func(t *testing.T) {
		tools := newToolset("u1", "")
		del := findTool(t, tools, "memory__delete")

		_, err := del.Run(context.Background(), map[string]any{})
		gt.Error(t, err)
	})
}
