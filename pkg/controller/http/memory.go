package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
	"github.com/secmon-lab/mnemosyne/pkg/utils/errutil"
)

// memoryResponse is the wire representation of a memory record. The stored
// embedding is deliberately absent.
type memoryResponse struct {
	MemoryID       string `json:"memory_id"`
	Payload        string `json:"payload"`
	Scope          string `json:"scope"`
	AgentID        string `json:"agent_id,omitempty"`
	CreatedAt      string `json:"created_at"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

func toMemoryResponse(m *model.Memory) memoryResponse {
	return memoryResponse{
		MemoryID:       string(m.ID),
		Payload:        m.Payload,
		Scope:          m.Scope.String(),
		AgentID:        m.AgentID,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339Nano),
		EmbeddingModel: m.EmbeddingModel,
	}
}

func statusOf(err error) int {
	if errors.Is(err, usecase.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func addMemoryHandler(uc *usecase.UseCases) http.HandlerFunc {
	type request struct {
		UserID         string    `json:"user_id"`
		AgentID        string    `json:"agent_id"`
		Scope          string    `json:"scope"`
		Payload        string    `json:"payload"`
		Embedding      []float32 `json:"embedding"`
		EmbeddingModel string    `json:"embedding_model"`
	}
	type response struct {
		MemoryID string `json:"memory_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
			return
		}

		mem, err := uc.Memory.Add(ctx, usecase.AddMemoryInput{
			UserID:         req.UserID,
			AgentID:        req.AgentID,
			Scope:          types.Scope(req.Scope),
			Payload:        req.Payload,
			Embedding:      req.Embedding,
			EmbeddingModel: req.EmbeddingModel,
		})
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		writeJSON(w, response{MemoryID: string(mem.ID)})
	}
}

func searchMemoriesHandler(uc *usecase.UseCases) http.HandlerFunc {
	type request struct {
		UserID    string    `json:"user_id"`
		AgentID   string    `json:"agent_id"`
		Embedding []float32 `json:"embedding"`
		Limit     int       `json:"limit"`
	}
	type response struct {
		Memories []memoryResponse `json:"memories"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
			return
		}

		memories, err := uc.Memory.Search(ctx, usecase.SearchMemoryInput{
			UserID:    req.UserID,
			AgentID:   req.AgentID,
			Embedding: req.Embedding,
			Limit:     req.Limit,
		})
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		resp := response{Memories: make([]memoryResponse, len(memories))}
		for i, mem := range memories {
			resp.Memories[i] = toMemoryResponse(mem)
		}
		writeJSON(w, resp)
	}
}

func listMemoriesHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Memories []memoryResponse `json:"memories"`
		Count    int              `json:"count"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		memories, err := uc.Memory.List(ctx, r.URL.Query().Get("user_id"))
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		resp := response{Memories: make([]memoryResponse, len(memories)), Count: len(memories)}
		for i, mem := range memories {
			resp.Memories[i] = toMemoryResponse(mem)
		}
		writeJSON(w, resp)
	}
}

func deleteMemoryHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Deleted bool `json:"deleted"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		memoryID := model.MemoryID(chi.URLParam(r, "memoryID"))
		userID := r.URL.Query().Get("user_id")

		if err := uc.Memory.Delete(ctx, userID, memoryID); err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		writeJSON(w, response{Deleted: true})
	}
}
