package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cloo-solutions/loretexai/internal/api"
	"github.com/cloo-solutions/loretexai/internal/api/middleware"
	"github.com/cloo-solutions/loretexai/internal/service"
)

type AssembleService interface {
	Assemble(ctx context.Context, input service.AssembleInput) (*service.AssembleOutput, error)
}

type ContextHandler struct {
	svc AssembleService
}

func NewContextHandler(svc AssembleService) *ContextHandler {
	return &ContextHandler{svc: svc}
}

// AssembleRequest carries the optional knobs for context assembly. An empty
// query ranks entries without relevance scoring; an empty or unknown
// generation type falls back to the default budget.
type AssembleRequest struct {
	Query          string `json:"query,omitempty"`
	GenerationType string `json:"generation_type,omitempty"`
}

type AssembleResponse struct {
	Context         string `json:"context"`
	EntryCount      int    `json:"entry_count"`
	CharCount       int    `json:"char_count"`
	EstimatedTokens int    `json:"estimated_tokens"`
	BudgetChars     int    `json:"budget_chars"`
}

// Assemble builds the workspace knowledge bank block for an LLM call.
func (h *ContextHandler) Assemble(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// All fields are optional, so a bare POST without a body is fine.
	var req AssembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := h.svc.Assemble(r.Context(), service.AssembleInput{
		WorkspaceID:    workspaceID,
		Query:          req.Query,
		GenerationType: service.GenerationType(req.GenerationType),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AssembleResponse{
		Context:         output.Context,
		EntryCount:      output.EntryCount,
		CharCount:       output.CharCount,
		EstimatedTokens: output.TokenEstimate,
		BudgetChars:     output.BudgetChars,
	})
}
