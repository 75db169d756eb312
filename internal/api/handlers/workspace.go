package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/loretexai/internal/api"
	"github.com/cloo-solutions/loretexai/internal/api/middleware"
	"github.com/cloo-solutions/loretexai/internal/domain"
)

type EntryCounter interface {
	Counts(ctx context.Context, workspaceID string) (*domain.EntryCounts, error)
}

type WorkspaceHandler struct {
	auth    AuthService
	entries EntryCounter
}

func NewWorkspaceHandler(auth AuthService, entries EntryCounter) *WorkspaceHandler {
	return &WorkspaceHandler{auth: auth, entries: entries}
}

type EntryCountsResponse struct {
	Total     int64 `json:"total"`
	Documents int64 `json:"documents"`
	Chunks    int64 `json:"chunks"`
	Pinned    int64 `json:"pinned"`
}

type WorkspaceResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	CreatedAt string              `json:"created_at"`
	Entries   EntryCountsResponse `json:"entries"`
}

// Get returns the authenticated workspace along with its entry counts.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ws, err := h.auth.GetWorkspace(r.Context(), workspaceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	counts, err := h.entries.Counts(r.Context(), workspaceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, WorkspaceResponse{
		ID:        ws.ID,
		Name:      ws.Name,
		CreatedAt: ws.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Entries: EntryCountsResponse{
			Total:     counts.Total,
			Documents: counts.Documents,
			Chunks:    counts.Chunks,
			Pinned:    counts.Pinned,
		},
	})
}
