package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/loretexai/internal/api"
	"github.com/cloo-solutions/loretexai/internal/api/middleware"
	"github.com/cloo-solutions/loretexai/internal/domain"
)

type AuthService interface {
	GetWorkspace(ctx context.Context, workspaceID string) (*domain.Workspace, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type WhoamiResponse struct {
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
}

// Whoami reports which workspace the presented API key belongs to.
func (h *AuthHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ws, err := h.svc.GetWorkspace(r.Context(), workspaceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, WhoamiResponse{
		WorkspaceID:   ws.ID,
		WorkspaceName: ws.Name,
	})
}
