package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/loretexai/internal/api"
	"github.com/cloo-solutions/loretexai/internal/api/middleware"
	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/service"
	"github.com/go-chi/chi/v5"
)

type SourceService interface {
	InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error)
	CompleteUpload(ctx context.Context, sourceID string) (*domain.Source, error)
	GetByID(ctx context.Context, sourceID string) (*domain.Source, error)
	List(ctx context.Context, workspaceID string) ([]*domain.Source, error)
	GetDownloadURL(ctx context.Context, sourceID string) (string, error)
	Delete(ctx context.Context, sourceID string) error
}

type SourceHandler struct {
	svc SourceService
}

func NewSourceHandler(svc SourceService) *SourceHandler {
	return &SourceHandler{svc: svc}
}

type InitUploadRequest struct {
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

type SourceResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
	Status    string `json:"status"`
	EntryID   string `json:"entry_id,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type InitUploadResponse struct {
	Source    *SourceResponse `json:"source"`
	UploadURL string          `json:"upload_url"`
}

type SourceListResponse struct {
	Items []*SourceResponse `json:"items"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

func sourceToResponse(s *domain.Source) *SourceResponse {
	return &SourceResponse{
		ID:        s.ID,
		Filename:  s.Filename,
		MimeType:  s.MimeType,
		SHA256:    s.SHA256,
		SizeBytes: s.SizeBytes,
		Status:    string(s.Status),
		EntryID:   s.EntryID,
		Error:     s.Error,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: s.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *SourceHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req InitUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}
	if req.MimeType == "" {
		api.Error(w, http.StatusBadRequest, "mime_type is required")
		return
	}
	if req.SHA256 == "" {
		api.Error(w, http.StatusBadRequest, "sha256 is required")
		return
	}

	input := service.InitUploadInput{
		WorkspaceID: workspaceID,
		Filename:    req.Filename,
		ContentType: req.MimeType,
		SizeBytes:   req.SizeBytes,
		SHA256:      req.SHA256,
	}

	result, err := h.svc.InitUpload(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, InitUploadResponse{
		Source:    sourceToResponse(result.Source),
		UploadURL: result.UploadURL,
	})
}

func (h *SourceHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	source, err := h.svc.CompleteUpload(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, sourceToResponse(source))
}

func (h *SourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	source, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, sourceToResponse(source))
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sources, err := h.svc.List(r.Context(), workspaceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*SourceResponse, len(sources))
	for i, s := range sources {
		items[i] = sourceToResponse(s)
	}

	api.Success(w, http.StatusOK, SourceListResponse{Items: items})
}

func (h *SourceHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	downloadURL, err := h.svc.GetDownloadURL(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DownloadURLResponse{DownloadURL: downloadURL})
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
