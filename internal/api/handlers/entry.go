package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/loretexai/internal/api"
	"github.com/cloo-solutions/loretexai/internal/api/middleware"
	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/service"
	"github.com/go-chi/chi/v5"
)

type EntryService interface {
	Create(ctx context.Context, input service.CreateEntryInput) (*domain.Entry, error)
	CreateBatch(ctx context.Context, workspaceID string, inputs []service.CreateEntryInput) ([]*domain.Entry, error)
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	GetWithChildren(ctx context.Context, id string) (*domain.Entry, []*domain.Entry, error)
	Update(ctx context.Context, input service.UpdateEntryInput) (*domain.Entry, error)
	SetPinned(ctx context.Context, id string, pinned bool) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, input service.ListEntriesInput) (*service.ListEntriesOutput, error)
}

type EntryHandler struct {
	svc EntryService
}

func NewEntryHandler(svc EntryService) *EntryHandler {
	return &EntryHandler{svc: svc}
}

type CreateEntryRequest struct {
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Pinned  bool     `json:"pinned"`
}

type CreateEntryBatchRequest struct {
	Entries []CreateEntryRequest `json:"entries"`
}

// UpdateEntryRequest uses pointers so PATCH can tell "leave unchanged" from
// "set to the zero value".
type UpdateEntryRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Summary *string   `json:"summary"`
	Tags    *[]string `json:"tags"`
	Pinned  *bool     `json:"pinned"`
	Enabled *bool     `json:"enabled"`
}

type EntryResponse struct {
	ID            string   `json:"id"`
	WorkspaceID   string   `json:"workspace_id"`
	Kind          string   `json:"kind"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Summary       string   `json:"summary,omitempty"`
	SummaryStatus string   `json:"summary_status,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Pinned        bool     `json:"pinned"`
	Enabled       bool     `json:"enabled"`
	ParentEntryID string   `json:"parent_entry_id,omitempty"`
	ChunkIndex    int32    `json:"chunk_index,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

type ChunkResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ChunkIndex    int32  `json:"chunk_index"`
	SummaryStatus string `json:"summary_status,omitempty"`
}

type EntryDetailResponse struct {
	EntryResponse
	Chunks []*ChunkResponse `json:"chunks,omitempty"`
}

type EntryListResponse struct {
	Items   []*EntryResponse `json:"items"`
	Cursor  string           `json:"cursor,omitempty"`
	HasMore bool             `json:"has_more"`
}

func entryToResponse(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID,
		WorkspaceID:   e.WorkspaceID,
		Kind:          string(e.Kind),
		Title:         e.Title,
		Content:       e.Content,
		Summary:       e.Summary,
		SummaryStatus: string(e.SummaryStatus),
		Tags:          e.Tags,
		Pinned:        e.Pinned,
		Enabled:       e.Enabled,
		ParentEntryID: e.ParentEntryID,
		ChunkIndex:    e.ChunkIndex,
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     e.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, errMsg := createInputFromRequest(workspaceID, req)
	if errMsg != "" {
		api.Error(w, http.StatusBadRequest, errMsg)
		return
	}

	entry, err := h.svc.Create(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, entryToResponse(entry))
}

func (h *EntryHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateEntryBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Entries) == 0 {
		api.Error(w, http.StatusBadRequest, "entries is required")
		return
	}

	inputs := make([]service.CreateEntryInput, 0, len(req.Entries))
	for _, item := range req.Entries {
		input, errMsg := createInputFromRequest(workspaceID, item)
		if errMsg != "" {
			api.Error(w, http.StatusBadRequest, errMsg)
			return
		}
		inputs = append(inputs, input)
	}

	entries, err := h.svc.CreateBatch(r.Context(), workspaceID, inputs)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = entryToResponse(e)
	}

	api.Success(w, http.StatusCreated, EntryListResponse{Items: responses})
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	entry, children, err := h.svc.GetWithChildren(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := EntryDetailResponse{EntryResponse: *entryToResponse(entry)}
	for _, child := range children {
		resp.Chunks = append(resp.Chunks, &ChunkResponse{
			ID:            child.ID,
			Title:         child.Title,
			ChunkIndex:    child.ChunkIndex,
			SummaryStatus: string(child.SummaryStatus),
		})
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contentPatch := req.Title != nil || req.Content != nil || req.Summary != nil || req.Tags != nil
	if !contentPatch && req.Pinned == nil && req.Enabled == nil {
		api.Error(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if contentPatch {
		current, err := h.svc.GetByID(r.Context(), id)
		if err != nil {
			api.HandleError(w, err)
			return
		}

		input := service.UpdateEntryInput{
			EntryID: id,
			Title:   current.Title,
			Content: current.Content,
			Summary: current.Summary,
			Tags:    current.Tags,
		}
		if req.Title != nil {
			input.Title = *req.Title
		}
		if req.Content != nil {
			input.Content = *req.Content
		}
		if req.Summary != nil {
			input.Summary = *req.Summary
		}
		if req.Tags != nil {
			input.Tags = *req.Tags
		}

		if input.Title == "" {
			api.Error(w, http.StatusBadRequest, "title is required")
			return
		}

		if _, err := h.svc.Update(r.Context(), input); err != nil {
			api.HandleError(w, err)
			return
		}
	}

	if req.Pinned != nil {
		if err := h.svc.SetPinned(r.Context(), id, *req.Pinned); err != nil {
			api.HandleError(w, err)
			return
		}
	}

	if req.Enabled != nil {
		if err := h.svc.SetEnabled(r.Context(), id, *req.Enabled); err != nil {
			api.HandleError(w, err)
			return
		}
	}

	entry, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, entryToResponse(entry))
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	if workspaceID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	input := service.ListEntriesInput{
		WorkspaceID: workspaceID,
		Cursor:      cursor,
		Limit:       limit,
	}

	output, err := h.svc.List(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*EntryResponse, len(output.Items))
	for i, e := range output.Items {
		responses[i] = entryToResponse(e)
	}

	api.Success(w, http.StatusOK, EntryListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

// createInputFromRequest validates one create request item. Image entries are
// excluded here: they exist only as the product of source ingestion, which
// links them to the stored object the description pipeline reads.
func createInputFromRequest(workspaceID string, req CreateEntryRequest) (service.CreateEntryInput, string) {
	if req.Title == "" {
		return service.CreateEntryInput{}, "title is required"
	}
	if req.Content == "" {
		return service.CreateEntryInput{}, "content is required"
	}

	kind := domain.EntryKindText
	if req.Kind != "" {
		kind = domain.EntryKind(req.Kind)
	}
	switch kind {
	case domain.EntryKindText, domain.EntryKindDocument:
	case domain.EntryKindImage:
		return service.CreateEntryInput{}, "image entries are created by uploading a source file"
	default:
		return service.CreateEntryInput{}, "invalid entry kind"
	}

	return service.CreateEntryInput{
		WorkspaceID: workspaceID,
		Kind:        kind,
		Title:       req.Title,
		Content:     req.Content,
		Summary:     req.Summary,
		Tags:        req.Tags,
		Pinned:      req.Pinned,
	}, ""
}
