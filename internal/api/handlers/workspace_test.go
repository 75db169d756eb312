package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEntryCounter struct {
	mock.Mock
}

func (m *MockEntryCounter) Counts(ctx context.Context, workspaceID string) (*domain.EntryCounts, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EntryCounts), args.Error(1)
}

func TestWorkspaceHandler_Get_Success(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockCounter := new(MockEntryCounter)
	handler := NewWorkspaceHandler(mockAuth, mockCounter)

	createdAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	mockAuth.On("GetWorkspace", mock.Anything, "ws-456").Return(&domain.Workspace{
		ID:        "ws-456",
		Name:      "Acme Docs",
		CreatedAt: createdAt,
	}, nil)
	mockCounter.On("Counts", mock.Anything, "ws-456").Return(&domain.EntryCounts{
		Total:     12,
		Documents: 5,
		Chunks:    7,
		Pinned:    2,
	}, nil)

	req := requestWithWorkspaceID(http.MethodGet, "/v1/workspace", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ws-456", data["id"])
	assert.Equal(t, "Acme Docs", data["name"])
	assert.Equal(t, "2025-03-14T09:30:00Z", data["created_at"])
	entries := data["entries"].(map[string]interface{})
	assert.Equal(t, float64(12), entries["total"])
	assert.Equal(t, float64(5), entries["documents"])
	assert.Equal(t, float64(7), entries["chunks"])
	assert.Equal(t, float64(2), entries["pinned"])
	mockAuth.AssertExpectations(t)
	mockCounter.AssertExpectations(t)
}

func TestWorkspaceHandler_Get_Unauthorized(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockCounter := new(MockEntryCounter)
	handler := NewWorkspaceHandler(mockAuth, mockCounter)

	req := httptest.NewRequest(http.MethodGet, "/v1/workspace", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockAuth.AssertNotCalled(t, "GetWorkspace", mock.Anything, mock.Anything)
}

func TestWorkspaceHandler_Get_CountsError(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockCounter := new(MockEntryCounter)
	handler := NewWorkspaceHandler(mockAuth, mockCounter)

	mockAuth.On("GetWorkspace", mock.Anything, "ws-456").Return(&domain.Workspace{
		ID:   "ws-456",
		Name: "Acme Docs",
	}, nil)
	mockCounter.On("Counts", mock.Anything, "ws-456").Return(nil, assert.AnError)

	req := requestWithWorkspaceID(http.MethodGet, "/v1/workspace", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockAuth.AssertExpectations(t)
	mockCounter.AssertExpectations(t)
}
