//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/pagination"
	"github.com/cloo-solutions/loretexai/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createWorkspaceForTest(ctx context.Context, t *testing.T, repo *WorkspaceRepository) *domain.Workspace {
	t.Helper()
	ws := &domain.Workspace{
		ID:        uuid.NewString(),
		Name:      "ws-" + uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, ws))
	return ws
}

func TestEntryRepository_Create(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	e := &domain.Entry{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		Kind:        domain.EntryKindText,
		Title:       "Deploy Checklist",
		Content:     "Run migrations before rolling pods.",
		Summary:     "Deployment order notes",
		Tags:        []string{"ops", "deploy"},
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := entryRepo.Create(ctx, e)
	require.NoError(t, err)

	retrieved, err := entryRepo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, retrieved.ID)
	assert.Equal(t, e.WorkspaceID, retrieved.WorkspaceID)
	assert.Equal(t, e.Kind, retrieved.Kind)
	assert.Equal(t, e.Title, retrieved.Title)
	assert.Equal(t, e.Content, retrieved.Content)
	assert.Equal(t, e.Summary, retrieved.Summary)
	assert.Equal(t, e.Tags, retrieved.Tags)
	assert.False(t, retrieved.Pinned)
	assert.True(t, retrieved.Enabled)
	assert.Empty(t, retrieved.ParentEntryID)
}

func TestEntryRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	entryRepo := NewEntryRepository(pool)

	_, err := entryRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryRepository_ListEnabledByWorkspace(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	base := time.Now().UTC().Truncate(time.Microsecond)
	first := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindText,
		Title: "First", Content: "a", Tags: []string{}, Enabled: true,
		CreatedAt: base, UpdatedAt: base,
	}
	second := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindText,
		Title: "Second", Content: "b", Tags: []string{}, Enabled: true,
		CreatedAt: base.Add(time.Second), UpdatedAt: base.Add(time.Second),
	}
	disabled := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindText,
		Title: "Disabled", Content: "c", Tags: []string{}, Enabled: false,
		CreatedAt: base.Add(2 * time.Second), UpdatedAt: base.Add(2 * time.Second),
	}

	require.NoError(t, entryRepo.Create(ctx, first))
	require.NoError(t, entryRepo.Create(ctx, second))
	require.NoError(t, entryRepo.Create(ctx, disabled))

	entries, err := entryRepo.ListEnabledByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Insertion order, disabled entries excluded.
	assert.Equal(t, "First", entries[0].Title)
	assert.Equal(t, "Second", entries[1].Title)
}

func TestEntryRepository_ListChildren(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	parent := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindDocument,
		Title: "Handbook", Content: "full text", Tags: []string{}, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, parent))

	for i := 2; i >= 0; i-- {
		chunk := &domain.Entry{
			ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindDocument,
			Title: fmt.Sprintf("Handbook (Part %d)", i+1), Content: "part text",
			Tags: []string{}, ParentEntryID: parent.ID, ChunkIndex: int32(i), Enabled: true,
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, entryRepo.Create(ctx, chunk))
	}

	children, err := entryRepo.ListChildren(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)

	// Ordered by chunk index regardless of insertion order.
	for i, child := range children {
		assert.Equal(t, int32(i), child.ChunkIndex)
		assert.Equal(t, parent.ID, child.ParentEntryID)
	}
}

func TestEntryRepository_ListByWorkspaceWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		e := &domain.Entry{
			ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindText,
			Title: "Entry", Content: "body", Tags: []string{}, Enabled: true,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, entryRepo.Create(ctx, e))
	}

	page1, err := entryRepo.ListByWorkspaceWithCursor(ctx, ws.ID, nil, 3)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 3)
	assert.True(t, page1.HasMore)
	require.NotEmpty(t, page1.NextCursor)

	cursor, err := pagination.DecodeCursor(page1.NextCursor)
	require.NoError(t, err)

	page2, err := entryRepo.ListByWorkspaceWithCursor(ctx, ws.ID, cursor, 3)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)
	assert.False(t, page2.HasMore)
	assert.Empty(t, page2.NextCursor)

	// Newest first across both pages.
	all := append(page1.Items, page2.Items...)
	for i := 1; i < len(all); i++ {
		assert.True(t, !all[i].UpdatedAt.After(all[i-1].UpdatedAt))
	}
}

func TestEntryRepository_CountByWorkspace(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	parent := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindDocument,
		Title: "Doc", Content: "text", Tags: []string{}, Pinned: true, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, parent))

	chunk := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindDocument,
		Title: "Doc (Part 1)", Content: "part", Tags: []string{},
		ParentEntryID: parent.ID, ChunkIndex: 0, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, chunk))

	note := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindText,
		Title: "Note", Content: "text", Tags: []string{}, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, note))

	counts, err := entryRepo.CountByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Total)
	assert.Equal(t, int64(2), counts.Documents)
	assert.Equal(t, int64(1), counts.Chunks)
	assert.Equal(t, int64(1), counts.Pinned)
}

func TestEntryRepository_Update(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	e := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindText,
		Title: "Original", Content: "old", Tags: []string{"a"}, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, e))

	e.Title = "Updated"
	e.Content = "new"
	e.Tags = []string{"a", "b"}
	require.NoError(t, entryRepo.Update(ctx, e))

	retrieved, err := entryRepo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", retrieved.Title)
	assert.Equal(t, "new", retrieved.Content)
	assert.Equal(t, []string{"a", "b"}, retrieved.Tags)
	assert.True(t, retrieved.UpdatedAt.After(now))
}

func TestEntryRepository_UpdateSummary(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	e := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindText,
		Title: "Note", Content: "text", SummaryStatus: domain.SummaryStatusPending,
		Tags: []string{}, Enabled: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, e))

	err := entryRepo.UpdateSummary(ctx, e.ID, "a short summary", domain.SummaryStatusReady)
	require.NoError(t, err)

	retrieved, err := entryRepo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "a short summary", retrieved.Summary)
	assert.Equal(t, domain.SummaryStatusReady, retrieved.SummaryStatus)
}

func TestEntryRepository_SetPinnedAndEnabled(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	e := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindText,
		Title: "Note", Content: "text", Tags: []string{}, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, e))

	require.NoError(t, entryRepo.SetPinned(ctx, e.ID, true))
	require.NoError(t, entryRepo.SetEnabled(ctx, e.ID, false))

	retrieved, err := entryRepo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.Pinned)
	assert.False(t, retrieved.Enabled)

	assert.ErrorIs(t, entryRepo.SetPinned(ctx, uuid.NewString(), true), domain.ErrEntryNotFound)
	assert.ErrorIs(t, entryRepo.SetEnabled(ctx, uuid.NewString(), true), domain.ErrEntryNotFound)
}

func TestEntryRepository_Delete_CascadesChildren(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	parent := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindDocument,
		Title: "Doc", Content: "text", Tags: []string{}, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, parent))

	chunk := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindDocument,
		Title: "Doc (Part 1)", Content: "part", Tags: []string{},
		ParentEntryID: parent.ID, ChunkIndex: 0, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, chunk))

	require.NoError(t, entryRepo.Delete(ctx, parent.ID))

	_, err := entryRepo.GetByID(ctx, parent.ID)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	_, err = entryRepo.GetByID(ctx, chunk.ID)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryRepository_DeleteChildren(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	entryRepo := NewEntryRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	now := time.Now().UTC().Truncate(time.Microsecond)
	parent := &domain.Entry{
		ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindDocument,
		Title: "Doc", Content: "text", Tags: []string{}, Enabled: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, entryRepo.Create(ctx, parent))

	for i := 0; i < 2; i++ {
		chunk := &domain.Entry{
			ID: uuid.NewString(), WorkspaceID: ws.ID, Kind: domain.EntryKindDocument,
			Title: fmt.Sprintf("Doc (Part %d)", i+1), Content: "part", Tags: []string{},
			ParentEntryID: parent.ID, ChunkIndex: int32(i), Enabled: true,
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, entryRepo.Create(ctx, chunk))
	}

	require.NoError(t, entryRepo.DeleteChildren(ctx, parent.ID))

	children, err := entryRepo.ListChildren(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, children)

	// Parent survives.
	_, err = entryRepo.GetByID(ctx, parent.ID)
	require.NoError(t, err)
}

func TestEntryRepository_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	entryRepo := NewEntryRepository(pool)

	err := entryRepo.Delete(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}
