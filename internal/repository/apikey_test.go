//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/pagination"
	"github.com/cloo-solutions/loretexai/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_Create(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	key := &domain.APIKey{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		Name:        "Test Key",
		KeyHash:     "hashed_key_value",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	err := keyRepo.Create(ctx, key)
	require.NoError(t, err)

	retrieved, err := keyRepo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	assert.Equal(t, key.ID, retrieved.ID)
	assert.Equal(t, key.WorkspaceID, retrieved.WorkspaceID)
	assert.Equal(t, key.Name, retrieved.Name)
	assert.Equal(t, key.KeyHash, retrieved.KeyHash)
	assert.Nil(t, retrieved.LastUsedAt)
	assert.Nil(t, retrieved.RevokedAt)
}

func TestAPIKeyRepository_Create_ForeignKeyViolation(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	keyRepo := NewAPIKeyRepository(pool)

	key := &domain.APIKey{
		ID:          uuid.NewString(),
		WorkspaceID: uuid.NewString(),
		Name:        "Orphan Key",
		KeyHash:     "hashed",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	err := keyRepo.Create(ctx, key)
	assert.Error(t, err)
}

func TestAPIKeyRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	keyRepo := NewAPIKeyRepository(pool)

	_, err := keyRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_GetByHash(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	key := &domain.APIKey{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		Name:        "Lookup Key",
		KeyHash:     "sha256_of_plaintext",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, keyRepo.Create(ctx, key))

	retrieved, err := keyRepo.GetByHash(ctx, "sha256_of_plaintext")
	require.NoError(t, err)
	assert.Equal(t, key.ID, retrieved.ID)

	_, err = keyRepo.GetByHash(ctx, "no_such_hash")
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_GetByWorkspaceID(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	key1 := &domain.APIKey{ID: uuid.NewString(), WorkspaceID: ws.ID, Name: "Key 1", KeyHash: "hash1", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	key2 := &domain.APIKey{ID: uuid.NewString(), WorkspaceID: ws.ID, Name: "Key 2", KeyHash: "hash2", CreatedAt: time.Now().UTC().Add(time.Second).Truncate(time.Microsecond)}

	require.NoError(t, keyRepo.Create(ctx, key1))
	require.NoError(t, keyRepo.Create(ctx, key2))

	keys, err := keyRepo.GetByWorkspaceID(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Equal(t, key2.Name, keys[0].Name)
	assert.Equal(t, key1.Name, keys[1].Name)
}

func TestAPIKeyRepository_GetByWorkspaceID_Empty(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	keyRepo := NewAPIKeyRepository(pool)

	keys, err := keyRepo.GetByWorkspaceID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAPIKeyRepository_ListByWorkspaceWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		key := &domain.APIKey{
			ID:          uuid.NewString(),
			WorkspaceID: ws.ID,
			Name:        "Key",
			KeyHash:     uuid.NewString(),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, keyRepo.Create(ctx, key))
	}

	page1, err := keyRepo.ListByWorkspaceWithCursor(ctx, ws.ID, nil, 2)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.True(t, page1.HasMore)
	require.NotEmpty(t, page1.NextCursor)

	cursor, err := pagination.DecodeCursor(page1.NextCursor)
	require.NoError(t, err)

	page2, err := keyRepo.ListByWorkspaceWithCursor(ctx, ws.ID, cursor, 3)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 3)
	assert.False(t, page2.HasMore)

	seen := make(map[string]bool)
	for _, key := range append(page1.Items, page2.Items...) {
		assert.False(t, seen[key.ID])
		seen[key.ID] = true
	}
}

func TestAPIKeyRepository_TouchLastUsed(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)

	key := &domain.APIKey{ID: uuid.NewString(), WorkspaceID: ws.ID, Name: "Active Key", KeyHash: "hash", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	require.NoError(t, keyRepo.Create(ctx, key))

	require.NoError(t, keyRepo.TouchLastUsed(ctx, key.ID))

	retrieved, err := keyRepo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.LastUsedAt)

	// Touching an unknown key is a no-op, not an error.
	assert.NoError(t, keyRepo.TouchLastUsed(ctx, uuid.NewString()))
}

func TestAPIKeyRepository_Revoke(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)
	key := &domain.APIKey{ID: uuid.NewString(), WorkspaceID: ws.ID, Name: "To Revoke", KeyHash: "hash", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	require.NoError(t, keyRepo.Create(ctx, key))

	err := keyRepo.Revoke(ctx, key.ID)
	require.NoError(t, err)

	retrieved, err := keyRepo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	assert.NotNil(t, retrieved.RevokedAt)
	assert.True(t, retrieved.IsRevoked())
}

func TestAPIKeyRepository_Revoke_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	keyRepo := NewAPIKeyRepository(pool)

	err := keyRepo.Revoke(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_Revoke_AlreadyRevoked(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)
	key := &domain.APIKey{ID: uuid.NewString(), WorkspaceID: ws.ID, Name: "Already Revoked", KeyHash: "hash", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	require.NoError(t, keyRepo.Create(ctx, key))

	require.NoError(t, keyRepo.Revoke(ctx, key.ID))
	err := keyRepo.Revoke(ctx, key.ID)
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	wsRepo := NewWorkspaceRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	ws := createWorkspaceForTest(ctx, t, wsRepo)
	key := &domain.APIKey{ID: uuid.NewString(), WorkspaceID: ws.ID, Name: "To Delete", KeyHash: "hash", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	require.NoError(t, keyRepo.Create(ctx, key))

	err := keyRepo.Delete(ctx, key.ID)
	require.NoError(t, err)

	_, err = keyRepo.GetByID(ctx, key.ID)
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	keyRepo := NewAPIKeyRepository(pool)

	err := keyRepo.Delete(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}
