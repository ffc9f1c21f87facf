package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"field-agent/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestKVRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewKVRepository(setupTestDB(t)).For("100")

	_, ok, err := store.Get(ctx, model.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, model.KeyToken, "T1"))
	require.NoError(t, store.Set(ctx, model.KeyToken, "T2"))

	value, ok, err := store.Get(ctx, model.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T2", value)

	require.NoError(t, store.Remove(ctx, model.KeyToken))
	_, ok, err = store.Get(ctx, model.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVRepositoryNamespaces(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepository(setupTestDB(t))

	require.NoError(t, repo.For("1").Set(ctx, model.KeyUserID, "7"))
	require.NoError(t, repo.For("2").Set(ctx, model.KeyUserID, "8"))

	value, _, err := repo.For("1").Get(ctx, model.KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "7", value)

	require.NoError(t, repo.For("2").Remove(ctx, model.KeyUserID))
	value, ok, err := repo.For("1").Get(ctx, model.KeyUserID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7", value)
}

func TestKVRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, NewKVRepository(db).For("9").Set(ctx, model.KeyDarkMode, "true"))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	reopened, err := NewDB(path)
	require.NoError(t, err)
	value, ok, err := NewKVRepository(reopened).For("9").Get(ctx, model.KeyDarkMode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", value)
}

func TestChatRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(setupTestDB(t))

	created, err := repo.UpsertFromTelegram(ctx, 555, "Ana", "B", "ana")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := repo.UpsertFromTelegram(ctx, 555, "Ana", "Bell", "ana")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	_, err = repo.UpsertFromTelegram(ctx, 777, "Omar", "", "")
	require.NoError(t, err)

	chats, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, int64(555), chats[0].TelegramID)
	assert.Equal(t, "Bell", chats[0].LastName)
}

func TestWithBusyTimeout(t *testing.T) {
	assert.Equal(t, "a.db?_busy_timeout=8000", withBusyTimeout("a.db"))
	assert.Equal(t, "a.db?cache=shared&_busy_timeout=8000", withBusyTimeout("a.db?cache=shared"))
	assert.Equal(t, ":memory:", withBusyTimeout(":memory:"))
}
