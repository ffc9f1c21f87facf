package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-agent/internal/model"
	"field-agent/internal/storage"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk gone")
}

func (failingStore) Remove(context.Context, string) error {
	return errors.New("disk gone")
}

func TestThemeToggleSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory().For("device")

	theme := NewThemeService(store)
	assert.False(t, theme.Load(ctx))

	dark, err := theme.Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, dark)
	raw, _, err := store.Get(ctx, model.KeyDarkMode)
	require.NoError(t, err)
	assert.Equal(t, "true", raw)

	restarted := NewThemeService(store)
	assert.True(t, restarted.Load(ctx))
	assert.True(t, restarted.IsDark())

	dark, err = restarted.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, dark)
	assert.False(t, NewThemeService(store).Load(ctx))
}

func TestThemeLoadIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory().For("device")
	require.NoError(t, store.Set(ctx, model.KeyDarkMode, "maybe"))

	assert.False(t, NewThemeService(store).Load(ctx))
}

func TestThemeToggleFlipsEvenWhenSaveFails(t *testing.T) {
	theme := NewThemeService(failingStore{})

	assert.False(t, theme.Load(context.Background()))
	dark, err := theme.Toggle(context.Background())
	assert.Error(t, err)
	assert.True(t, dark)
	assert.True(t, theme.IsDark())
}
