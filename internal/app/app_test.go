package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-agent/internal/devbackend"
	"field-agent/internal/model"
	"field-agent/internal/storage"
)

func TestContextLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backendStore := devbackend.NewStore()
	require.NoError(t, devbackend.Seed(backendStore, time.Now()))
	server := httptest.NewServer(devbackend.NewRouter(backendStore, devbackend.NewTokens("secret", time.Hour)))
	defer server.Close()

	ctx := context.Background()
	memory := storage.NewMemory()
	require.NoError(t, memory.For("42").Set(ctx, model.KeyDarkMode, "true"))

	factory := NewFactory(memory, server.URL+"/api", server.Client())
	appCtx := factory.New("42")
	appCtx.Init(ctx)
	assert.True(t, appCtx.Theme.IsDark())

	_, err := appCtx.Auth.Login(ctx, devbackend.DemoEmail, devbackend.DemoPassword, true)
	require.NoError(t, err)
	planning, err := appCtx.Planning.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, planning.Tasks, 3)
	profile, err := appCtx.Profile.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, devbackend.DemoEmail, profile.Email)

	assert.Empty(t, memory.Snapshot("43"))

	require.NoError(t, appCtx.Teardown(ctx))
	assert.Equal(t, map[string]string{model.KeyDarkMode: "true"}, memory.Snapshot("42"))
}
