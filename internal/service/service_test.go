package service

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"field-agent/internal/apiclient"
	"field-agent/internal/devbackend"
	"field-agent/internal/storage"
)

type fixture struct {
	ctx    context.Context
	memory *storage.Memory
	store  storage.Store
	client *apiclient.Client
}

func setupDevBackend(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := devbackend.NewStore()
	require.NoError(t, devbackend.Seed(store, time.Now()))
	server := httptest.NewServer(devbackend.NewRouter(store, devbackend.NewTokens("test-secret", 72*time.Hour)))
	t.Cleanup(server.Close)

	return newFixture(server.URL + "/api")
}

func newFixture(baseURL string) *fixture {
	memory := storage.NewMemory()
	sessionStore := memory.For("device")
	return &fixture{
		ctx:    context.Background(),
		memory: memory,
		store:  sessionStore,
		client: apiclient.New(baseURL, sessionStore),
	}
}

func (f *fixture) login(t *testing.T, rememberMe bool) {
	t.Helper()
	_, err := NewAuthService(f.client, f.store).Login(f.ctx, devbackend.DemoEmail, devbackend.DemoPassword, rememberMe)
	require.NoError(t, err)
}
