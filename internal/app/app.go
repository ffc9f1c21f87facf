// Package app wires one device's session store, API client and services
// together. The bot keeps one Context per chat.
package app

import (
	"context"
	"net/http"

	"field-agent/internal/apiclient"
	"field-agent/internal/service"
	"field-agent/internal/storage"
)

// Context is the per-device application state.
type Context struct {
	Namespace  string
	Store      storage.Store
	Client     *apiclient.Client
	Auth       *service.AuthService
	Planning   *service.PlanningService
	Profile    *service.ProfileService
	Executions *service.ExecutionService
	Theme      *service.ThemeService
}

// Factory builds Contexts that share a storage provider and HTTP client.
type Factory struct {
	provider storage.Provider
	baseURL  string
	http     *http.Client
}

func NewFactory(provider storage.Provider, baseURL string, httpClient *http.Client) *Factory {
	return &Factory{provider: provider, baseURL: baseURL, http: httpClient}
}

// New returns a Context bound to namespace. Call Init before use.
func (f *Factory) New(namespace string) *Context {
	store := f.provider.For(namespace)
	client := apiclient.New(f.baseURL, store, apiclient.WithHTTPClient(f.http))
	return &Context{
		Namespace:  namespace,
		Store:      store,
		Client:     client,
		Auth:       service.NewAuthService(client, store),
		Planning:   service.NewPlanningService(client),
		Profile:    service.NewProfileService(client, store),
		Executions: service.NewExecutionService(client, store),
		Theme:      service.NewThemeService(store),
	}
}

// Init loads persisted preferences.
func (c *Context) Init(ctx context.Context) {
	c.Theme.Load(ctx)
}

// Teardown ends the session. The theme preference stays on the device.
func (c *Context) Teardown(ctx context.Context) error {
	return c.Auth.Logout(ctx)
}
