// Package storage defines the persisted key/value contract used for session
// tokens and preferences, plus the in-memory and Redis backends.
package storage

import "context"

// Store reads and writes named string values for one device.
// Writes across keys are not transactional.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Provider hands out a Store per namespace (one per chat).
type Provider interface {
	For(namespace string) Store
}
