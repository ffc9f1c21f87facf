package storage

import (
	"context"
	"sync"
)

// Memory is a process-local Provider.
type Memory struct {
	mu     sync.Mutex
	values map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]map[string]string)}
}

func (m *Memory) For(namespace string) Store {
	return &memoryStore{parent: m, namespace: namespace}
}

// Snapshot returns a copy of the values stored under namespace.
func (m *Memory) Snapshot(namespace string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values[namespace]))
	for k, v := range m.values[namespace] {
		out[k] = v
	}
	return out
}

type memoryStore struct {
	parent    *Memory
	namespace string
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	value, ok := s.parent.values[s.namespace][key]
	return value, ok, nil
}

func (s *memoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	bucket, ok := s.parent.values[s.namespace]
	if !ok {
		bucket = make(map[string]string)
		s.parent.values[s.namespace] = bucket
	}
	bucket[key] = value
	return nil
}

func (s *memoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	delete(s.parent.values[s.namespace], key)
	return nil
}
