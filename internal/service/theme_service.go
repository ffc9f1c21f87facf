package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"field-agent/internal/model"
	"field-agent/internal/storage"
)

// ThemeService holds the dark mode preference of one device.
type ThemeService struct {
	store storage.Store
	mu    sync.Mutex
	dark  bool
}

func NewThemeService(store storage.Store) *ThemeService {
	return &ThemeService{store: store}
}

// Load reads the persisted preference. Read failures keep the light theme.
func (s *ThemeService) Load(ctx context.Context) bool {
	raw, ok, err := s.store.Get(ctx, model.KeyDarkMode)
	if err != nil {
		log.Printf("load theme preference: %v", err)
		return s.IsDark()
	}
	if !ok {
		return s.IsDark()
	}
	var dark bool
	if err := json.Unmarshal([]byte(raw), &dark); err != nil {
		log.Printf("parse theme preference %q: %v", raw, err)
		return s.IsDark()
	}
	s.mu.Lock()
	s.dark = dark
	s.mu.Unlock()
	return dark
}

func (s *ThemeService) IsDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// Toggle flips the preference and persists it. The in-memory value flips even if saving fails.
func (s *ThemeService) Toggle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	s.dark = !s.dark
	dark := s.dark
	s.mu.Unlock()

	encoded, _ := json.Marshal(dark)
	if err := s.store.Set(ctx, model.KeyDarkMode, string(encoded)); err != nil {
		return dark, fmt.Errorf("save theme preference: %w", err)
	}
	return dark, nil
}
