package memory

import (
	"context"
	"sync"

	"seal/internal/seal/models"
	"seal/pkg/platform/tx"
)

type SettingsStore struct {
	mu       sync.RWMutex
	settings models.Settings
}

func NewSettingsStore(initial models.Settings) *SettingsStore {
	return &SettingsStore{settings: initial}
}

func (s *SettingsStore) Get(_ context.Context) (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *SettingsStore) Put(ctx context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.settings
	s.settings = settings
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.settings = previous
	})
	return nil
}
