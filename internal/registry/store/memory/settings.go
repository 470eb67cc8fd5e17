package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"seal/pkg/platform/tx"
)

type SettingsStore struct {
	mu       sync.RWMutex
	provider common.Address
}

// NewSettingsStore starts with provider as the trusted attestation provider.
func NewSettingsStore(provider common.Address) *SettingsStore {
	return &SettingsStore{provider: provider}
}

func (s *SettingsStore) AttestationProvider(_ context.Context) (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider, nil
}

func (s *SettingsStore) SetAttestationProvider(ctx context.Context, provider common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.provider
	s.provider = provider
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.provider = previous
	})
	return nil
}
