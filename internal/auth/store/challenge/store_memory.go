// Package challenge stores outstanding sign-in challenges.
package challenge

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/auth/models"
	"seal/pkg/platform/sentinel"
)

// InMemoryStore keeps challenges in a map. Expiry is checked by the caller
// against the challenge's ExpiresAt, so ttl is not tracked here.
type InMemoryStore struct {
	mu         sync.Mutex
	challenges map[common.Address]models.Challenge
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{challenges: make(map[common.Address]models.Challenge)}
}

func (s *InMemoryStore) Save(_ context.Context, c models.Challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.Address] = c
	return nil
}

func (s *InMemoryStore) Take(_ context.Context, address common.Address) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.challenges, address)
	return &c, nil
}
