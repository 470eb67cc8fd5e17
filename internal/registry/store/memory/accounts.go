package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/registry/models"
	"seal/pkg/platform/tx"
)

type AccountStore struct {
	mu       sync.RWMutex
	accounts map[common.Address]models.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[common.Address]models.Account)}
}

func (s *AccountStore) Find(_ context.Context, account common.Address) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[account]
	if !ok {
		a = models.Account{Address: account}
	}
	return &a, nil
}

func (s *AccountStore) Execute(ctx context.Context, account common.Address, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, existed := s.accounts[account]
	if !existed {
		current = models.Account{Address: account}
	}
	next := current
	if validate != nil {
		if err := validate(&next); err != nil {
			return nil, err
		}
	}
	mutate(&next)
	s.accounts[account] = next
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.accounts[account] = current
		} else {
			delete(s.accounts, account)
		}
	})
	out := next
	return &out, nil
}
