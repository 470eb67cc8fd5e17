package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/strategy"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

type TemplateStore struct {
	mu        sync.RWMutex
	templates map[common.Address]strategy.Template
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{templates: make(map[common.Address]strategy.Template)}
}

func (s *TemplateStore) Add(ctx context.Context, t strategy.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.Address]; ok {
		return fmt.Errorf("template %s: %w", t.Address.Hex(), sentinel.ErrAlreadyUsed)
	}
	s.templates[t.Address] = t
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.templates, t.Address)
	})
	return nil
}

func (s *TemplateStore) Remove(ctx context.Context, address common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.templates[address]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.templates, address)
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.templates[address] = prev
	})
	return nil
}

func (s *TemplateStore) Find(_ context.Context, address common.Address) (*strategy.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

// List returns templates of kind, oldest first.
func (s *TemplateStore) List(_ context.Context, kind strategy.Kind) ([]strategy.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]strategy.Template, 0)
	for _, t := range s.templates {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b strategy.Template) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return a.Address.Cmp(b.Address)
	})
	return out, nil
}
