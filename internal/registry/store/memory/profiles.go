package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/registry/models"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

// ProfileStore keeps profiles by id with an anchor index.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[domain.ProfileID]*models.Profile
	anchors  map[common.Address]domain.ProfileID
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[domain.ProfileID]*models.Profile),
		anchors:  make(map[common.Address]domain.ProfileID),
	}
}

func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return fmt.Errorf("profile %s: %w", p.ID, sentinel.ErrAlreadyUsed)
	}
	if _, ok := s.anchors[p.Anchor]; ok {
		return fmt.Errorf("anchor %s: %w", p.Anchor.Hex(), sentinel.ErrAlreadyUsed)
	}
	s.profiles[p.ID] = clone(p)
	s.anchors[p.Anchor] = p.ID
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.profiles, p.ID)
		delete(s.anchors, p.Anchor)
	})
	return nil
}

func (s *ProfileStore) FindByID(_ context.Context, id domain.ProfileID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

func (s *ProfileStore) FindByAnchor(_ context.Context, anchor common.Address) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.anchors[anchor]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.profiles[id]), nil
}

// ListByAccount returns profiles owned by or including account, oldest first.
func (s *ProfileStore) ListByAccount(_ context.Context, account common.Address) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Profile, 0)
	for _, p := range s.profiles {
		if p.IsOwnerOrMember(account) {
			out = append(out, clone(p))
		}
	}
	slices.SortFunc(out, func(a, b *models.Profile) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.ID.Hash().Cmp(b.ID.Hash())
	})
	return out, nil
}

// Execute validates and mutates a copy under the write lock, then swaps it in.
func (s *ProfileStore) Execute(ctx context.Context, id domain.ProfileID, validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := clone(current)
	if validate != nil {
		if err := validate(next); err != nil {
			return nil, err
		}
	}
	mutate(next)
	if next.Anchor != current.Anchor {
		if owner, taken := s.anchors[next.Anchor]; taken && owner != id {
			return nil, fmt.Errorf("anchor %s: %w", next.Anchor.Hex(), sentinel.ErrAlreadyUsed)
		}
		delete(s.anchors, current.Anchor)
		s.anchors[next.Anchor] = id
	}
	s.profiles[id] = next
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.anchors, next.Anchor)
		s.anchors[current.Anchor] = id
		s.profiles[id] = current
	})
	return clone(next), nil
}

func clone(p *models.Profile) *models.Profile {
	c := *p
	c.Members = slices.Clone(p.Members)
	return &c
}
