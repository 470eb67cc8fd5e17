package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/seal/models"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

// ActivityStore keeps activities densely by id; activity n lives at index n-1.
type ActivityStore struct {
	mu         sync.RWMutex
	activities []*models.Activity
	seals      map[domain.ActivityID][]models.Seal
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{seals: make(map[domain.ActivityID][]models.Seal)}
}

func (s *ActivityStore) NextID(_ context.Context) (domain.ActivityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ActivityID(len(s.activities) + 1), nil
}

func (s *ActivityStore) Create(ctx context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if want := domain.ActivityID(len(s.activities) + 1); a.ID != want {
		return fmt.Errorf("activity %d, next is %d: %w", a.ID, want, sentinel.ErrInvalidState)
	}
	s.activities = append(s.activities, clone(a))
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.activities = s.activities[:len(s.activities)-1]
	})
	return nil
}

func (s *ActivityStore) FindByID(_ context.Context, id domain.ActivityID) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.get(id)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

func (s *ActivityStore) ListByProfile(_ context.Context, profileID domain.ProfileID) ([]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Activity, 0)
	for _, a := range s.activities {
		if a.ProfileID == profileID {
			out = append(out, clone(a))
		}
	}
	return out, nil
}

// Mint runs validate against the current activity, then spends one credit
// per recipient and stores the numbered seals.
func (s *ActivityStore) Mint(ctx context.Context, id domain.ActivityID, validate func(*models.Activity) error, recipients []common.Address, attestationID domain.AttestationID, now time.Time) ([]models.Seal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.get(id)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(clone(a)); err != nil {
			return nil, err
		}
	}
	minted := a.NextSeals(recipients, attestationID, now)
	prev, prevLen := *a, len(s.seals[id])
	a.Credits -= uint64(len(minted))
	a.Minted += uint64(len(minted))
	s.seals[id] = append(s.seals[id], minted...)
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		a.Credits, a.Minted = prev.Credits, prev.Minted
		s.seals[id] = s.seals[id][:prevLen]
	})
	return slices.Clone(minted), nil
}

func (s *ActivityStore) ListSeals(_ context.Context, id domain.ActivityID) ([]models.Seal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.seals[id])
	if out == nil {
		out = []models.Seal{}
	}
	return out, nil
}

func (s *ActivityStore) get(id domain.ActivityID) (*models.Activity, bool) {
	if id == 0 || uint64(id) > uint64(len(s.activities)) {
		return nil, false
	}
	return s.activities[id-1], true
}

func clone(a *models.Activity) *models.Activity {
	out := *a
	out.Managers = slices.Clone(a.Managers)
	return &out
}
