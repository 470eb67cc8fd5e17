package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/certify/models"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

// CourseStore keeps courses densely by id; course n lives at index n-1.
type CourseStore struct {
	mu           sync.RWMutex
	courses      []*models.Course
	certificates map[domain.CourseID][]models.Certificate
}

func NewCourseStore() *CourseStore {
	return &CourseStore{certificates: make(map[domain.CourseID][]models.Certificate)}
}

// NextID is the id the next Create must use. Callers serialize through the
// transaction runner.
func (s *CourseStore) NextID(_ context.Context) (domain.CourseID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CourseID(len(s.courses) + 1), nil
}

func (s *CourseStore) Create(ctx context.Context, c *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if want := domain.CourseID(len(s.courses) + 1); c.ID != want {
		return fmt.Errorf("course %d, next is %d: %w", c.ID, want, sentinel.ErrInvalidState)
	}
	s.courses = append(s.courses, clone(c))
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.courses = s.courses[:len(s.courses)-1]
	})
	return nil
}

func (s *CourseStore) FindByID(_ context.Context, id domain.CourseID) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.get(id)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *CourseStore) ListByProfile(_ context.Context, profileID domain.ProfileID) ([]*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Course, 0)
	for _, c := range s.courses {
		if c.ProfileID == profileID {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func (s *CourseStore) Mint(ctx context.Context, id domain.CourseID, recipients []common.Address, attestationID domain.AttestationID, now time.Time) ([]models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.get(id)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	minted := c.NextCertificates(recipients, attestationID, now)
	prevMinted, prevLen := c.Minted, len(s.certificates[id])
	c.Minted += uint64(len(minted))
	s.certificates[id] = append(s.certificates[id], minted...)
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.Minted = prevMinted
		s.certificates[id] = s.certificates[id][:prevLen]
	})
	return slices.Clone(minted), nil
}

func (s *CourseStore) ListCertificates(_ context.Context, id domain.CourseID) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.certificates[id])
	if out == nil {
		out = []models.Certificate{}
	}
	return out, nil
}

func (s *CourseStore) get(id domain.CourseID) (*models.Course, bool) {
	if id == 0 || uint64(id) > uint64(len(s.courses)) {
		return nil, false
	}
	return s.courses[id-1], true
}

func clone(c *models.Course) *models.Course {
	out := *c
	out.Managers = slices.Clone(c.Managers)
	out.Metadata = slices.Clone(c.Metadata)
	return &out
}
