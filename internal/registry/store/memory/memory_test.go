package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"seal/internal/registry/models"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

var (
	tono  = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	julio = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

type ProfileStoreSuite struct {
	suite.Suite
	store *ProfileStore
	ctx   context.Context
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = NewProfileStore()
	s.ctx = context.Background()
}

func (s *ProfileStoreSuite) newProfile(nonce uint64, name string) *models.Profile {
	p, err := models.NewProfile(nonce, name, tono, []common.Address{julio}, domain.AttestationID(nonce), time.Now())
	s.Require().NoError(err)
	return p
}

func (s *ProfileStoreSuite) TestCreateAndFind() {
	p := s.newProfile(1, "educateth")
	s.Require().NoError(s.store.Create(s.ctx, p))

	s.Run("rejects a duplicate id", func() {
		s.ErrorIs(s.store.Create(s.ctx, s.newProfile(1, "other")), sentinel.ErrAlreadyUsed)
	})

	s.Run("finds by anchor", func() {
		found, err := s.store.FindByAnchor(s.ctx, p.Anchor)
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)
	})

	s.Run("returns copies", func() {
		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		found.Members[0] = common.Address{}
		again, _ := s.store.FindByID(s.ctx, p.ID)
		s.Equal(julio, again.Members[0])
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindByID(s.ctx, domain.DeriveProfileID(9, tono))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ProfileStoreSuite) TestExecute() {
	p := s.newProfile(1, "educateth")
	s.Require().NoError(s.store.Create(s.ctx, p))

	s.Run("validation failure leaves the record", func() {
		_, err := s.store.Execute(s.ctx, p.ID,
			func(*models.Profile) error { return errors.New("nope") },
			func(p *models.Profile) { p.Credits = 100 },
		)
		s.Require().Error(err)
		found, _ := s.store.FindByID(s.ctx, p.ID)
		s.Zero(found.Credits)
	})

	s.Run("rename moves the anchor index", func() {
		_, err := s.store.Execute(s.ctx, p.ID, nil, func(p *models.Profile) { p.ApplyName("ETHKipu", time.Now()) })
		s.Require().NoError(err)
		_, err = s.store.FindByAnchor(s.ctx, p.Anchor)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByAnchor(s.ctx, domain.DeriveAnchor(p.ID, "ETHKipu"))
		s.NoError(err)
	})

	s.Run("rollback restores the previous record", func() {
		err := tx.NewMemoryRunner().RunInTx(s.ctx, func(ctx context.Context) error {
			_, err := s.store.Execute(ctx, p.ID, nil, func(p *models.Profile) {
				p.ApplyName("rolled back", time.Now())
				p.Credits = 9
			})
			s.Require().NoError(err)
			return errors.New("later step failed")
		})
		s.Require().Error(err)

		found, err := s.store.FindByAnchor(s.ctx, domain.DeriveAnchor(p.ID, "ETHKipu"))
		s.Require().NoError(err)
		s.Equal("ETHKipu", found.Name)
		s.Zero(found.Credits)
	})
}

func TestAccountStore(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	a, err := store.Find(ctx, tono)
	if err != nil || a.Credits != 0 || a.AuthorizedToCreateProfile {
		t.Fatalf("unknown account should read as empty, got %+v, %v", a, err)
	}

	err = tx.NewMemoryRunner().RunInTx(ctx, func(ctx context.Context) error {
		if _, err := store.Execute(ctx, tono, nil, func(a *models.Account) { a.Credits = 5 }); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected abort")
	}
	a, _ = store.Find(ctx, tono)
	if a.Credits != 0 {
		t.Fatalf("expected rollback to zero credits, got %d", a.Credits)
	}
}
