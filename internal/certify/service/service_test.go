package service

//go:generate mockgen -source=../../strategy/registry.go -destination=../../strategy/mocks/mocks.go -package=mocks RegistryPort

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"seal/internal/access"
	attmodels "seal/internal/attestation/models"
	"seal/internal/certify/models"
	"seal/internal/certify/store/memory"
	"seal/internal/events"
	eventstore "seal/internal/events/store/memory"
	regmodels "seal/internal/registry/models"
	"seal/internal/strategy"
	"seal/internal/strategy/mocks"
	strategystore "seal/internal/strategy/store/memory"
	"seal/pkg/codec"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/tx"
	"seal/pkg/requestcontext"
)

var (
	hostAddr     = common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9")
	providerAddr = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	hostOwner    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	attester     = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	manager      = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	student      = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	student2     = common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")
	template     = common.HexToAddress("0xDc64a140Aa3E981100a9becA4E685f962f0cF6C9")
)

type CertifySuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	registry  *mocks.MockRegistryPort
	courses   *memory.CourseStore
	events    *eventstore.InMemoryStore
	service   *Service
	profileID domain.ProfileID
	profile   *regmodels.Profile
	now       time.Time
}

func TestCertifySuite(t *testing.T) {
	suite.Run(t, new(CertifySuite))
}

func (s *CertifySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.registry = mocks.NewMockRegistryPort(s.ctrl)
	s.courses = memory.NewCourseStore()
	s.events = eventstore.New()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.profileID = domain.DeriveProfileID(1, attester)
	s.profile = &regmodels.Profile{ID: s.profileID, Owner: attester, Members: []common.Address{manager}}

	owner, err := access.NewOwnable(hostOwner)
	s.Require().NoError(err)
	catalog := strategy.NewCatalog(strategy.KindCourse, strategystore.NewTemplateStore())
	s.service, err = New(Config{
		Address:            hostAddr,
		Provider:           providerAddr,
		CourseCreationCost: 10,
		MintCost:           1,
	}, owner, catalog, s.registry, s.courses, tx.NewMemoryRunner(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEmitter(events.NewOutbox(s.events)),
	)
	s.Require().NoError(err)
}

func (s *CertifySuite) as(addr common.Address) context.Context {
	return requestcontext.WithTime(requestcontext.WithCaller(context.Background(), addr), s.now)
}

func (s *CertifySuite) attestation(id uint64, from common.Address, recipients ...common.Address) attmodels.Attestation {
	att := attmodels.Attestation{ID: domain.AttestationID(id), Attester: from}
	for _, r := range recipients {
		att.Recipients = append(att.Recipients, codec.EncodeRecipient(r))
	}
	return att
}

func (s *CertifySuite) payload(data codec.StrategyData) []byte {
	raw, err := codec.EncodeStrategyData(data)
	s.Require().NoError(err)
	return raw
}

func (s *CertifySuite) allowTemplate() {
	_, err := s.service.AddToCloneableCourse(s.as(hostOwner), strategy.Template{Address: template, Name: "Course", Symbol: "CRS"})
	s.Require().NoError(err)
}

func (s *CertifySuite) expectCreator(account common.Address, ok bool) {
	s.registry.EXPECT().GetProfile(gomock.Any(), s.profileID).Return(s.profile, nil)
	s.registry.EXPECT().IsOwnerOrMemberOfProfile(gomock.Any(), s.profileID, account).Return(ok, nil)
}

func (s *CertifySuite) createCourse() *models.Course {
	s.allowTemplate()
	s.expectCreator(attester, true)
	s.registry.EXPECT().ConsumeProfileCredits(gomock.Any(), s.profileID, uint64(10)).Return(nil)
	err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr, s.attestation(2, attester),
		s.payload(codec.StrategyData{ProfileID: s.profileID, Course: template, Managers: []common.Address{manager}}))
	s.Require().NoError(err)
	c, err := s.service.GetCourse(context.Background(), 1)
	s.Require().NoError(err)
	return c
}

func (s *CertifySuite) eventTypes() []events.Type {
	list, err := s.events.List(context.Background(), events.Filter{Source: eventSource})
	s.Require().NoError(err)
	out := make([]events.Type, len(list))
	for i, e := range list {
		out[i] = e.Type
	}
	return out
}

func (s *CertifySuite) TestCloneableCourses() {
	s.Run("owner adds and removes templates", func() {
		s.allowTemplate()
		ok, err := s.service.IsCloneableCourse(context.Background(), template)
		s.Require().NoError(err)
		s.True(ok)

		s.Require().NoError(s.service.RemoveFromCloneableCourse(s.as(hostOwner), template))
		ok, err = s.service.IsCloneableCourse(context.Background(), template)
		s.Require().NoError(err)
		s.False(ok)
		s.Equal([]events.Type{events.CloneableCourseAdded, events.CloneableCourseRemoved}, s.eventTypes())
	})

	s.Run("others are rejected", func() {
		_, err := s.service.AddToCloneableCourse(s.as(attester), strategy.Template{Address: template})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		err = s.service.RemoveFromCloneableCourse(s.as(attester), template)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("duplicates and zero are rejected", func() {
		s.allowTemplate()
		_, err := s.service.AddToCloneableCourse(s.as(hostOwner), strategy.Template{Address: template})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		_, err = s.service.AddToCloneableCourse(s.as(hostOwner), strategy.Template{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *CertifySuite) TestUntrustedProvider() {
	err := s.service.DidReceiveAttestation(s.as(attester), attester, s.attestation(1, attester), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *CertifySuite) TestCreateCourse() {
	c := s.createCourse()

	s.Equal(domain.CourseID(1), c.ID)
	s.Equal(s.profileID, c.ProfileID)
	s.Equal(strategy.CloneAddress(template, s.profileID, 1), c.Address)
	s.Equal(attester, c.Admin)
	s.Equal([]common.Address{attester, manager}, c.Managers)
	s.Equal(strategy.ManagerRole(1), c.ManagerRole())

	courses, err := s.service.ListCoursesByProfile(context.Background(), s.profileID)
	s.Require().NoError(err)
	s.Len(courses, 1)
	s.Contains(s.eventTypes(), events.CourseCreated)
}

func (s *CertifySuite) TestCreateCourseWithDefinition() {
	s.allowTemplate()
	def, err := codec.EncodeCourseDefinition(codec.CourseDefinition{
		ProfileID: s.profileID,
		Managers:  []common.Address{student, manager},
		Metadata:  []string{"ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", "Solidity 101"},
	})
	s.Require().NoError(err)

	s.Run("metadata and managers are kept on the course", func() {
		s.expectCreator(attester, true)
		s.registry.EXPECT().ConsumeProfileCredits(gomock.Any(), s.profileID, uint64(10)).Return(nil)
		att := s.attestation(2, attester)
		att.Data = def
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr, att,
			s.payload(codec.StrategyData{ProfileID: s.profileID, Course: template, Managers: []common.Address{manager}}))
		s.Require().NoError(err)

		c, err := s.service.GetCourse(context.Background(), 1)
		s.Require().NoError(err)
		s.Equal([]common.Address{attester, manager, student}, c.Managers)
		s.Equal([]string{"ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", "Solidity 101"}, c.Metadata)
	})

	s.Run("definition of another profile", func() {
		other, err := codec.EncodeCourseDefinition(codec.CourseDefinition{ProfileID: domain.DeriveProfileID(9, attester)})
		s.Require().NoError(err)
		att := s.attestation(3, attester)
		att.Data = other
		err = s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr, att,
			s.payload(codec.StrategyData{ProfileID: s.profileID, Course: template}))
		s.Equal("COURSE_NOT_IN_PROFILE", dErrors.MessageOf(err))
	})

	s.Run("malformed definition", func() {
		att := s.attestation(4, attester)
		att.Data = []byte{0x01, 0x02}
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr, att,
			s.payload(codec.StrategyData{ProfileID: s.profileID, Course: template}))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		next, err := s.courses.NextID(context.Background())
		s.Require().NoError(err)
		s.Equal(domain.CourseID(2), next)
	})
}

func (s *CertifySuite) TestCreateCourseRejections() {
	data := codec.StrategyData{ProfileID: s.profileID, Course: template}

	s.Run("template must be cloneable", func() {
		s.expectCreator(attester, true)
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr, s.attestation(2, attester), s.payload(data))
		s.Equal("NOT_CLONEABLE", dErrors.MessageOf(err))
	})

	s.Run("attester must be owner or member", func() {
		s.allowTemplate()
		s.expectCreator(student, false)
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr, s.attestation(2, student), s.payload(data))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("failed credit consumption leaves no course", func() {
		s.expectCreator(attester, true)
		s.registry.EXPECT().ConsumeProfileCredits(gomock.Any(), s.profileID, uint64(10)).
			Return(dErrors.New(dErrors.CodeInvariantViolation, "INSUFFICIENT_CREDITS"))
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr, s.attestation(2, attester), s.payload(data))
		s.Equal("INSUFFICIENT_CREDITS", dErrors.MessageOf(err))

		_, err = s.service.GetCourse(context.Background(), 1)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		next, err := s.courses.NextID(context.Background())
		s.Require().NoError(err)
		s.Equal(domain.CourseID(1), next)
	})
}

func (s *CertifySuite) TestMint() {
	c := s.createCourse()
	mint := codec.StrategyData{ProfileID: s.profileID, IsMint: true, CourseID: uint64(c.ID)}

	s.Run("managers mint to the attestation recipients", func() {
		s.registry.EXPECT().ConsumeProfileCredits(gomock.Any(), s.profileID, uint64(2)).Return(nil)
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr,
			s.attestation(3, manager, student, student2), s.payload(mint))
		s.Require().NoError(err)

		certs, err := s.service.ListCertificates(context.Background(), c.ID)
		s.Require().NoError(err)
		s.Require().Len(certs, 2)
		s.Equal(domain.TokenID(1), certs[0].TokenID)
		s.Equal(student, certs[0].Recipient)
		s.Equal(domain.TokenID(2), certs[1].TokenID)
		s.Equal(student2, certs[1].Recipient)
	})

	s.Run("account overrides the recipients", func() {
		withAccount := mint
		withAccount.Account = student
		s.registry.EXPECT().GetProfile(gomock.Any(), s.profileID).Return(s.profile, nil)
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr,
			s.attestation(4, hostOwner, student2), s.payload(withAccount))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "host owner is not the profile owner")

		s.registry.EXPECT().ConsumeProfileCredits(gomock.Any(), s.profileID, uint64(1)).Return(nil)
		err = s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr,
			s.attestation(5, attester, student2), s.payload(withAccount))
		s.Require().NoError(err)

		certs, err := s.service.ListCertificates(context.Background(), c.ID)
		s.Require().NoError(err)
		s.Require().Len(certs, 3)
		s.Equal(student, certs[2].Recipient)
		s.Equal(domain.TokenID(3), certs[2].TokenID)
	})

	s.Run("course must belong to the profile", func() {
		other := mint
		other.ProfileID = domain.DeriveProfileID(9, attester)
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr,
			s.attestation(6, manager, student), s.payload(other))
		s.Equal("COURSE_NOT_IN_PROFILE", dErrors.MessageOf(err))
	})

	s.Run("unknown course", func() {
		unknown := mint
		unknown.CourseID = 42
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr,
			s.attestation(7, manager, student), s.payload(unknown))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("course id beyond the int range", func() {
		huge := mint
		huge.CourseID = 1 << 63
		s.NotPanics(func() {
			err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr,
				s.attestation(10, manager, student), s.payload(huge))
			s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		})
		s.NotPanics(func() {
			_, err := s.service.GetCourse(context.Background(), domain.CourseID(1<<63))
			s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		})
	})

	s.Run("failed credit consumption mints nothing", func() {
		s.registry.EXPECT().ConsumeProfileCredits(gomock.Any(), s.profileID, uint64(1)).
			Return(dErrors.New(dErrors.CodeInvariantViolation, "INSUFFICIENT_CREDITS"))
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr,
			s.attestation(8, manager, student), s.payload(mint))
		s.Require().Error(err)

		course, err := s.service.GetCourse(context.Background(), c.ID)
		s.Require().NoError(err)
		s.Equal(uint64(3), course.Minted)
	})

	s.Run("no recipients", func() {
		err := s.service.DidReceiveAttestation(s.as(providerAddr), providerAddr,
			s.attestation(9, manager), s.payload(mint))
		s.Equal("NO_RECIPIENTS", dErrors.MessageOf(err))
	})
}
