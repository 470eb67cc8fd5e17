package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	attmodels "seal/internal/attestation/models"
	"seal/internal/certify/models"
	"seal/internal/events"
	"seal/internal/strategy"
	"seal/pkg/codec"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/requestcontext"
)

// DidReceiveAttestation creates a course, or mints certificates into one
// when the payload is a mint.
func (s *Service) DidReceiveAttestation(ctx context.Context, provider common.Address, att attmodels.Attestation, extraData []byte) error {
	if provider != s.cfg.Provider {
		s.reject(ctx, "untrusted_provider", provider, att)
		return dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")
	}
	data, err := codec.DecodeStrategyData(extraData)
	if err != nil {
		s.reject(ctx, "malformed", provider, att)
		return err
	}

	if data.IsMint {
		err = s.mint(ctx, att, data)
	} else {
		err = s.createCourse(ctx, att, data)
	}
	if err != nil {
		s.reject(ctx, string(dErrors.CodeOf(err)), provider, att)
		return err
	}
	return nil
}

func (s *Service) createCourse(ctx context.Context, att attmodels.Attestation, data codec.StrategyData) error {
	def, err := courseDefinition(att, data)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	var course *models.Course
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := strategy.RequireCreator(ctx, s.registry, data.ProfileID, att.Attester); err != nil {
			return err
		}
		ok, err := s.catalog.IsCloneable(ctx, data.Course)
		if err != nil {
			return err
		}
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "NOT_CLONEABLE")
		}
		if s.cfg.CourseCreationCost > 0 {
			if err := s.registry.ConsumeProfileCredits(ctx, data.ProfileID, s.cfg.CourseCreationCost); err != nil {
				return err
			}
		}

		id, err := s.courses.NextID(ctx)
		if err != nil {
			return err
		}
		course = &models.Course{
			ID:            id,
			ProfileID:     data.ProfileID,
			AttestationID: att.ID,
			Template:      data.Course,
			Address:       strategy.CloneAddress(data.Course, data.ProfileID, uint64(id)),
			Admin:         att.Attester,
			Managers:      strategy.Managers(append(append([]common.Address(nil), data.Managers...), def.Managers...), att.Attester),
			Metadata:      def.Metadata,
			CreatedAt:     now,
		}
		if err := s.courses.Create(ctx, course); err != nil {
			return err
		}
		return s.emit(ctx, events.CourseCreated, course.ID.String(), map[string]string{
			"profile_id":     data.ProfileID.String(),
			"attestation_id": att.ID.String(),
			"course_id":      course.ID.String(),
			"course":         course.Address.Hex(),
			"template":       data.Course.Hex(),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to create course")
	}

	if s.metrics != nil {
		s.metrics.IncCoursesCreated()
	}
	s.logger.InfoContext(ctx, "course created",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", data.ProfileID.String(),
		"course_id", course.ID,
		"course", course.Address.Hex(),
		"attestation_id", att.ID,
	)
	return nil
}

// courseDefinition decodes the attestation data, when present, as the
// course's definition. It must name the same profile as the strategy data.
func courseDefinition(att attmodels.Attestation, data codec.StrategyData) (codec.CourseDefinition, error) {
	if len(att.Data) == 0 {
		return codec.CourseDefinition{}, nil
	}
	def, err := codec.DecodeCourseDefinition(att.Data)
	if err != nil {
		return codec.CourseDefinition{}, err
	}
	if !def.ProfileID.IsZero() && def.ProfileID != data.ProfileID {
		return codec.CourseDefinition{}, dErrors.New(dErrors.CodeValidation, "COURSE_NOT_IN_PROFILE")
	}
	return def, nil
}

func (s *Service) mint(ctx context.Context, att attmodels.Attestation, data codec.StrategyData) error {
	recipients, err := strategy.Recipients(att, data.Account)
	if err != nil {
		return err
	}
	cost, err := strategy.Cost(s.cfg.MintCost, len(recipients))
	if err != nil {
		return err
	}
	courseID := domain.CourseID(data.CourseID)
	now := requestcontext.Now(ctx)

	var minted []models.Certificate
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			return err
		}
		if course.ProfileID != data.ProfileID {
			return dErrors.New(dErrors.CodeValidation, "COURSE_NOT_IN_PROFILE")
		}
		if err := strategy.RequireMinter(ctx, s.registry, data.ProfileID, course.Managers, att.Attester); err != nil {
			return err
		}
		if cost > 0 {
			if err := s.registry.ConsumeProfileCredits(ctx, data.ProfileID, cost); err != nil {
				return err
			}
		}

		if minted, err = s.courses.Mint(ctx, courseID, recipients, att.ID, now); err != nil {
			return err
		}
		for _, c := range minted {
			if err := s.emit(ctx, events.CertificateMinted, course.ID.String(), map[string]string{
				"profile_id":     data.ProfileID.String(),
				"attestation_id": att.ID.String(),
				"course_id":      course.ID.String(),
				"course":         course.Address.Hex(),
				"token_id":       c.TokenID.String(),
				"recipient":      c.Recipient.Hex(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapErr(err, "failed to mint certificates")
	}

	if s.metrics != nil {
		s.metrics.AddCertificatesMinted(len(minted))
	}
	s.logger.InfoContext(ctx, "certificates minted",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", data.ProfileID.String(),
		"course_id", courseID,
		"count", len(minted),
		"credits", cost,
		"attestation_id", att.ID,
	)
	return nil
}

func (s *Service) reject(ctx context.Context, reason string, provider common.Address, att attmodels.Attestation) {
	if s.metrics != nil {
		s.metrics.IncHookRejected(reason)
	}
	s.logger.WarnContext(ctx, "strategy attestation rejected",
		"request_id", requestcontext.RequestID(ctx),
		"reason", reason,
		"provider", provider.Hex(),
		"attester", att.Attester.Hex(),
		"attestation_id", att.ID,
	)
}
