package service

import (
	"context"
	"math"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	attmodels "seal/internal/attestation/models"
	"seal/internal/events"
	"seal/internal/seal/models"
	"seal/internal/strategy"
	"seal/pkg/codec"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/requestcontext"
)

// DidReceiveAttestation creates an activity funded with profile credits, or
// mints seals from an existing one when the payload is a mint.
func (s *Service) DidReceiveAttestation(ctx context.Context, provider common.Address, att attmodels.Attestation, extraData []byte) error {
	if provider != s.cfg.Provider {
		s.reject(ctx, "untrusted_provider", provider, att)
		return dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")
	}
	data, err := codec.DecodeActivityData(extraData)
	if err != nil {
		s.reject(ctx, "malformed", provider, att)
		return err
	}

	if data.IsMint {
		err = s.mint(ctx, att, data)
	} else {
		err = s.createActivity(ctx, att, data)
	}
	if err != nil {
		s.reject(ctx, string(dErrors.CodeOf(err)), provider, att)
		return err
	}
	return nil
}

func (s *Service) createActivity(ctx context.Context, att attmodels.Attestation, data codec.ActivityData) error {
	if data.Credits == 0 || data.Credits > math.MaxInt64 {
		return dErrors.New(dErrors.CodeValidation, "INVALID_CREDITS")
	}
	now := requestcontext.Now(ctx)
	var activity *models.Activity
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := strategy.RequireCreator(ctx, s.registry, data.ProfileID, att.Attester); err != nil {
			return err
		}
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return err
		}
		if err := s.registry.ConsumeProfileCredits(ctx, data.ProfileID, data.Credits); err != nil {
			return err
		}

		id, err := s.activities.NextID(ctx)
		if err != nil {
			return err
		}
		activity = &models.Activity{
			ID:            id,
			ProfileID:     data.ProfileID,
			AttestationID: att.ID,
			Address:       strategy.CloneAddress(settings.Strategy, data.ProfileID, uint64(id)),
			Admin:         att.Attester,
			Managers:      strategy.Managers(data.Managers, att.Attester),
			Credits:       data.Credits,
			CreatedAt:     now,
		}
		if err := s.activities.Create(ctx, activity); err != nil {
			return err
		}
		return s.emit(ctx, events.ActivityCreated, activity.ID.String(), map[string]string{
			"profile_id":     data.ProfileID.String(),
			"attestation_id": att.ID.String(),
			"activity_id":    activity.ID.String(),
			"activity":       activity.Address.Hex(),
			"credits":        strconv.FormatUint(data.Credits, 10),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to create activity")
	}

	if s.metrics != nil {
		s.metrics.IncActivitiesCreated(data.Credits)
	}
	s.logger.InfoContext(ctx, "activity created",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", data.ProfileID.String(),
		"activity_id", activity.ID,
		"activity", activity.Address.Hex(),
		"credits", data.Credits,
		"attestation_id", att.ID,
	)
	return nil
}

func (s *Service) mint(ctx context.Context, att attmodels.Attestation, data codec.ActivityData) error {
	recipients, err := strategy.Recipients(att, data.Account)
	if err != nil {
		return err
	}
	activityID := domain.ActivityID(data.CourseID)
	now := requestcontext.Now(ctx)

	var minted []models.Seal
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		activity, err := s.activities.FindByID(ctx, activityID)
		if err != nil {
			return err
		}
		if activity.ProfileID != data.ProfileID {
			return dErrors.New(dErrors.CodeValidation, "ACTIVITY_NOT_IN_PROFILE")
		}
		if err := strategy.RequireMinter(ctx, s.registry, data.ProfileID, activity.Managers, att.Attester); err != nil {
			return err
		}

		minted, err = s.activities.Mint(ctx, activityID,
			func(a *models.Activity) error { return a.CanMint(len(recipients)) },
			recipients, att.ID, now)
		if err != nil {
			return err
		}
		for _, seal := range minted {
			if err := s.emit(ctx, events.SealMinted, activity.ID.String(), map[string]string{
				"profile_id":     data.ProfileID.String(),
				"attestation_id": att.ID.String(),
				"activity_id":    activity.ID.String(),
				"activity":       activity.Address.Hex(),
				"token_id":       seal.TokenID.String(),
				"recipient":      seal.Recipient.Hex(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapErr(err, "failed to mint seals")
	}

	if s.metrics != nil {
		s.metrics.AddSealsMinted(len(minted))
	}
	s.logger.InfoContext(ctx, "seals minted",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", data.ProfileID.String(),
		"activity_id", activityID,
		"count", len(minted),
		"attestation_id", att.ID,
	)
	return nil
}

func (s *Service) reject(ctx context.Context, reason string, provider common.Address, att attmodels.Attestation) {
	if s.metrics != nil {
		s.metrics.IncHookRejected(reason)
	}
	s.logger.WarnContext(ctx, "activity attestation rejected",
		"request_id", requestcontext.RequestID(ctx),
		"reason", reason,
		"provider", provider.Hex(),
		"attester", att.Attester.Hex(),
		"attestation_id", att.ID,
	)
}
