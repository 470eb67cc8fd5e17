package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	attmodels "seal/internal/attestation/models"
	"seal/internal/events"
	"seal/internal/registry/models"
	"seal/pkg/codec"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/sentinel"
	"seal/pkg/requestcontext"
)

// DidReceiveAttestation creates a profile from a profile-creation
// attestation. The attester becomes the owner, spends its one-shot
// authorization and hands its account credits to the new profile.
func (s *Service) DidReceiveAttestation(ctx context.Context, provider common.Address, att attmodels.Attestation, extraData []byte) error {
	trusted, err := s.settings.AttestationProvider(ctx)
	if err != nil {
		return wrapErr(err, "failed to load attestation provider")
	}
	if provider != trusted {
		s.reject(ctx, "untrusted_provider", provider, att)
		return unauthorized()
	}

	creation, err := codec.DecodeProfileCreation(extraData)
	if err != nil {
		s.reject(ctx, "malformed", provider, att)
		return err
	}
	now := requestcontext.Now(ctx)
	profile, err := models.NewProfile(creation.Nonce, creation.Name, att.Attester, creation.Members, att.ID, now)
	if err != nil {
		s.reject(ctx, "invalid_profile", provider, att)
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.profiles.FindByID(ctx, profile.ID); err == nil {
			return dErrors.New(dErrors.CodeConflict, "NONCE_NOT_AVAILABLE")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}

		if _, err := s.accounts.Execute(ctx, att.Attester,
			func(a *models.Account) error {
				if !a.AuthorizedToCreateProfile {
					return unauthorized()
				}
				return nil
			},
			func(a *models.Account) {
				profile.Credits = a.Credits
				a.Credits = 0
				a.AuthorizedToCreateProfile = false
				a.UpdatedAt = now
			},
		); err != nil {
			return err
		}

		if err := s.profiles.Create(ctx, profile); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "NONCE_NOT_AVAILABLE")
			}
			return err
		}
		return s.emit(ctx, events.ProfileCreated, profile.ID.String(), map[string]string{
			"profile_id":     profile.ID.String(),
			"nonce":          strconv.FormatUint(profile.Nonce, 10),
			"name":           profile.Name,
			"owner":          profile.Owner.Hex(),
			"anchor":         profile.Anchor.Hex(),
			"attestation_id": att.ID.String(),
			"credits":        strconv.FormatUint(profile.Credits, 10),
		})
	})
	if err != nil {
		s.reject(ctx, string(dErrors.CodeOf(err)), provider, att)
		return wrapErr(err, "failed to create profile")
	}

	if s.metrics != nil {
		s.metrics.IncProfilesCreated()
	}
	s.logger.InfoContext(ctx, "profile created",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", profile.ID.String(),
		"owner", profile.Owner.Hex(),
		"anchor", profile.Anchor.Hex(),
		"attestation_id", att.ID,
		"credits", profile.Credits,
	)
	return nil
}

func (s *Service) reject(ctx context.Context, reason string, provider common.Address, att attmodels.Attestation) {
	if s.metrics != nil {
		s.metrics.IncHookRejected(reason)
	}
	s.logger.WarnContext(ctx, "profile creation rejected",
		"request_id", requestcontext.RequestID(ctx),
		"reason", reason,
		"provider", provider.Hex(),
		"attester", att.Attester.Hex(),
		"attestation_id", att.ID,
	)
}
