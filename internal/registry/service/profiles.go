package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/events"
	"seal/internal/registry/models"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/sentinel"
	"seal/pkg/requestcontext"
)

func (s *Service) GetProfile(ctx context.Context, id domain.ProfileID) (*models.Profile, error) {
	if err := requireProfileID(id); err != nil {
		return nil, err
	}
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err, "failed to load profile")
	}
	return p, nil
}

func (s *Service) GetProfileByAnchor(ctx context.Context, anchor common.Address) (*models.Profile, error) {
	p, err := s.profiles.FindByAnchor(ctx, anchor)
	if err != nil {
		return nil, wrapErr(err, "failed to load profile")
	}
	return p, nil
}

// ListProfilesByAccount returns the profiles account owns or is a member of.
func (s *Service) ListProfilesByAccount(ctx context.Context, account common.Address) ([]*models.Profile, error) {
	if err := requireAddress(account); err != nil {
		return nil, err
	}
	list, err := s.profiles.ListByAccount(ctx, account)
	if err != nil {
		return nil, wrapErr(err, "failed to list profiles")
	}
	return list, nil
}

func (s *Service) GetProfileCredits(ctx context.Context, id domain.ProfileID) (uint64, error) {
	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Credits, nil
}

// IsOwnerOfProfile reports false for unknown profiles.
func (s *Service) IsOwnerOfProfile(ctx context.Context, id domain.ProfileID, account common.Address) (bool, error) {
	return s.check(ctx, id, func(p *models.Profile) bool { return p.IsOwner(account) })
}

func (s *Service) IsMemberOfProfile(ctx context.Context, id domain.ProfileID, account common.Address) (bool, error) {
	return s.check(ctx, id, func(p *models.Profile) bool { return p.IsMember(account) })
}

func (s *Service) IsOwnerOrMemberOfProfile(ctx context.Context, id domain.ProfileID, account common.Address) (bool, error) {
	return s.check(ctx, id, func(p *models.Profile) bool { return p.IsOwnerOrMember(account) })
}

func (s *Service) check(ctx context.Context, id domain.ProfileID, pred func(*models.Profile) bool) (bool, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr(err, "failed to load profile")
	}
	return pred(p), nil
}

func (s *Service) GetAccount(ctx context.Context, account common.Address) (*models.Account, error) {
	if err := requireAddress(account); err != nil {
		return nil, err
	}
	a, err := s.accounts.Find(ctx, account)
	if err != nil {
		return nil, wrapErr(err, "failed to load account")
	}
	return a, nil
}

func (s *Service) IsAuthorizedToCreateProfile(ctx context.Context, account common.Address) (bool, error) {
	a, err := s.GetAccount(ctx, account)
	if err != nil {
		return false, err
	}
	return a.AuthorizedToCreateProfile, nil
}

func (s *Service) GetCreditsByAccount(ctx context.Context, account common.Address) (uint64, error) {
	a, err := s.GetAccount(ctx, account)
	if err != nil {
		return 0, err
	}
	return a.Credits, nil
}

func (s *Service) AttestationProvider(ctx context.Context) (common.Address, error) {
	provider, err := s.settings.AttestationProvider(ctx)
	if err != nil {
		return common.Address{}, wrapErr(err, "failed to load attestation provider")
	}
	return provider, nil
}

// mutateProfile runs a guarded profile update and emits one event.
func (s *Service) mutateProfile(ctx context.Context, id domain.ProfileID, t events.Type,
	validate func(*models.Profile) error, mutate func(*models.Profile), attrs func(*models.Profile) map[string]string,
) (*models.Profile, error) {
	if err := requireProfileID(id); err != nil {
		return nil, err
	}
	var updated *models.Profile
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.profiles.Execute(ctx, id, validate, mutate)
		if err != nil {
			return err
		}
		updated = p
		return s.emit(ctx, t, id.String(), attrs(p))
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "profile name already taken")
		}
		return nil, wrapErr(err, "failed to update profile")
	}
	s.logger.InfoContext(ctx, "profile updated",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", id.String(),
		"event", t,
		"caller", requestcontext.Caller(ctx).Hex(),
	)
	return updated, nil
}

func ownerOrMember(caller common.Address) func(*models.Profile) error {
	return func(p *models.Profile) error {
		if !p.IsOwnerOrMember(caller) {
			return unauthorized()
		}
		return nil
	}
}

func ownerOnly(caller common.Address) func(*models.Profile) error {
	return func(p *models.Profile) error {
		if !p.IsOwner(caller) {
			return unauthorized()
		}
		return nil
	}
}

// UpdateProfileName renames the profile; the anchor moves with the name.
func (s *Service) UpdateProfileName(ctx context.Context, id domain.ProfileID, name string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if err := models.ValidateName(name); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	return s.mutateProfile(ctx, id, events.ProfileNameUpdated,
		ownerOrMember(requestcontext.Caller(ctx)),
		func(p *models.Profile) { p.ApplyName(name, now) },
		func(p *models.Profile) map[string]string {
			return map[string]string{"profile_id": id.String(), "name": p.Name, "anchor": p.Anchor.Hex()}
		},
	)
}

func (s *Service) UpdateProfileMetadata(ctx context.Context, id domain.ProfileID, metadata models.Metadata) (*models.Profile, error) {
	metadata.Pointer = strings.TrimSpace(metadata.Pointer)
	now := requestcontext.Now(ctx)
	return s.mutateProfile(ctx, id, events.ProfileMetadataUpdated,
		ownerOrMember(requestcontext.Caller(ctx)),
		func(p *models.Profile) { p.ApplyMetadata(metadata, now) },
		func(p *models.Profile) map[string]string {
			return map[string]string{
				"profile_id": id.String(),
				"protocol":   strconv.FormatUint(p.Metadata.Protocol, 10),
				"pointer":    p.Metadata.Pointer,
			}
		},
	)
}

func (s *Service) AddMembers(ctx context.Context, id domain.ProfileID, members []common.Address) (*models.Profile, error) {
	if err := requireMembers(members); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	return s.mutateProfile(ctx, id, events.ProfileMembersAdded,
		ownerOnly(requestcontext.Caller(ctx)),
		func(p *models.Profile) { p.ApplyAddMembers(members, now) },
		func(p *models.Profile) map[string]string {
			return map[string]string{"profile_id": id.String(), "members": joinAddresses(members)}
		},
	)
}

func (s *Service) RemoveMembers(ctx context.Context, id domain.ProfileID, members []common.Address) (*models.Profile, error) {
	if err := requireMembers(members); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	return s.mutateProfile(ctx, id, events.ProfileMembersRemoved,
		ownerOnly(requestcontext.Caller(ctx)),
		func(p *models.Profile) { p.ApplyRemoveMembers(members, now) },
		func(p *models.Profile) map[string]string {
			return map[string]string{"profile_id": id.String(), "members": joinAddresses(members)}
		},
	)
}

// UpdateProfilePendingOwner starts a two-step ownership transfer.
func (s *Service) UpdateProfilePendingOwner(ctx context.Context, id domain.ProfileID, pending common.Address) (*models.Profile, error) {
	if err := requireAddress(pending); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	return s.mutateProfile(ctx, id, events.ProfilePendingOwnerUpdated,
		ownerOnly(requestcontext.Caller(ctx)),
		func(p *models.Profile) { p.ApplyPendingOwner(pending, now) },
		func(p *models.Profile) map[string]string {
			return map[string]string{"profile_id": id.String(), "pending_owner": pending.Hex()}
		},
	)
}

// AcceptProfileOwnership completes the transfer; the caller must be the
// pending owner.
func (s *Service) AcceptProfileOwnership(ctx context.Context, id domain.ProfileID) (*models.Profile, error) {
	caller := requestcontext.Caller(ctx)
	now := requestcontext.Now(ctx)
	return s.mutateProfile(ctx, id, events.ProfileOwnerUpdated,
		func(p *models.Profile) error { return p.CanAcceptOwnership(caller) },
		func(p *models.Profile) { p.ApplyOwnershipAccepted(now) },
		func(p *models.Profile) map[string]string {
			return map[string]string{"profile_id": id.String(), "owner": p.Owner.Hex()}
		},
	)
}

// TransferCreditsToProfile moves credits from the caller's account to a
// profile the caller owns or is a member of.
func (s *Service) TransferCreditsToProfile(ctx context.Context, id domain.ProfileID, credits uint64) error {
	if err := requireProfileID(id); err != nil {
		return err
	}
	if err := requireCredits(credits); err != nil {
		return err
	}
	caller := requestcontext.Caller(ctx)
	now := requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.profiles.Execute(ctx, id,
			func(p *models.Profile) error {
				if !p.IsOwnerOrMember(caller) {
					return unauthorized()
				}
				return checkOverflow(p.Credits, credits)
			},
			func(p *models.Profile) { p.ApplyCredit(credits, now) },
		); err != nil {
			return err
		}
		if _, err := s.accounts.Execute(ctx, caller,
			func(a *models.Account) error { return a.CanDebit(credits) },
			func(a *models.Account) {
				a.Credits -= credits
				a.UpdatedAt = now
			},
		); err != nil {
			return err
		}
		return s.emit(ctx, events.CreditsTransferredToProfile, id.String(), map[string]string{
			"profile_id": id.String(),
			"account":    caller.Hex(),
			"credits":    strconv.FormatUint(credits, 10),
		})
	})
	return wrapErr(err, "failed to transfer credits")
}

// ConsumeProfileCredits debits a profile on behalf of a strategy.
func (s *Service) ConsumeProfileCredits(ctx context.Context, id domain.ProfileID, credits uint64) error {
	if err := s.roles.RequireRole(ctx, StrategyRole); err != nil {
		return err
	}
	if err := requireProfileID(id); err != nil {
		return err
	}
	if err := requireCredits(credits); err != nil {
		return err
	}
	strategy := requestcontext.Caller(ctx)
	now := requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.profiles.Execute(ctx, id,
			func(p *models.Profile) error { return p.CanDebit(credits) },
			func(p *models.Profile) { p.ApplyDebit(credits, now) },
		); err != nil {
			return err
		}
		return s.emit(ctx, events.ProfileCreditsConsumed, id.String(), map[string]string{
			"profile_id": id.String(),
			"strategy":   strategy.Hex(),
			"credits":    strconv.FormatUint(credits, 10),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to consume credits")
	}
	if s.metrics != nil {
		s.metrics.AddCreditsConsumed(credits)
	}
	return nil
}

func requireMembers(members []common.Address) error {
	if len(members) == 0 {
		return dErrors.New(dErrors.CodeValidation, "members are required")
	}
	for _, m := range members {
		if err := requireAddress(m); err != nil {
			return err
		}
	}
	return nil
}

func joinAddresses(addrs []common.Address) string {
	hex := make([]string, len(addrs))
	for i, a := range addrs {
		hex[i] = a.Hex()
	}
	return strings.Join(hex, ",")
}
