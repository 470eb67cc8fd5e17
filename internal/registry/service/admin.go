package service

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/events"
	"seal/internal/registry/models"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/requestcontext"
)

// AuthorizeProfileCreation sets whether account may create a profile.
func (s *Service) AuthorizeProfileCreation(ctx context.Context, account common.Address, status bool) error {
	if err := s.roles.RequireRole(ctx, OwnerRole); err != nil {
		return err
	}
	if err := requireAddress(account); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.accounts.Execute(ctx, account,
			func(a *models.Account) error {
				if a.AuthorizedToCreateProfile == status {
					return dErrors.New(dErrors.CodeConflict, "SAME_STATUS")
				}
				return nil
			},
			func(a *models.Account) {
				a.AuthorizedToCreateProfile = status
				a.UpdatedAt = now
			},
		)
		if err != nil {
			return err
		}
		return s.emit(ctx, events.AccountAuthorizedToCreateProfile, account.Hex(), map[string]string{
			"account": account.Hex(),
			"status":  strconv.FormatBool(status),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to authorize profile creation")
	}
	s.logger.InfoContext(ctx, "profile creation authorization updated",
		"request_id", requestcontext.RequestID(ctx),
		"account", account.Hex(),
		"status", status,
	)
	return nil
}

func (s *Service) AddCreditsToAccount(ctx context.Context, account common.Address, credits uint64) error {
	if err := s.roles.RequireRole(ctx, OwnerRole); err != nil {
		return err
	}
	if err := requireAddress(account); err != nil {
		return err
	}
	if err := requireCredits(credits); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.accounts.Execute(ctx, account,
			func(a *models.Account) error {
				return checkOverflow(a.Credits, credits)
			},
			func(a *models.Account) {
				a.Credits += credits
				a.UpdatedAt = now
			},
		)
		if err != nil {
			return err
		}
		return s.emit(ctx, events.CreditsAddedToAccount, account.Hex(), map[string]string{
			"account": account.Hex(),
			"credits": strconv.FormatUint(credits, 10),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to add credits to account")
	}
	if s.metrics != nil {
		s.metrics.AddCredits("account", credits)
	}
	return nil
}

func (s *Service) AddCreditsToProfile(ctx context.Context, profileID domain.ProfileID, credits uint64) error {
	if err := s.roles.RequireRole(ctx, OwnerRole); err != nil {
		return err
	}
	if err := requireProfileID(profileID); err != nil {
		return err
	}
	if err := requireCredits(credits); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.profiles.Execute(ctx, profileID,
			func(p *models.Profile) error {
				return checkOverflow(p.Credits, credits)
			},
			func(p *models.Profile) {
				p.ApplyCredit(credits, now)
			},
		)
		if err != nil {
			return err
		}
		return s.emit(ctx, events.CreditsAddedToProfile, profileID.String(), map[string]string{
			"profile_id": profileID.String(),
			"credits":    strconv.FormatUint(credits, 10),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to add credits to profile")
	}
	if s.metrics != nil {
		s.metrics.AddCredits("profile", credits)
	}
	return nil
}

// UpdateAttestationProvider changes the provider whose hook calls are accepted.
func (s *Service) UpdateAttestationProvider(ctx context.Context, provider common.Address) error {
	if err := s.roles.RequireRole(ctx, OwnerRole); err != nil {
		return err
	}
	if err := requireAddress(provider); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.settings.AttestationProvider(ctx)
		if err != nil {
			return err
		}
		if current == provider {
			return dErrors.New(dErrors.CodeConflict, "SAME_PROVIDER")
		}
		if err := s.settings.SetAttestationProvider(ctx, provider); err != nil {
			return err
		}
		return s.emit(ctx, events.AttestationProviderUpdated, provider.Hex(), map[string]string{
			"provider": provider.Hex(),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to update attestation provider")
	}
	s.logger.InfoContext(ctx, "attestation provider updated",
		"request_id", requestcontext.RequestID(ctx),
		"provider", provider.Hex(),
	)
	return nil
}

// GrantStrategy lets account consume profile credits.
func (s *Service) GrantStrategy(ctx context.Context, account common.Address) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.roles.GrantRole(ctx, StrategyRole, account); err != nil {
			return err
		}
		return s.emit(ctx, events.StrategyGranted, account.Hex(), map[string]string{"account": account.Hex()})
	})
}

func (s *Service) RevokeStrategy(ctx context.Context, account common.Address) error {
	if err := requireAddress(account); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.roles.RevokeRole(ctx, StrategyRole, account); err != nil {
			return err
		}
		return s.emit(ctx, events.StrategyRevoked, account.Hex(), map[string]string{"account": account.Hex()})
	})
}

// Multicall runs calls in order inside one transaction; the first failure
// rolls every call back.
func (s *Service) Multicall(ctx context.Context, calls []models.Call) error {
	if len(calls) == 0 {
		return dErrors.New(dErrors.CodeValidation, "calls are required")
	}
	for _, c := range calls {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for i, c := range calls {
			if err := s.call(ctx, c); err != nil {
				s.logger.WarnContext(ctx, "multicall reverted",
					"request_id", requestcontext.RequestID(ctx),
					"index", i,
					"method", c.Method,
					"error", err,
				)
				return err
			}
		}
		return nil
	})
}

func (s *Service) call(ctx context.Context, c models.Call) error {
	switch c.Method {
	case models.CallAuthorizeProfileCreation:
		return s.AuthorizeProfileCreation(ctx, c.Account, c.Status)
	case models.CallAddCreditsToAccount:
		return s.AddCreditsToAccount(ctx, c.Account, c.Credits)
	case models.CallAddCreditsToProfile:
		return s.AddCreditsToProfile(ctx, c.ProfileID, c.Credits)
	case models.CallUpdateAttestationProvider:
		return s.UpdateAttestationProvider(ctx, c.Account)
	case models.CallGrantStrategy:
		return s.GrantStrategy(ctx, c.Account)
	case models.CallRevokeStrategy:
		return s.RevokeStrategy(ctx, c.Account)
	default:
		return c.Validate()
	}
}

// checkOverflow rejects balances that would exceed maxCredits.
func checkOverflow(balance, credits uint64) error {
	if credits > maxCredits || balance > maxCredits-credits {
		return dErrors.New(dErrors.CodeValidation, "INVALID_CREDITS")
	}
	return nil
}
