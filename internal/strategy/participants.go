package strategy

import (
	"context"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	attmodels "seal/internal/attestation/models"
	"seal/pkg/codec"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/dedupe"
)

// Managers returns the deduplicated managers of a new artifact; the attester
// is always one of them.
func Managers(managers []common.Address, attester common.Address) []common.Address {
	return dedupe.Addresses(append([]common.Address{attester}, managers...))
}

// Recipients resolves who receives tokens for a mint attestation: account
// when non-zero, otherwise every attestation recipient.
func Recipients(att attmodels.Attestation, account common.Address) ([]common.Address, error) {
	if account != (common.Address{}) {
		return []common.Address{account}, nil
	}
	out := make([]common.Address, 0, len(att.Recipients))
	for _, raw := range att.Recipients {
		addr, err := codec.RecipientAddress(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "NO_RECIPIENTS")
	}
	return out, nil
}

// RequireCreator checks that profile exists and attester owns it or is a member.
func RequireCreator(ctx context.Context, registry RegistryPort, profileID domain.ProfileID, attester common.Address) error {
	if profileID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "profile id is required")
	}
	if _, err := registry.GetProfile(ctx, profileID); err != nil {
		return err
	}
	ok, err := registry.IsOwnerOrMemberOfProfile(ctx, profileID, attester)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")
	}
	return nil
}

// RequireMinter checks that attester manages the artifact or owns the profile.
func RequireMinter(ctx context.Context, registry RegistryPort, profileID domain.ProfileID, managers []common.Address, attester common.Address) error {
	if slices.Contains(managers, attester) {
		return nil
	}
	profile, err := registry.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}
	if !profile.IsOwner(attester) {
		return dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")
	}
	return nil
}

// Cost multiplies a per-token cost, failing on overflow.
func Cost(unit uint64, count int) (uint64, error) {
	if count < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "negative count")
	}
	n := uint64(count)
	if unit != 0 && n > ^uint64(0)/unit {
		return 0, dErrors.New(dErrors.CodeValidation, "credit cost overflows")
	}
	return unit * n, nil
}
