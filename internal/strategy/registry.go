package strategy

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	regmodels "seal/internal/registry/models"
	"seal/pkg/domain"
)

// RegistryPort is the part of the registry a strategy host needs.
// ConsumeProfileCredits is performed with the host as the acting account.
type RegistryPort interface {
	GetProfile(ctx context.Context, id domain.ProfileID) (*regmodels.Profile, error)
	IsOwnerOrMemberOfProfile(ctx context.Context, id domain.ProfileID, account common.Address) (bool, error)
	ConsumeProfileCredits(ctx context.Context, id domain.ProfileID, credits uint64) error
}
