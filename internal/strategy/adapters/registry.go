package adapters

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	regmodels "seal/internal/registry/models"
	"seal/pkg/domain"
	"seal/pkg/requestcontext"
)

// RegistryService is the in-process registry.
type RegistryService interface {
	GetProfile(ctx context.Context, id domain.ProfileID) (*regmodels.Profile, error)
	IsOwnerOrMemberOfProfile(ctx context.Context, id domain.ProfileID, account common.Address) (bool, error)
	ConsumeProfileCredits(ctx context.Context, id domain.ProfileID, credits uint64) error
}

// RegistryAdapter calls the registry in-process, acting as the strategy
// host's own address when spending credits.
type RegistryAdapter struct {
	registry RegistryService
	self     common.Address
}

func NewRegistryAdapter(registry RegistryService, self common.Address) *RegistryAdapter {
	return &RegistryAdapter{registry: registry, self: self}
}

func (a *RegistryAdapter) GetProfile(ctx context.Context, id domain.ProfileID) (*regmodels.Profile, error) {
	return a.registry.GetProfile(ctx, id)
}

func (a *RegistryAdapter) IsOwnerOrMemberOfProfile(ctx context.Context, id domain.ProfileID, account common.Address) (bool, error) {
	return a.registry.IsOwnerOrMemberOfProfile(ctx, id, account)
}

func (a *RegistryAdapter) ConsumeProfileCredits(ctx context.Context, id domain.ProfileID, credits uint64) error {
	return a.registry.ConsumeProfileCredits(requestcontext.WithCaller(ctx, a.self), id, credits)
}
