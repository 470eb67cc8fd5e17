package adapters

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	regmodels "seal/internal/registry/models"
	"seal/pkg/domain"
	"seal/pkg/requestcontext"
)

type recordingRegistry struct {
	consumedBy common.Address
	credits    uint64
}

func (r *recordingRegistry) GetProfile(context.Context, domain.ProfileID) (*regmodels.Profile, error) {
	return &regmodels.Profile{}, nil
}

func (r *recordingRegistry) IsOwnerOrMemberOfProfile(context.Context, domain.ProfileID, common.Address) (bool, error) {
	return true, nil
}

func (r *recordingRegistry) ConsumeProfileCredits(ctx context.Context, _ domain.ProfileID, credits uint64) error {
	r.consumedBy = requestcontext.Caller(ctx)
	r.credits = credits
	return nil
}

func TestRegistryAdapterActsAsHost(t *testing.T) {
	host := common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9")
	attester := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	registry := &recordingRegistry{}
	adapter := NewRegistryAdapter(registry, host)

	ctx := requestcontext.WithCaller(context.Background(), attester)
	require.NoError(t, adapter.ConsumeProfileCredits(ctx, domain.DeriveProfileID(1, attester), 5))

	assert.Equal(t, host, registry.consumedBy)
	assert.Equal(t, uint64(5), registry.credits)
	assert.Equal(t, attester, requestcontext.Caller(ctx), "caller context is not modified")
}
