package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/attestation/models"
)

// Hook is implemented by contracts-equivalents that react to attestations:
// the registry and the strategy hosts. provider is the address of the
// attestation provider making the call; implementations must reject calls
// from providers they do not trust.
type Hook interface {
	DidReceiveAttestation(ctx context.Context, provider common.Address, att models.Attestation, extraData []byte) error
}
