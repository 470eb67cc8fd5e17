package handler

import (
	"github.com/ethereum/go-ethereum/common"

	dErrors "seal/pkg/domain-errors"
)

type AddressRequest struct {
	Address common.Address `json:"address"`
}

func (r *AddressRequest) Validate() error {
	if r.Address == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	return nil
}

type HostResponse struct {
	Address  common.Address `json:"address"`
	Owner    common.Address `json:"owner"`
	Registry common.Address `json:"registry"`
	Strategy common.Address `json:"strategy"`
}
