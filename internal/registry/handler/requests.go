package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/registry/models"
	dErrors "seal/pkg/domain-errors"
)

const maxCalls = 50

type AuthorizationRequest struct {
	Status bool `json:"status"`
}

type CreditsRequest struct {
	Credits uint64 `json:"credits"`
}

func (r *CreditsRequest) Validate() error {
	if r.Credits == 0 {
		return dErrors.New(dErrors.CodeValidation, "INVALID_CREDITS")
	}
	return nil
}

type AddressRequest struct {
	Address common.Address `json:"address"`
}

func (r *AddressRequest) Validate() error {
	if r.Address == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	return nil
}

type NameRequest struct {
	Name string `json:"name"`
}

func (r *NameRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *NameRequest) Validate() error {
	return models.ValidateName(r.Name)
}

type MetadataRequest struct {
	Protocol uint64 `json:"protocol"`
	Pointer  string `json:"pointer"`
}

func (r *MetadataRequest) Normalize() {
	r.Pointer = strings.TrimSpace(r.Pointer)
}

type MembersRequest struct {
	Members []common.Address `json:"members"`
}

func (r *MembersRequest) Validate() error {
	if len(r.Members) == 0 {
		return dErrors.New(dErrors.CodeValidation, "members are required")
	}
	return nil
}

type MulticallRequest struct {
	Calls []models.Call `json:"calls"`
}

func (r *MulticallRequest) Validate() error {
	if len(r.Calls) == 0 {
		return dErrors.New(dErrors.CodeValidation, "calls are required")
	}
	if len(r.Calls) > maxCalls {
		return dErrors.Newf(dErrors.CodeValidation, "at most %d calls per multicall", maxCalls)
	}
	for _, c := range r.Calls {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type MembershipResponse struct {
	IsOwner  bool `json:"is_owner"`
	IsMember bool `json:"is_member"`
}

type ProviderResponse struct {
	Provider common.Address `json:"provider"`
}
