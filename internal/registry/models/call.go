package models

import (
	"github.com/ethereum/go-ethereum/common"

	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
)

// CallMethod names an administrative registry operation that can be batched.
type CallMethod string

const (
	CallAuthorizeProfileCreation  CallMethod = "authorize_profile_creation"
	CallAddCreditsToAccount       CallMethod = "add_credits_to_account"
	CallAddCreditsToProfile       CallMethod = "add_credits_to_profile"
	CallUpdateAttestationProvider CallMethod = "update_attestation_provider"
	CallGrantStrategy             CallMethod = "grant_strategy"
	CallRevokeStrategy            CallMethod = "revoke_strategy"
)

// Call is one entry of a multicall. Only the fields its Method uses are read.
type Call struct {
	Method    CallMethod       `json:"method"`
	Account   common.Address   `json:"account,omitempty"`
	ProfileID domain.ProfileID `json:"profile_id,omitempty"`
	Credits   uint64           `json:"credits,omitempty"`
	Status    bool             `json:"status,omitempty"`
}

func (c Call) Validate() error {
	switch c.Method {
	case CallAuthorizeProfileCreation, CallAddCreditsToAccount, CallAddCreditsToProfile,
		CallUpdateAttestationProvider, CallGrantStrategy, CallRevokeStrategy:
		return nil
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown call method %q", c.Method)
	}
}
