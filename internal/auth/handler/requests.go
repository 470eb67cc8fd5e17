package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	dErrors "seal/pkg/domain-errors"
)

type ChallengeRequest struct {
	Address common.Address `json:"address"`
}

func (r *ChallengeRequest) Validate() error {
	if r.Address == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	return nil
}

// TokenRequest carries a 0x-prefixed 65-byte personal_sign signature.
type TokenRequest struct {
	Address   common.Address `json:"address"`
	Signature string         `json:"signature"`

	decoded []byte
}

func (r *TokenRequest) Normalize() {
	r.Signature = strings.TrimSpace(r.Signature)
}

func (r *TokenRequest) Validate() error {
	if r.Address == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	sig, err := hexutil.Decode(r.Signature)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "signature must be 0x-prefixed hex")
	}
	if len(sig) != 65 {
		return dErrors.New(dErrors.CodeValidation, "signature must be 65 bytes")
	}
	r.decoded = sig
	return nil
}

func (r *TokenRequest) SignatureBytes() []byte { return r.decoded }

type MeResponse struct {
	Caller common.Address `json:"caller"`
}
