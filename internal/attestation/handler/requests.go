package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"seal/internal/attestation/models"
	dErrors "seal/pkg/domain-errors"
)

const maxSchemaDataLength = 4096

// RegisterSchemaRequest is the body of POST /sp/schemas.
type RegisterSchemaRequest struct {
	Revocable    bool                `json:"revocable"`
	DataLocation models.DataLocation `json:"data_location"`
	MaxValidFor  uint64              `json:"max_valid_for"`
	Hook         common.Address      `json:"hook"`
	Data         string              `json:"data"`
}

func (r *RegisterSchemaRequest) Normalize() {
	r.Data = strings.TrimSpace(r.Data)
}

func (r *RegisterSchemaRequest) Validate() error {
	if !r.DataLocation.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid data_location")
	}
	if len(r.Data) > maxSchemaDataLength {
		return dErrors.Newf(dErrors.CodeValidation, "data must be at most %d characters", maxSchemaDataLength)
	}
	return nil
}

func (r *RegisterSchemaRequest) ToSchema() models.Schema {
	return models.Schema{
		Revocable:    r.Revocable,
		DataLocation: r.DataLocation,
		MaxValidFor:  r.MaxValidFor,
		Hook:         r.Hook,
		Data:         r.Data,
	}
}

// AttestRequest is the body of POST /sp/attestations.
type AttestRequest struct {
	Attestation models.AttestationPayload `json:"attestation"`
	ExtraData   hexutil.Bytes             `json:"extra_data"`
}

func (r *AttestRequest) Validate() error {
	if r.Attestation.SchemaID == 0 {
		return dErrors.New(dErrors.CodeValidation, "attestation.schema_id is required")
	}
	if !r.Attestation.DataLocation.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid data_location")
	}
	return nil
}

// AdminDispatchRequest is the body of POST /admin/attestations.
type AdminDispatchRequest struct {
	models.Envelope
}

func (r *AdminDispatchRequest) Validate() error {
	return r.Envelope.Validate()
}

type IDResponse struct {
	ID uint64 `json:"id"`
}

type DispatchResponse struct {
	Delivered bool `json:"delivered"`
}
