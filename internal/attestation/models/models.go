package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
)

// DataLocation says where an attestation's data lives.
type DataLocation uint8

const (
	DataLocationOnChain DataLocation = iota
	DataLocationArweave
	DataLocationIPFS
	DataLocationCustom
)

func (d DataLocation) Valid() bool { return d <= DataLocationCustom }

// Schema describes a class of attestations. A non-zero Hook is invoked for
// every attestation made against the schema.
type Schema struct {
	ID           domain.SchemaID `json:"id"`
	Registrant   common.Address  `json:"registrant"`
	Revocable    bool            `json:"revocable"`
	DataLocation DataLocation    `json:"data_location"`
	MaxValidFor  uint64          `json:"max_valid_for"`
	Hook         common.Address  `json:"hook"`
	Timestamp    time.Time       `json:"timestamp"`
	Data         string          `json:"data"`
}

func (s *Schema) HasHook() bool { return s.Hook != (common.Address{}) }

// Attestation is an immutable claim made by Attester. A zero
// LinkedAttestationID means the attestation is not linked.
type Attestation struct {
	ID                  domain.AttestationID
	SchemaID            domain.SchemaID
	LinkedAttestationID domain.AttestationID
	AttestTimestamp     time.Time
	RevokeTimestamp     time.Time
	Attester            common.Address
	ValidUntil          time.Time
	DataLocation        DataLocation
	Revoked             bool
	Recipients          [][]byte
	Data                []byte
}

// Validate checks the fields a caller controls.
func (a *Attestation) Validate() error {
	if a.SchemaID == 0 {
		return dErrors.New(dErrors.CodeValidation, "schema_id is required")
	}
	if a.Attester == (common.Address{}) {
		return dErrors.New(dErrors.CodeValidation, "ZERO_ADDRESS")
	}
	if !a.DataLocation.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid data_location")
	}
	return nil
}

// AttestationPayload is the JSON form of an Attestation used by the HTTP API
// and the Kafka ingest. Byte fields are 0x-prefixed hex.
type AttestationPayload struct {
	ID                  uint64          `json:"id,omitempty"`
	SchemaID            uint64          `json:"schema_id"`
	LinkedAttestationID uint64          `json:"linked_attestation_id,omitempty"`
	AttestTimestamp     int64           `json:"attest_timestamp,omitempty"`
	RevokeTimestamp     int64           `json:"revoke_timestamp,omitempty"`
	Attester            common.Address  `json:"attester"`
	ValidUntil          int64           `json:"valid_until,omitempty"`
	DataLocation        DataLocation    `json:"data_location"`
	Revoked             bool            `json:"revoked,omitempty"`
	Recipients          []hexutil.Bytes `json:"recipients"`
	Data                hexutil.Bytes   `json:"data"`
}

func (p AttestationPayload) ToAttestation() Attestation {
	att := Attestation{
		ID:                  domain.AttestationID(p.ID),
		SchemaID:            domain.SchemaID(p.SchemaID),
		LinkedAttestationID: domain.AttestationID(p.LinkedAttestationID),
		AttestTimestamp:     unix(p.AttestTimestamp),
		RevokeTimestamp:     unix(p.RevokeTimestamp),
		Attester:            p.Attester,
		ValidUntil:          unix(p.ValidUntil),
		DataLocation:        p.DataLocation,
		Revoked:             p.Revoked,
		Data:                p.Data,
	}
	for _, r := range p.Recipients {
		att.Recipients = append(att.Recipients, []byte(r))
	}
	return att
}

func PayloadFrom(a *Attestation) AttestationPayload {
	p := AttestationPayload{
		ID:                  uint64(a.ID),
		SchemaID:            uint64(a.SchemaID),
		LinkedAttestationID: uint64(a.LinkedAttestationID),
		AttestTimestamp:     unixOf(a.AttestTimestamp),
		RevokeTimestamp:     unixOf(a.RevokeTimestamp),
		Attester:            a.Attester,
		ValidUntil:          unixOf(a.ValidUntil),
		DataLocation:        a.DataLocation,
		Revoked:             a.Revoked,
		Recipients:          make([]hexutil.Bytes, 0, len(a.Recipients)),
		Data:                a.Data,
	}
	for _, r := range a.Recipients {
		p.Recipients = append(p.Recipients, r)
	}
	return p
}

// Envelope is an attestation observed on an external provider, routed to
// the hook bound at Hook.
type Envelope struct {
	Provider    common.Address     `json:"provider"`
	Hook        common.Address     `json:"hook"`
	Attestation AttestationPayload `json:"attestation"`
	ExtraData   hexutil.Bytes      `json:"extra_data"`
}

func (e *Envelope) Validate() error {
	if e.Provider == (common.Address{}) || e.Hook == (common.Address{}) {
		return dErrors.New(dErrors.CodeValidation, "ZERO_ADDRESS")
	}
	if e.Attestation.ID == 0 {
		return dErrors.New(dErrors.CodeValidation, "attestation.id is required")
	}
	att := e.Attestation.ToAttestation()
	return att.Validate()
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixOf(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
