package models

import (
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/strategy"
	"seal/pkg/domain"
)

// Course is a clone of a cloneable course template owned by a profile.
// Certificates minted into it are numbered from 1. Metadata carries the
// strings of the attestation's course definition, if it had one.
type Course struct {
	ID            domain.CourseID      `json:"id"`
	ProfileID     domain.ProfileID     `json:"profile_id"`
	AttestationID domain.AttestationID `json:"attestation_id"`
	Template      common.Address       `json:"template"`
	Address       common.Address       `json:"address"`
	Admin         common.Address       `json:"admin"`
	Managers      []common.Address     `json:"managers"`
	Metadata      []string             `json:"metadata,omitempty"`
	Minted        uint64               `json:"minted"`
	CreatedAt     time.Time            `json:"created_at"`
}

func (c *Course) IsManager(a common.Address) bool {
	return slices.Contains(c.Managers, a)
}

func (c *Course) AdminRole() domain.Role   { return strategy.AdminRole(uint64(c.ID)) }
func (c *Course) ManagerRole() domain.Role { return strategy.ManagerRole(uint64(c.ID)) }

// Certificate is one token of a course.
type Certificate struct {
	CourseID      domain.CourseID      `json:"course_id"`
	TokenID       domain.TokenID       `json:"token_id"`
	Recipient     common.Address       `json:"recipient"`
	AttestationID domain.AttestationID `json:"attestation_id"`
	MintedAt      time.Time            `json:"minted_at"`
}

// NextCertificates numbers one certificate per recipient after the course's
// current supply.
func (c *Course) NextCertificates(recipients []common.Address, attestationID domain.AttestationID, now time.Time) []Certificate {
	out := make([]Certificate, len(recipients))
	for i, r := range recipients {
		out[i] = Certificate{
			CourseID:      c.ID,
			TokenID:       domain.TokenID(c.Minted + uint64(i) + 1),
			Recipient:     r,
			AttestationID: attestationID,
			MintedAt:      now,
		}
	}
	return out
}
