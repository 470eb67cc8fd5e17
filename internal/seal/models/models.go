package models

import (
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/strategy"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
)

// Activity is a clone of the activity template funded with credits moved
// from its profile. Each minted seal spends one credit.
type Activity struct {
	ID            domain.ActivityID    `json:"id"`
	ProfileID     domain.ProfileID     `json:"profile_id"`
	AttestationID domain.AttestationID `json:"attestation_id"`
	Address       common.Address       `json:"address"`
	Admin         common.Address       `json:"admin"`
	Managers      []common.Address     `json:"managers"`
	Credits       uint64               `json:"credits"`
	Minted        uint64               `json:"minted"`
	CreatedAt     time.Time            `json:"created_at"`
}

func (a *Activity) IsManager(account common.Address) bool {
	return slices.Contains(a.Managers, account)
}

func (a *Activity) AdminRole() domain.Role   { return strategy.AdminRole(uint64(a.ID)) }
func (a *Activity) ManagerRole() domain.Role { return strategy.ManagerRole(uint64(a.ID)) }

// CanMint fails with INSUFFICIENT_CREDITS unless one credit per seal is left.
func (a *Activity) CanMint(count int) error {
	if uint64(count) > a.Credits {
		return dErrors.New(dErrors.CodeInvariantViolation, "INSUFFICIENT_CREDITS")
	}
	return nil
}

// Seal is one token of an activity.
type Seal struct {
	ActivityID    domain.ActivityID    `json:"activity_id"`
	TokenID       domain.TokenID       `json:"token_id"`
	Recipient     common.Address       `json:"recipient"`
	AttestationID domain.AttestationID `json:"attestation_id"`
	MintedAt      time.Time            `json:"minted_at"`
}

// NextSeals numbers one seal per recipient after the activity's supply.
func (a *Activity) NextSeals(recipients []common.Address, attestationID domain.AttestationID, now time.Time) []Seal {
	out := make([]Seal, len(recipients))
	for i, r := range recipients {
		out[i] = Seal{
			ActivityID:    a.ID,
			TokenID:       domain.TokenID(a.Minted + uint64(i) + 1),
			Recipient:     r,
			AttestationID: attestationID,
			MintedAt:      now,
		}
	}
	return out
}

// Settings are the host's mutable addresses.
type Settings struct {
	Registry common.Address `json:"registry"`
	Strategy common.Address `json:"strategy"`
}
