package models

import (
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/dedupe"
)

const MaxNameLength = 128

// Metadata points at off-chain profile data. Protocol 1 is IPFS by convention.
type Metadata struct {
	Protocol uint64 `json:"protocol"`
	Pointer  string `json:"pointer"`
}

// Profile is an organization owned by one account and co-managed by members.
//
// Invariants:
//   - ID = DeriveProfileID(Nonce, creator) and never changes
//   - Anchor = DeriveAnchor(ID, Name); renaming moves it
//   - Owner is never zero; members never contain the owner or zero
//   - Credits never go negative
type Profile struct {
	ID            domain.ProfileID     `json:"id"`
	AttestationID domain.AttestationID `json:"attestation_id"`
	Nonce         uint64               `json:"nonce"`
	Name          string               `json:"name"`
	Metadata      Metadata             `json:"metadata"`
	Owner         common.Address       `json:"owner"`
	PendingOwner  common.Address       `json:"pending_owner"`
	Anchor        common.Address       `json:"anchor"`
	Members       []common.Address     `json:"members"`
	Credits       uint64               `json:"credits"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewProfile builds a profile from a creation attestation. members are
// normalized: zero, repeats and the owner are dropped.
func NewProfile(nonce uint64, name string, owner common.Address, members []common.Address, attestationID domain.AttestationID, now time.Time) (*Profile, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if owner == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ZERO_ADDRESS")
	}
	id := domain.DeriveProfileID(nonce, owner)
	return &Profile{
		ID:            id,
		AttestationID: attestationID,
		Nonce:         nonce,
		Name:          name,
		Owner:         owner,
		Anchor:        domain.DeriveAnchor(id, name),
		Members:       dedupe.Addresses(members, owner),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func ValidateName(name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "profile name is required")
	}
	if len(name) > MaxNameLength {
		return dErrors.Newf(dErrors.CodeValidation, "profile name must be at most %d characters", MaxNameLength)
	}
	return nil
}

func (p *Profile) IsOwner(a common.Address) bool { return a != (common.Address{}) && p.Owner == a }

func (p *Profile) IsMember(a common.Address) bool {
	return a != (common.Address{}) && slices.Contains(p.Members, a)
}

func (p *Profile) IsOwnerOrMember(a common.Address) bool { return p.IsOwner(a) || p.IsMember(a) }

// ApplyName renames the profile and moves its anchor.
func (p *Profile) ApplyName(name string, now time.Time) {
	p.Name = name
	p.Anchor = domain.DeriveAnchor(p.ID, name)
	p.UpdatedAt = now
}

func (p *Profile) ApplyMetadata(m Metadata, now time.Time) {
	p.Metadata = m
	p.UpdatedAt = now
}

func (p *Profile) ApplyAddMembers(members []common.Address, now time.Time) {
	p.Members = dedupe.Addresses(append(slices.Clone(p.Members), members...), p.Owner)
	p.UpdatedAt = now
}

func (p *Profile) ApplyRemoveMembers(members []common.Address, now time.Time) {
	p.Members = dedupe.Remove(p.Members, members)
	p.UpdatedAt = now
}

func (p *Profile) ApplyPendingOwner(pending common.Address, now time.Time) {
	p.PendingOwner = pending
	p.UpdatedAt = now
}

// CanAcceptOwnership checks that a is the pending owner.
func (p *Profile) CanAcceptOwnership(a common.Address) error {
	if p.PendingOwner == (common.Address{}) || p.PendingOwner != a {
		return dErrors.New(dErrors.CodeForbidden, "NOT_PENDING_OWNER")
	}
	return nil
}

// ApplyOwnershipAccepted completes the two-step transfer. The new owner
// leaves the member list; the previous owner does not become a member.
func (p *Profile) ApplyOwnershipAccepted(now time.Time) {
	p.Owner = p.PendingOwner
	p.PendingOwner = common.Address{}
	p.Members = dedupe.Remove(p.Members, []common.Address{p.Owner})
	p.UpdatedAt = now
}

func (p *Profile) ApplyCredit(credits uint64, now time.Time) {
	p.Credits += credits
	p.UpdatedAt = now
}

// CanDebit checks the balance covers credits.
func (p *Profile) CanDebit(credits uint64) error {
	if credits == 0 {
		return dErrors.New(dErrors.CodeValidation, "INVALID_CREDITS")
	}
	if p.Credits < credits {
		return dErrors.New(dErrors.CodeInvariantViolation, "INSUFFICIENT_CREDITS")
	}
	return nil
}

func (p *Profile) ApplyDebit(credits uint64, now time.Time) {
	p.Credits -= credits
	p.UpdatedAt = now
}

// Account is an entry of the account credit ledger with its
// profile-creation authorization flag.
type Account struct {
	Address                   common.Address `json:"address"`
	AuthorizedToCreateProfile bool           `json:"authorized_to_create_profile"`
	Credits                   uint64         `json:"credits"`
	UpdatedAt                 time.Time      `json:"updated_at"`
}

func (a *Account) CanDebit(credits uint64) error {
	if credits == 0 {
		return dErrors.New(dErrors.CodeValidation, "INVALID_CREDITS")
	}
	if a.Credits < credits {
		return dErrors.New(dErrors.CodeInvariantViolation, "INSUFFICIENT_CREDITS")
	}
	return nil
}
