// Package strategy holds what the strategy hosts (certify and seal) share:
// templates and their clone addresses, the cloneable-template catalog, role
// derivation for strategy artifacts and the port through which hosts use the
// registry.
package strategy

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
)

type Kind string

const (
	KindCourse   Kind = "course"
	KindActivity Kind = "activity"
)

func (k Kind) Valid() bool {
	return k == KindCourse || k == KindActivity
}

// Template is a strategy implementation that new artifacts are cloned from.
type Template struct {
	Address common.Address `json:"address"`
	Kind    Kind           `json:"kind"`
	Name    string         `json:"name,omitempty"`
	Symbol  string         `json:"symbol,omitempty"`
	AddedAt time.Time      `json:"added_at"`
}

func (t *Template) Validate() error {
	if t.Address == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	if !t.Kind.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown template kind %q", t.Kind)
	}
	t.Name = strings.TrimSpace(t.Name)
	t.Symbol = strings.TrimSpace(t.Symbol)
	return nil
}

// CloneAddress is the address a clone of template gets for artifact id of
// profile: a CREATE2 address with salt keccak256(profileId ‖ uint256 id).
func CloneAddress(template common.Address, profileID domain.ProfileID, id uint64) common.Address {
	salt := crypto.Keccak256Hash(profileID.Bytes(), word(id))
	return crypto.CreateAddress2(template, salt, crypto.Keccak256(template.Bytes()))
}

// AdminRole is keccak256(uint256 id ‖ "ADMIN").
func AdminRole(id uint64) domain.Role {
	return domain.Role(crypto.Keccak256Hash(word(id), []byte("ADMIN")))
}

// ManagerRole is keccak256(uint256 id ‖ "MANAGER").
func ManagerRole(id uint64) domain.Role {
	return domain.Role(crypto.Keccak256Hash(word(id), []byte("MANAGER")))
}

func word(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 32)
}
