package domain

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	dErrors "seal/pkg/domain-errors"
)

// ProfileID identifies a registry profile. It is derived from the creation
// nonce and the owner (see DeriveProfileID) and never chosen by callers.
type ProfileID common.Hash

// Role identifies an access-control role: keccak256 of its name.
type Role common.Hash

type (
	AttestationID uint64
	SchemaID      uint64
	CourseID      uint64
	ActivityID    uint64
	TokenID       uint64
)

func (p ProfileID) Hash() common.Hash { return common.Hash(p) }
func (p ProfileID) String() string    { return common.Hash(p).Hex() }
func (p ProfileID) IsZero() bool      { return p == ProfileID{} }
func (p ProfileID) Bytes() []byte     { return common.Hash(p).Bytes() }

func (p ProfileID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts any 32 byte hex value, including zero; callers that
// need a real profile validate with IsZero.
func (p *ProfileID) UnmarshalText(text []byte) error {
	raw := strings.TrimPrefix(strings.TrimPrefix(string(text), "0x"), "0X")
	if len(raw) != 2*common.HashLength || !isHex(raw) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid profile id format")
	}
	*p = ProfileID(common.HexToHash(raw))
	return nil
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r Role) Hash() common.Hash { return common.Hash(r) }
func (r Role) String() string    { return common.Hash(r).Hex() }

func (a AttestationID) String() string { return strconv.FormatUint(uint64(a), 10) }
func (s SchemaID) String() string      { return strconv.FormatUint(uint64(s), 10) }
func (c CourseID) String() string      { return strconv.FormatUint(uint64(c), 10) }
func (a ActivityID) String() string    { return strconv.FormatUint(uint64(a), 10) }
func (t TokenID) String() string       { return strconv.FormatUint(uint64(t), 10) }

// RoleID returns keccak256(name), the same value ethers.id(name) produces.
func RoleID(name string) Role {
	return Role(crypto.Keccak256Hash([]byte(name)))
}

// ParseProfileID parses a 0x-prefixed 32 byte hex string.
func ParseProfileID(s string) (ProfileID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "profile id is required")
	}
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*common.HashLength || !isHex(raw) {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid profile id format")
	}
	id := ProfileID(common.HexToHash(s))
	if id.IsZero() {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "profile id cannot be zero")
	}
	return id, nil
}

// ParseAddress parses an account address. Checksums are not enforced; the zero
// address is rejected because no actor can own it.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	return addr, nil
}

// ParseUint parses a decimal id used in URL paths.
func ParseUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid numeric id")
	}
	return v, nil
}

// DeriveProfileID computes keccak256(abi.encodePacked(uint256 nonce, address owner)).
func DeriveProfileID(nonce uint64, owner common.Address) ProfileID {
	word := common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 32)
	return ProfileID(crypto.Keccak256Hash(word, owner.Bytes()))
}

// DeriveAnchor computes the anchor address of a profile name: the low 20 bytes
// of keccak256(profileId ‖ name). Renaming a profile moves its anchor.
func DeriveAnchor(profileID ProfileID, name string) common.Address {
	h := crypto.Keccak256(profileID.Bytes(), []byte(name))
	return common.BytesToAddress(h[12:])
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
