// Package codec encodes and decodes the ABI tuples carried in attestation
// extraData. Layouts match Solidity's abi.encode of the same tuples so that
// payloads produced by ethers or cast decode unchanged.
package codec

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
)

var (
	uint256Type      = mustType("uint256")
	stringType       = mustType("string")
	stringSliceType  = mustType("string[]")
	addressType      = mustType("address")
	addressSliceType = mustType("address[]")
	bytes32Type      = mustType("bytes32")
	boolType         = mustType("bool")
)

// (uint256 nonce, string name, address[] members)
var profileCreationArgs = abi.Arguments{
	{Name: "nonce", Type: uint256Type},
	{Name: "name", Type: stringType},
	{Name: "members", Type: addressSliceType},
}

// (bytes32 profileId, address course, address[] managers, bool isMint, uint256 courseId, address account)
var strategyDataArgs = abi.Arguments{
	{Name: "profileId", Type: bytes32Type},
	{Name: "course", Type: addressType},
	{Name: "managers", Type: addressSliceType},
	{Name: "isMint", Type: boolType},
	{Name: "courseId", Type: uint256Type},
	{Name: "account", Type: addressType},
}

var activityDataArgs = append(append(abi.Arguments{}, strategyDataArgs...),
	abi.Argument{Name: "credits", Type: uint256Type},
)

// (bytes32 profileId, address[] managers, string[] metadata)
var courseDefinitionArgs = abi.Arguments{
	{Name: "profileId", Type: bytes32Type},
	{Name: "managers", Type: addressSliceType},
	{Name: "metadata", Type: stringSliceType},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// ProfileCreation is the extraData of a profile-creating attestation.
type ProfileCreation struct {
	Nonce   uint64
	Name    string
	Members []common.Address
}

// StrategyData is the extraData routed to a strategy host. IsMint selects
// between creating a course/activity and minting into an existing one.
type StrategyData struct {
	ProfileID domain.ProfileID
	Course    common.Address
	Managers  []common.Address
	IsMint    bool
	CourseID  uint64
	Account   common.Address
}

// ActivityData extends StrategyData with the credit budget of a new activity.
type ActivityData struct {
	StrategyData
	Credits uint64
}

// CourseDefinition describes a course's managers and metadata strings.
type CourseDefinition struct {
	ProfileID domain.ProfileID
	Managers  []common.Address
	Metadata  []string
}

func EncodeProfileCreation(p ProfileCreation) ([]byte, error) {
	return profileCreationArgs.Pack(u256(p.Nonce), p.Name, nonNil(p.Members))
}

func DecodeProfileCreation(data []byte) (ProfileCreation, error) {
	values, err := profileCreationArgs.Unpack(data)
	if err != nil {
		return ProfileCreation{}, malformed("profile creation", err)
	}
	d := decoder{values: values}
	out := ProfileCreation{
		Nonce:   d.u64(0, "nonce"),
		Name:    d.str(1),
		Members: d.addresses(2),
	}
	if d.err != nil {
		return ProfileCreation{}, d.err
	}
	return out, nil
}

func EncodeStrategyData(s StrategyData) ([]byte, error) {
	return strategyDataArgs.Pack(strategyValues(s)...)
}

func DecodeStrategyData(data []byte) (StrategyData, error) {
	values, err := strategyDataArgs.Unpack(data)
	if err != nil {
		return StrategyData{}, malformed("strategy data", err)
	}
	d := decoder{values: values}
	out := d.strategy()
	if d.err != nil {
		return StrategyData{}, d.err
	}
	return out, nil
}

func EncodeActivityData(a ActivityData) ([]byte, error) {
	return activityDataArgs.Pack(append(strategyValues(a.StrategyData), u256(a.Credits))...)
}

func DecodeActivityData(data []byte) (ActivityData, error) {
	values, err := activityDataArgs.Unpack(data)
	if err != nil {
		return ActivityData{}, malformed("activity data", err)
	}
	d := decoder{values: values}
	out := ActivityData{StrategyData: d.strategy(), Credits: d.u64(6, "credits")}
	if d.err != nil {
		return ActivityData{}, d.err
	}
	return out, nil
}

func EncodeCourseDefinition(c CourseDefinition) ([]byte, error) {
	metadata := c.Metadata
	if metadata == nil {
		metadata = []string{}
	}
	return courseDefinitionArgs.Pack([32]byte(c.ProfileID), nonNil(c.Managers), metadata)
}

func DecodeCourseDefinition(data []byte) (CourseDefinition, error) {
	values, err := courseDefinitionArgs.Unpack(data)
	if err != nil {
		return CourseDefinition{}, malformed("course definition", err)
	}
	d := decoder{values: values}
	out := CourseDefinition{
		ProfileID: d.bytes32(0),
		Managers:  d.addresses(1),
	}
	if md, ok := values[2].([]string); ok {
		out.Metadata = md
	} else {
		d.fail("metadata")
	}
	if d.err != nil {
		return CourseDefinition{}, d.err
	}
	return out, nil
}

// RecipientAddress decodes one attestation recipient. Accepted layouts are a
// raw 20 byte address, a 32 byte value right-padded with zeros (ethers
// zeroPadBytes) and a 32 byte left-padded ABI word.
func RecipientAddress(b []byte) (common.Address, error) {
	var addr common.Address
	switch {
	case len(b) == common.AddressLength:
		addr = common.BytesToAddress(b)
	case len(b) == 32 && isZero(b[common.AddressLength:]):
		addr = common.BytesToAddress(b[:common.AddressLength])
	case len(b) == 32 && isZero(b[:32-common.AddressLength]):
		addr = common.BytesToAddress(b[32-common.AddressLength:])
	default:
		return common.Address{}, dErrors.Newf(dErrors.CodeValidation, "invalid recipient length %d", len(b))
	}
	if addr == (common.Address{}) {
		return common.Address{}, dErrors.New(dErrors.CodeValidation, "ZERO_ADDRESS")
	}
	return addr, nil
}

// EncodeRecipient right-pads addr to 32 bytes.
func EncodeRecipient(addr common.Address) []byte {
	return common.RightPadBytes(addr.Bytes(), 32)
}

func strategyValues(s StrategyData) []any {
	return []any{
		[32]byte(s.ProfileID),
		s.Course,
		nonNil(s.Managers),
		s.IsMint,
		u256(s.CourseID),
		s.Account,
	}
}

func u256(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

func nonNil(addrs []common.Address) []common.Address {
	if addrs == nil {
		return []common.Address{}
	}
	return addrs
}

func isZero(b []byte) bool {
	return bytes.Count(b, []byte{0}) == len(b)
}

func malformed(what string, err error) error {
	return dErrors.Wrap(err, dErrors.CodeValidation, "malformed "+what+" payload")
}

// decoder pulls typed values out of an Unpack result, keeping the first error.
type decoder struct {
	values []any
	err    error
}

func (d *decoder) fail(field string) {
	if d.err == nil {
		d.err = dErrors.Newf(dErrors.CodeValidation, "unexpected type for %s", field)
	}
}

func (d *decoder) u64(i int, field string) uint64 {
	v, ok := d.values[i].(*big.Int)
	if !ok {
		d.fail(field)
		return 0
	}
	if !v.IsUint64() {
		if d.err == nil {
			d.err = dErrors.Newf(dErrors.CodeValidation, "%s overflows uint64", field)
		}
		return 0
	}
	return v.Uint64()
}

func (d *decoder) str(i int) string {
	v, ok := d.values[i].(string)
	if !ok {
		d.fail("string")
	}
	return v
}

func (d *decoder) flag(i int) bool {
	v, ok := d.values[i].(bool)
	if !ok {
		d.fail("bool")
	}
	return v
}

func (d *decoder) address(i int) common.Address {
	v, ok := d.values[i].(common.Address)
	if !ok {
		d.fail("address")
	}
	return v
}

func (d *decoder) addresses(i int) []common.Address {
	v, ok := d.values[i].([]common.Address)
	if !ok {
		d.fail("address[]")
	}
	return v
}

func (d *decoder) bytes32(i int) domain.ProfileID {
	v, ok := d.values[i].([32]byte)
	if !ok {
		d.fail("bytes32")
	}
	return domain.ProfileID(v)
}

func (d *decoder) strategy() StrategyData {
	return StrategyData{
		ProfileID: d.bytes32(0),
		Course:    d.address(1),
		Managers:  d.addresses(2),
		IsMint:    d.flag(3),
		CourseID:  d.u64(4, "courseId"),
		Account:   d.address(5),
	}
}
