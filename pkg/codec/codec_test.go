package codec

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
)

var (
	owner   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	member  = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	course  = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	student = common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")
)

func TestProfileCreation(t *testing.T) {
	in := ProfileCreation{Nonce: 1, Name: "educateth", Members: []common.Address{owner, member}}
	data, err := EncodeProfileCreation(in)
	require.NoError(t, err)

	out, err := DecodeProfileCreation(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	t.Run("nil members encode as empty array", func(t *testing.T) {
		data, err := EncodeProfileCreation(ProfileCreation{Nonce: 2, Name: "ETHKipu"})
		require.NoError(t, err)
		out, err := DecodeProfileCreation(data)
		require.NoError(t, err)
		assert.Empty(t, out.Members)
	})

	t.Run("nonce above uint64 is rejected", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 80)
		data, err := profileCreationArgs.Pack(huge, "x", []common.Address{})
		require.NoError(t, err)
		_, err = DecodeProfileCreation(data)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := DecodeProfileCreation([]byte{0x01, 0x02})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = DecodeProfileCreation(nil)
		require.Error(t, err)
	})
}

func TestStrategyData(t *testing.T) {
	profileID := domain.DeriveProfileID(1, owner)
	in := StrategyData{
		ProfileID: profileID,
		Course:    course,
		Managers:  []common.Address{member},
		IsMint:    true,
		CourseID:  3,
		Account:   student,
	}
	data, err := EncodeStrategyData(in)
	require.NoError(t, err)

	// static head: profileId, course, managers offset, isMint, courseId, account
	require.GreaterOrEqual(t, len(data), 6*32)
	assert.Equal(t, profileID.Bytes(), data[0:32])
	assert.Equal(t, common.LeftPadBytes(course.Bytes(), 32), data[32:64])
	assert.Equal(t, byte(1), data[127])
	assert.Equal(t, byte(3), data[159])

	out, err := DecodeStrategyData(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestActivityData(t *testing.T) {
	in := ActivityData{
		StrategyData: StrategyData{
			ProfileID: domain.DeriveProfileID(4, owner),
			Course:    course,
			Managers:  []common.Address{},
		},
		Credits: 25,
	}
	data, err := EncodeActivityData(in)
	require.NoError(t, err)

	out, err := DecodeActivityData(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	t.Run("strategy payload is not an activity payload", func(t *testing.T) {
		short, err := EncodeStrategyData(in.StrategyData)
		require.NoError(t, err)
		_, err = DecodeActivityData(short[:6*32])
		require.Error(t, err)
	})
}

func TestCourseDefinition(t *testing.T) {
	in := CourseDefinition{
		ProfileID: domain.DeriveProfileID(1, owner),
		Managers:  []common.Address{member},
		Metadata:  []string{"Solidity 101", "ipfs://bafy"},
	}
	data, err := EncodeCourseDefinition(in)
	require.NoError(t, err)

	out, err := DecodeCourseDefinition(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRecipientAddress(t *testing.T) {
	t.Run("raw address", func(t *testing.T) {
		addr, err := RecipientAddress(student.Bytes())
		require.NoError(t, err)
		assert.Equal(t, student, addr)
	})

	t.Run("right padded", func(t *testing.T) {
		addr, err := RecipientAddress(EncodeRecipient(student))
		require.NoError(t, err)
		assert.Equal(t, student, addr)
	})

	t.Run("left padded abi word", func(t *testing.T) {
		addr, err := RecipientAddress(common.LeftPadBytes(student.Bytes(), 32))
		require.NoError(t, err)
		assert.Equal(t, student, addr)
	})

	t.Run("zero is rejected", func(t *testing.T) {
		_, err := RecipientAddress(make([]byte, 32))
		require.Error(t, err)
		assert.Contains(t, dErrors.MessageOf(err), "ZERO_ADDRESS")
	})

	t.Run("odd length is rejected", func(t *testing.T) {
		_, err := RecipientAddress(make([]byte, 21))
		require.Error(t, err)
	})
}
