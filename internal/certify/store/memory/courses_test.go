package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seal/internal/certify/models"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

var (
	admin   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	student = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
)

func newCourse(id domain.CourseID, profileID domain.ProfileID) *models.Course {
	return &models.Course{ID: id, ProfileID: profileID, Admin: admin, Managers: []common.Address{admin}, Metadata: []string{"Solidity 101"}, CreatedAt: time.Now()}
}

func TestCourseStore(t *testing.T) {
	ctx := context.Background()
	store := NewCourseStore()
	profileID := domain.DeriveProfileID(1, admin)

	t.Run("ids are dense", func(t *testing.T) {
		next, err := store.NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.CourseID(1), next)
		require.NoError(t, store.Create(ctx, newCourse(1, profileID)))

		err = store.Create(ctx, newCourse(3, profileID))
		assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
	})

	t.Run("reads are copies", func(t *testing.T) {
		c, err := store.FindByID(ctx, 1)
		require.NoError(t, err)
		c.Managers[0] = student
		c.Metadata[0] = "changed"

		again, err := store.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, admin, again.Managers[0])
		assert.Equal(t, []string{"Solidity 101"}, again.Metadata)
	})

	t.Run("ids beyond the int range are not found", func(t *testing.T) {
		assert.NotPanics(t, func() {
			_, err := store.FindByID(ctx, domain.CourseID(1<<63))
			assert.ErrorIs(t, err, sentinel.ErrNotFound)
		})
	})

	t.Run("mint numbers tokens", func(t *testing.T) {
		minted, err := store.Mint(ctx, 1, []common.Address{student, admin}, 5, time.Now())
		require.NoError(t, err)
		require.Len(t, minted, 2)
		assert.Equal(t, domain.TokenID(1), minted[0].TokenID)
		assert.Equal(t, domain.TokenID(2), minted[1].TokenID)

		_, err = store.Mint(ctx, 9, []common.Address{student}, 5, time.Now())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("rollback undoes create and mint", func(t *testing.T) {
		runner := tx.NewMemoryRunner()
		err := runner.RunInTx(ctx, func(ctx context.Context) error {
			if err := store.Create(ctx, newCourse(2, profileID)); err != nil {
				return err
			}
			if _, err := store.Mint(ctx, 1, []common.Address{student}, 6, time.Now()); err != nil {
				return err
			}
			return errors.New("abort")
		})
		require.Error(t, err)

		next, err := store.NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.CourseID(2), next)
		certs, err := store.ListCertificates(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, certs, 2)
		c, err := store.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), c.Minted)
	})

	t.Run("list by profile", func(t *testing.T) {
		list, err := store.ListByProfile(ctx, profileID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = store.ListByProfile(ctx, domain.DeriveProfileID(2, admin))
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
