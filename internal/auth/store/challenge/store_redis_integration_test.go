//go:build integration

package challenge_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"seal/internal/auth/models"
	"seal/internal/auth/store/challenge"
	"seal/pkg/platform/sentinel"
	"seal/pkg/testutil/containers"
)

type RedisChallengeSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *challenge.RedisStore
}

func TestRedisChallengeSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisChallengeSuite))
}

func (s *RedisChallengeSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = challenge.NewRedis(s.redis.Client)
}

func (s *RedisChallengeSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisChallengeSuite) TestTakeConsumes() {
	ctx := context.Background()
	addr := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	now := time.Now().UTC().Truncate(time.Second)
	c := models.Challenge{Address: addr, Nonce: "n-1", Message: "sign me", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}

	s.Require().NoError(s.store.Save(ctx, c, time.Minute))

	got, err := s.store.Take(ctx, addr)
	s.Require().NoError(err)
	s.Equal("n-1", got.Nonce)
	s.Equal("sign me", got.Message)
	s.True(got.ExpiresAt.Equal(c.ExpiresAt))

	_, err = s.store.Take(ctx, addr)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisChallengeSuite) TestSaveReplacesAndExpires() {
	ctx := context.Background()
	addr := common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	s.Require().NoError(s.store.Save(ctx, models.Challenge{Address: addr, Nonce: "old"}, time.Minute))
	s.Require().NoError(s.store.Save(ctx, models.Challenge{Address: addr, Nonce: "new"}, time.Minute))

	ttl, err := s.redis.Client.TTL(ctx, "seal:auth:challenge:"+"0x0000000000000000000000000000000000000b0b").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	got, err := s.store.Take(ctx, addr)
	s.Require().NoError(err)
	s.Equal("new", got.Nonce)
}
