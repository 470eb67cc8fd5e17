package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"seal/internal/auth/models"
	"seal/pkg/platform/sentinel"
)

const keyPrefix = "seal:auth:challenge:"

// RedisStore shares challenges between instances. Save is SET with the
// challenge TTL; Take is GETDEL, so a challenge is answered at most once.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func key(address common.Address) string {
	return keyPrefix + strings.ToLower(address.Hex())
}

func (s *RedisStore) Save(ctx context.Context, c models.Challenge, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	if err := s.client.Set(ctx, key(c.Address), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, address common.Address) (*models.Challenge, error) {
	raw, err := s.client.GetDel(ctx, key(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel: %w", err)
	}
	var c models.Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return &c, nil
}
