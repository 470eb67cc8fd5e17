package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load([]string{"--auth.jwt_signing_key=secret"})
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, uint64(1), cfg.Credits.MintCost)
		assert.Equal(t, 24*time.Hour, cfg.Redis.DedupeTTL)
		assert.Empty(t, cfg.Kafka.Brokers)

		addrs, err := cfg.Chain.Parse()
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(defaultOwner), addrs.Owner)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("SEAL_AUTH_JWT_SIGNING_KEY", "from-env")
		t.Setenv("SEAL_SERVER_ADDR", ":9090")
		t.Setenv("SEAL_KAFKA_BROKERS", "k1:9092,k2:9092")

		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Auth.JWTSigningKey)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("SEAL_SERVER_ADDR", ":9090")
		cfg, err := Load([]string{"--auth.jwt_signing_key=secret", "--server.addr=:7070", "--credits.mint_cost=3"})
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
		assert.Equal(t, uint64(3), cfg.Credits.MintCost)
	})

	t.Run("signing key is required", func(t *testing.T) {
		_, err := Load(nil)
		require.Error(t, err)
	})

	t.Run("zero chain address is rejected", func(t *testing.T) {
		_, err := Load([]string{"--auth.jwt_signing_key=secret", "--chain.registry=0x0000000000000000000000000000000000000000"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chain.registry")
	})
}
