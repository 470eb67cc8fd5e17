package postgres

import (
	"context"
	"database/sql"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/platform/postgres"
	"seal/pkg/platform/tx"
)

const (
	settingsScope = "registry"
	keyProvider   = "attestation_provider"
)

// SettingsStore keeps registry settings in the shared settings table. The
// fallback provider applies until one is stored.
type SettingsStore struct {
	db       *sql.DB
	fallback common.Address
}

func NewSettingsStore(db *sql.DB, fallback common.Address) *SettingsStore {
	return &SettingsStore{db: db, fallback: fallback}
}

func (s *SettingsStore) AttestationProvider(ctx context.Context) (common.Address, error) {
	v, ok, err := postgres.GetSetting(ctx, tx.Exec(ctx, s.db), settingsScope, keyProvider)
	if err != nil {
		return common.Address{}, err
	}
	if !ok {
		return s.fallback, nil
	}
	return common.HexToAddress(v), nil
}

func (s *SettingsStore) SetAttestationProvider(ctx context.Context, provider common.Address) error {
	return postgres.PutSetting(ctx, tx.Exec(ctx, s.db), settingsScope, keyProvider, provider.Hex())
}
