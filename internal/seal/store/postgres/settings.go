package postgres

import (
	"context"
	"database/sql"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/platform/postgres"
	"seal/internal/seal/models"
	"seal/pkg/platform/tx"
)

const (
	settingsScope = "seal"
	keyRegistry   = "registry"
	keyStrategy   = "strategy"
)

// SettingsStore keeps the host's addresses in the shared settings table.
// Unset keys read as the fallback values.
type SettingsStore struct {
	db       *sql.DB
	fallback models.Settings
}

func NewSettingsStore(db *sql.DB, fallback models.Settings) *SettingsStore {
	return &SettingsStore{db: db, fallback: fallback}
}

func (s *SettingsStore) Get(ctx context.Context) (models.Settings, error) {
	exec := tx.Exec(ctx, s.db)
	out := s.fallback
	for key, dst := range map[string]*common.Address{keyRegistry: &out.Registry, keyStrategy: &out.Strategy} {
		v, ok, err := postgres.GetSetting(ctx, exec, settingsScope, key)
		if err != nil {
			return models.Settings{}, err
		}
		if ok {
			*dst = common.HexToAddress(v)
		}
	}
	return out, nil
}

func (s *SettingsStore) Put(ctx context.Context, settings models.Settings) error {
	exec := tx.Exec(ctx, s.db)
	if err := postgres.PutSetting(ctx, exec, settingsScope, keyRegistry, settings.Registry.Hex()); err != nil {
		return err
	}
	return postgres.PutSetting(ctx, exec, settingsScope, keyStrategy, settings.Strategy.Hex())
}
