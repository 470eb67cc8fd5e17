package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/events"
	"seal/internal/seal/models"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/requestcontext"
)

func (s *Service) GetRegistry(ctx context.Context) (common.Address, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return common.Address{}, wrapErr(err, "failed to load settings")
	}
	return settings.Registry, nil
}

func (s *Service) GetStrategy(ctx context.Context) (common.Address, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return common.Address{}, wrapErr(err, "failed to load settings")
	}
	return settings.Strategy, nil
}

func (s *Service) UpdateRegistry(ctx context.Context, registry common.Address) error {
	return s.updateSetting(ctx, events.RegistryUpdated, "registry", "SAME_REGISTRY", registry,
		func(st *models.Settings) *common.Address { return &st.Registry })
}

// UpdateStrategy replaces the activity template new activities are cloned from.
func (s *Service) UpdateStrategy(ctx context.Context, template common.Address) error {
	return s.updateSetting(ctx, events.StrategyUpdated, "strategy", "SAME_STRATEGY", template,
		func(st *models.Settings) *common.Address { return &st.Strategy })
}

func (s *Service) updateSetting(ctx context.Context, t events.Type, name, sameMsg string, value common.Address, field func(*models.Settings) *common.Address) error {
	if err := s.owner.RequireOwner(ctx); err != nil {
		return err
	}
	if value == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	var previous common.Address
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return err
		}
		current := field(&settings)
		if *current == value {
			return dErrors.New(dErrors.CodeConflict, sameMsg)
		}
		previous, *current = *current, value
		if err := s.settings.Put(ctx, settings); err != nil {
			return err
		}
		return s.emit(ctx, t, s.cfg.Address.Hex(), map[string]string{
			name:       value.Hex(),
			"previous": previous.Hex(),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to update "+name)
	}
	s.logger.InfoContext(ctx, name+" updated",
		"request_id", requestcontext.RequestID(ctx),
		"previous", previous.Hex(),
		name, value.Hex(),
	)
	return nil
}
