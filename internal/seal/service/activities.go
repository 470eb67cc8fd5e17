package service

import (
	"context"

	"seal/internal/seal/models"
	"seal/pkg/domain"
)

func (s *Service) GetActivity(ctx context.Context, id domain.ActivityID) (*models.Activity, error) {
	a, err := s.activities.FindByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err, "failed to load activity")
	}
	return a, nil
}

func (s *Service) ListActivitiesByProfile(ctx context.Context, profileID domain.ProfileID) ([]*models.Activity, error) {
	out, err := s.activities.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, wrapErr(err, "failed to list activities")
	}
	return out, nil
}

func (s *Service) ListSeals(ctx context.Context, id domain.ActivityID) ([]models.Seal, error) {
	if _, err := s.GetActivity(ctx, id); err != nil {
		return nil, err
	}
	out, err := s.activities.ListSeals(ctx, id)
	if err != nil {
		return nil, wrapErr(err, "failed to list seals")
	}
	return out, nil
}
