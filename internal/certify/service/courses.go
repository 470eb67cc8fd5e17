package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/certify/models"
	"seal/internal/events"
	"seal/internal/strategy"
	"seal/pkg/domain"
	"seal/pkg/requestcontext"
)

// AddToCloneableCourse allows template to be cloned into new courses.
func (s *Service) AddToCloneableCourse(ctx context.Context, template strategy.Template) (*strategy.Template, error) {
	if err := s.owner.RequireOwner(ctx); err != nil {
		return nil, err
	}
	var added *strategy.Template
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if added, err = s.catalog.Add(ctx, template); err != nil {
			return err
		}
		return s.emit(ctx, events.CloneableCourseAdded, added.Address.Hex(), map[string]string{
			"course": added.Address.Hex(),
			"name":   added.Name,
			"symbol": added.Symbol,
		})
	})
	if err != nil {
		return nil, wrapErr(err, "failed to add cloneable course")
	}
	s.logger.InfoContext(ctx, "cloneable course added",
		"request_id", requestcontext.RequestID(ctx),
		"course", added.Address.Hex(),
	)
	return added, nil
}

func (s *Service) RemoveFromCloneableCourse(ctx context.Context, template common.Address) error {
	if err := s.owner.RequireOwner(ctx); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.catalog.Remove(ctx, template); err != nil {
			return err
		}
		return s.emit(ctx, events.CloneableCourseRemoved, template.Hex(), map[string]string{
			"course": template.Hex(),
		})
	})
	if err != nil {
		return wrapErr(err, "failed to remove cloneable course")
	}
	s.logger.InfoContext(ctx, "cloneable course removed",
		"request_id", requestcontext.RequestID(ctx),
		"course", template.Hex(),
	)
	return nil
}

func (s *Service) IsCloneableCourse(ctx context.Context, template common.Address) (bool, error) {
	return s.catalog.IsCloneable(ctx, template)
}

func (s *Service) ListCloneableCourses(ctx context.Context) ([]strategy.Template, error) {
	return s.catalog.List(ctx)
}

func (s *Service) GetCourse(ctx context.Context, id domain.CourseID) (*models.Course, error) {
	c, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err, "failed to load course")
	}
	return c, nil
}

func (s *Service) ListCoursesByProfile(ctx context.Context, profileID domain.ProfileID) ([]*models.Course, error) {
	out, err := s.courses.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, wrapErr(err, "failed to list courses")
	}
	return out, nil
}

func (s *Service) ListCertificates(ctx context.Context, id domain.CourseID) ([]models.Certificate, error) {
	if _, err := s.GetCourse(ctx, id); err != nil {
		return nil, err
	}
	out, err := s.courses.ListCertificates(ctx, id)
	if err != nil {
		return nil, wrapErr(err, "failed to list certificates")
	}
	return out, nil
}
