package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"go.uber.org/zap"
)

// FounderService links individuals to the company they founded. Founder
// records are addressed by the founding individual's id.
type FounderService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

func NewFounderService(repo Repository, producer EventProducer, logger *zap.Logger) *FounderService {
	return &FounderService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("founder_service"),
	}
}

// check flags unknown ids and an individual who already founded a company.
func (s *FounderService) check(ctx context.Context, f *models.Founder) error {
	v := e.NewValidationError()
	_, err := s.repo.GetCompany(ctx, f.CompanyFoundedID)
	ok, err := found(err)
	if err != nil {
		return err
	}
	if !ok {
		v.Add("companyFounded", invalidChoice)
	}
	_, err = s.repo.GetIndividual(ctx, f.IndividualFounderID)
	if ok, err = found(err); err != nil {
		return err
	}
	if !ok {
		v.Add("individualFounder", invalidChoice)
		return v
	}
	existing, err := s.repo.GetFounderByIndividual(ctx, f.IndividualFounderID)
	if ok, err = found(err); err != nil {
		return err
	}
	if ok && existing.ID != f.ID {
		v.Add("individualFounder", "Founder with this Individual founder already exists.")
	}
	return v.OrNil()
}

func (s *FounderService) save(ctx context.Context, f *models.Founder, store func(context.Context, *models.Founder) error) error {
	if err := s.check(ctx, f); err != nil {
		return err
	}
	if err := store(ctx, f); err != nil {
		if errors.Is(err, e.ErrDuplicate) {
			return e.FieldError("companyFounded", "Founder with this Company founded already exists.")
		}
		return err
	}
	return nil
}

func (s *FounderService) CreateFounder(ctx context.Context, in models.FounderInput) (*models.Founder, error) {
	f, err := models.NewFounder(in)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, f, s.repo.CreateFounder); err != nil {
		if _, ok := e.AsValidation(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create founder: %w", err)
	}
	s.producer.Produce(events.FounderCreated, f.ID, f)
	return f, nil
}

// Founder returns the founder record of an individual.
func (s *FounderService) Founder(ctx context.Context, individualID uint) (*models.Founder, error) {
	return s.repo.GetFounderByIndividual(ctx, individualID)
}

// UpdateFounder moves the individual's founder link to the company and
// individual named by the form.
func (s *FounderService) UpdateFounder(ctx context.Context, individualID uint, in models.FounderInput) (*models.Founder, error) {
	current, err := s.repo.GetFounderByIndividual(ctx, individualID)
	if err != nil {
		return nil, err
	}
	f, err := models.NewFounder(in)
	if err != nil {
		return nil, err
	}
	f.ID = current.ID
	if err := s.save(ctx, f, s.repo.UpdateFounder); err != nil {
		if _, ok := e.AsValidation(err); ok || errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update founder: %w", err)
	}
	s.producer.Produce(events.FounderUpdated, f.ID, f)
	return f, nil
}

// DeleteFounder removes the individual's founder link. The individual
// itself stays.
func (s *FounderService) DeleteFounder(ctx context.Context, individualID uint) error {
	f, err := s.repo.GetFounderByIndividual(ctx, individualID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteFounder(ctx, f.ID); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete founder: %w", err)
	}
	s.producer.Produce(events.FounderDeleted, f.ID, nil)
	return nil
}
