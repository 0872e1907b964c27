package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/vcpms/internal/portfolio/db"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/portfolio/storage"
	"go.uber.org/zap"
)

type ProgrammeService struct {
	repo     Repository
	files    storage.FileStorage
	producer EventProducer
	logger   *zap.Logger
}

func NewProgrammeService(repo Repository, files storage.FileStorage, producer EventProducer, logger *zap.Logger) *ProgrammeService {
	return &ProgrammeService{
		repo:     repo,
		files:    files,
		producer: producer,
		logger:   logger.Named("programme_service"),
	}
}

func members(in models.ProgrammeInput) db.ProgrammeMembers {
	return db.ProgrammeMembers{
		Partners:       in.Partners,
		Participants:   in.Participants,
		CoachesMentors: in.CoachesMentors,
	}
}

func (s *ProgrammeService) validate(ctx context.Context, in models.ProgrammeInput, cover *Upload, excludeID uint) error {
	v := e.NewValidationError()
	mergeInto(v, in.Validate(), "")
	if cover != nil && !models.IsImageFile(cover.Name) {
		v.Add("cover", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if !v.Has("name") && !v.Has("cohort") {
		taken, err := s.repo.ProgrammeTaken(ctx, in.Name, uint(in.Cohort), excludeID)
		if err != nil {
			return fmt.Errorf("failed to check programme: %w", err)
		}
		if taken {
			v.Add("cohort", "Cohort for this programme already exists")
		}
	}
	return v.OrNil()
}

// saveCover stores an uploaded cover and points the programme at it.
func (s *ProgrammeService) saveCover(ctx context.Context, p *models.Programme, cover *Upload) error {
	rel, err := s.files.Save(storage.CoversDir, cover.Name, cover.Content)
	if err != nil {
		return fmt.Errorf("failed to store cover: %w", err)
	}
	if err := s.repo.SetProgrammeCover(ctx, p.ID, rel); err != nil {
		if rmErr := s.files.Delete(rel); rmErr != nil {
			s.logger.Warn("failed to clean up stored cover", zap.String("path", rel), zap.Error(rmErr))
		}
		return fmt.Errorf("failed to set cover: %w", err)
	}
	previous := p.Cover
	p.Cover = rel
	if previous != "" && previous != rel {
		if err := s.files.Delete(previous); err != nil {
			s.logger.Warn("failed to remove replaced cover", zap.String("path", previous), zap.Error(err))
		}
	}
	return nil
}

// memberError maps an unknown member id onto the member fields.
func memberError(err error) error {
	if errors.Is(err, e.ErrNotFound) {
		v := e.NewValidationError()
		v.Add(e.NonFieldKey, "Select valid members. One of the choices is not one of the available choices.")
		return v
	}
	return err
}

// CreateProgramme stores the programme with its members and an optional
// cover image.
func (s *ProgrammeService) CreateProgramme(ctx context.Context, in models.ProgrammeInput, cover *Upload) (*models.Programme, error) {
	if err := s.validate(ctx, in, cover, 0); err != nil {
		return nil, err
	}
	p := &models.Programme{}
	in.Apply(p)
	if err := s.repo.CreateProgramme(ctx, p, members(in)); err != nil {
		if err = memberError(err); errors.Is(err, e.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create programme: %w", err)
	}
	if cover != nil {
		if err := s.saveCover(ctx, p, cover); err != nil {
			return nil, err
		}
	}
	s.producer.Produce(events.ProgrammeCreated, p.ID, p)
	return p, nil
}

// UpdateProgramme replaces the scalar fields and every membership. The
// cover changes only when a new image is uploaded.
func (s *ProgrammeService) UpdateProgramme(ctx context.Context, id uint, in models.ProgrammeInput, cover *Upload) (*models.Programme, error) {
	p, err := s.GetProgramme(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in, cover, id); err != nil {
		return nil, err
	}
	in.Apply(p)
	if err := s.repo.UpdateProgramme(ctx, p, members(in)); err != nil {
		if err = memberError(err); errors.Is(err, e.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update programme: %w", err)
	}
	if cover != nil {
		if err := s.saveCover(ctx, p, cover); err != nil {
			return nil, err
		}
	}
	s.producer.Produce(events.ProgrammeUpdated, p.ID, p)
	return p, nil
}

func (s *ProgrammeService) GetProgramme(ctx context.Context, id uint) (*models.Programme, error) {
	p, err := s.repo.GetProgramme(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get programme: %w", err)
	}
	return p, nil
}

// DeleteProgramme removes the programme, its memberships and documents,
// then the stored files. File removal failures are only logged.
func (s *ProgrammeService) DeleteProgramme(ctx context.Context, id uint) error {
	p, err := s.GetProgramme(ctx, id)
	if err != nil {
		return err
	}
	docs, err := s.repo.DeleteProgramme(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete programme: %w", err)
	}
	s.producer.Produce(events.ProgrammeDeleted, id, nil)
	if err := removeStoredFiles(s.files, s.logger, docs); err != nil {
		s.logger.Warn("programme deleted with orphaned files", zap.Uint("programme_id", id))
	}
	if p.Cover != "" {
		if err := s.files.Delete(p.Cover); err != nil {
			s.logger.Warn("failed to remove cover", zap.String("path", p.Cover), zap.Error(err))
		}
	}
	return nil
}

// ProgrammeDetail is everything the programme page shows.
type ProgrammeDetail struct {
	Programme *models.Programme `json:"programme"`
	Documents []models.Document `json:"documents"`
}

func (s *ProgrammeService) ProgrammeDetail(ctx context.Context, id uint) (*ProgrammeDetail, error) {
	p, err := s.GetProgramme(ctx, id)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.DocumentsFor(ctx, models.Owner{Kind: models.OwnerProgramme, ID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return &ProgrammeDetail{Programme: p, Documents: docs}, nil
}

// ListProgrammes pages every programme in id order.
func (s *ProgrammeService) ListProgrammes(ctx context.Context, page int) (listing.Page[models.Programme], error) {
	programmes, err := s.repo.ListProgrammes(ctx, "")
	if err != nil {
		return listing.Page[models.Programme]{}, fmt.Errorf("failed to list programmes: %w", err)
	}
	return listing.Paginate(programmes, page, listing.DashboardPageSize), nil
}

// SearchInline returns every programme whose name contains q. The empty
// query matches nothing.
func (s *ProgrammeService) SearchInline(ctx context.Context, q listing.Query) ([]models.Programme, error) {
	if q.Empty() {
		return []models.Programme{}, nil
	}
	programmes, err := s.repo.ListProgrammes(ctx, string(q))
	if err != nil {
		return nil, fmt.Errorf("failed to search programmes: %w", err)
	}
	return programmes, nil
}

// Search pages the programmes whose name contains q.
func (s *ProgrammeService) Search(ctx context.Context, q listing.Query, page int) (listing.Page[models.Programme], error) {
	programmes, err := s.SearchInline(ctx, q)
	if err != nil {
		return listing.Page[models.Programme]{}, err
	}
	return listing.Paginate(programmes, page, listing.DashboardPageSize), nil
}
