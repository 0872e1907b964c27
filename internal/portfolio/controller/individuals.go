package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/portfolio/session"
	"github.com/gartstein/vcpms/internal/portfolio/storage"
	"go.uber.org/zap"
)

// MaxPastExperiences bounds the experience entries of one individual form.
const MaxPastExperiences = 5

// IndividualForm is the individual form with its address and experience
// sub-forms. A blank address or experience entry is skipped.
type IndividualForm struct {
	Individual  models.IndividualInput   `json:"individual"`
	Address     models.AddressInput      `json:"address"`
	Experiences []models.ExperienceInput `json:"experiences"`
}

// build validates every sub-form. Experience errors are keyed
// "experiences-<n>-<field>".
func (f IndividualForm) build() (*models.Individual, *models.ResidentialAddress, []models.PastExperience, error) {
	v := e.NewValidationError()
	ind, err := models.NewIndividual(f.Individual)
	mergeInto(v, err, "")

	var addr *models.ResidentialAddress
	if !f.Address.Empty() {
		addr, err = f.Address.Build()
		mergeInto(v, err, "")
	}

	if len(f.Experiences) > MaxPastExperiences {
		v.Add("experiences", fmt.Sprintf("At most %d past experiences can be recorded.", MaxPastExperiences))
	}
	var exps []models.PastExperience
	for i, in := range f.Experiences {
		if in.Empty() {
			continue
		}
		x, err := in.Build()
		if err != nil {
			mergeInto(v, err, fmt.Sprintf("experiences-%d-", i))
			continue
		}
		exps = append(exps, *x)
	}
	if err := v.OrNil(); err != nil {
		return nil, nil, nil, err
	}
	return ind, addr, exps, nil
}

// mergeInto copies field errors of err into v under prefix. Any other error
// lands on the non-field key.
func mergeInto(v *e.ValidationError, err error, prefix string) {
	if err == nil {
		return
	}
	if fe, ok := e.AsValidation(err); ok {
		for field, msg := range fe.Fields {
			v.Add(prefix+field, msg)
		}
		return
	}
	v.Add(e.NonFieldKey, err.Error())
}

type IndividualService struct {
	repo     Repository
	files    storage.FileStorage
	producer EventProducer
	logger   *zap.Logger
}

func NewIndividualService(repo Repository, files storage.FileStorage, producer EventProducer, logger *zap.Logger) *IndividualService {
	return &IndividualService{
		repo:     repo,
		files:    files,
		producer: producer,
		logger:   logger.Named("individual_service"),
	}
}

// CreateIndividual stores the individual with its address and experiences
// in one transaction.
func (s *IndividualService) CreateIndividual(ctx context.Context, form IndividualForm) (*models.Individual, error) {
	ind, addr, exps, err := form.build()
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateIndividual(ctx, ind, addr, exps); err != nil {
		return nil, fmt.Errorf("failed to create individual: %w", err)
	}
	s.producer.Produce(events.IndividualCreated, ind.ID, ind)
	return ind, nil
}

func (s *IndividualService) GetIndividual(ctx context.Context, id uint) (*models.Individual, error) {
	ind, err := s.repo.GetIndividual(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get individual: %w", err)
	}
	return ind, nil
}

// Form returns the current values of an individual as a form, for
// prefilling the update page.
func (s *IndividualService) Form(ctx context.Context, id uint) (IndividualForm, error) {
	ind, err := s.GetIndividual(ctx, id)
	if err != nil {
		return IndividualForm{}, err
	}
	form := IndividualForm{Individual: ind.Input()}
	if len(ind.ResidentialAddresses) > 0 {
		form.Address = ind.ResidentialAddresses[0].Input()
	}
	for i := range ind.PastExperiences {
		form.Experiences = append(form.Experiences, ind.PastExperiences[i].Input())
	}
	return form, nil
}

// UpdateIndividual replaces the profile fields, the address and the
// experiences. Archive state, content type and picture are kept.
func (s *IndividualService) UpdateIndividual(ctx context.Context, id uint, form IndividualForm) (*models.Individual, error) {
	current, err := s.GetIndividual(ctx, id)
	if err != nil {
		return nil, err
	}
	_, addr, exps, err := form.build()
	if err != nil {
		return nil, err
	}
	form.Individual.Apply(current)
	current.ResidentialAddresses, current.PastExperiences = nil, nil
	if err := s.repo.UpdateIndividual(ctx, current, addr, exps); err != nil {
		return nil, fmt.Errorf("failed to update individual: %w", err)
	}
	s.producer.Produce(events.IndividualUpdated, current.ID, current)
	return current, nil
}

func (s *IndividualService) DeleteIndividual(ctx context.Context, id uint) error {
	ind, err := s.GetIndividual(ctx, id)
	if err != nil {
		return err
	}
	docs, err := s.repo.DeleteIndividual(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete individual: %w", err)
	}
	if ind.ProfilePic != "" {
		if err := s.files.Delete(ind.ProfilePic); err != nil {
			s.logger.Warn("failed to remove profile picture", zap.String("path", ind.ProfilePic), zap.Error(err))
		}
	}
	s.producer.Produce(events.IndividualDeleted, id, nil)
	if err := removeStoredFiles(s.files, s.logger, docs); err != nil {
		s.logger.Warn("individual deleted with orphaned files", zap.Uint("individual_id", id))
	}
	return nil
}

func (s *IndividualService) SetArchived(ctx context.Context, id uint, archived bool) error {
	if err := s.repo.SetIndividualArchived(ctx, id, archived); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to archive individual: %w", err)
	}
	eventType := events.IndividualArchived
	if !archived {
		eventType = events.IndividualUnarchived
	}
	s.producer.Produce(eventType, id, nil)
	return nil
}

// SetProfilePicture stores an image as the individual's picture, replacing
// any previous one.
func (s *IndividualService) SetProfilePicture(ctx context.Context, id uint, up Upload) (*models.Individual, error) {
	if !models.IsImageFile(up.Name) {
		return nil, e.FieldError("profile_pic", "Upload a valid image.")
	}
	ind, err := s.GetIndividual(ctx, id)
	if err != nil {
		return nil, err
	}
	rel, err := s.files.Save(storage.ProfilePicturesDir, up.Name, up.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store picture: %w", err)
	}
	previous := ind.ProfilePic
	if err := s.repo.SetIndividualProfilePic(ctx, id, rel); err != nil {
		_ = s.files.Delete(rel)
		return nil, fmt.Errorf("failed to update individual: %w", err)
	}
	ind.ProfilePic = rel
	if previous != "" && previous != rel {
		if err := s.files.Delete(previous); err != nil {
			s.logger.Warn("failed to remove previous picture", zap.String("path", previous), zap.Error(err))
		}
	}
	s.producer.Produce(events.IndividualUpdated, ind.ID, ind)
	return ind, nil
}

// IndividualDetail is everything the individual profile page shows.
type IndividualDetail struct {
	Individual       *models.Individual               `json:"individual"`
	Kind             models.ContentType               `json:"kind"`
	Investor         *models.Investor                 `json:"investor,omitempty"`
	FounderCompanies []models.Company                 `json:"founder_companies"`
	Documents        []models.Document                `json:"documents"`
	Investments      listing.Page[models.Investment] `json:"investments"`
}

// IndividualDetail resolves the individual to its concrete profile and
// gathers the page. Archived individuals are only shown to staff.
func (s *IndividualService) IndividualDetail(ctx context.Context, rc *session.RequestContext, id uint, page int) (*IndividualDetail, error) {
	profile, err := s.repo.ResolveConcrete(ctx, id)
	if err != nil {
		return nil, err
	}
	ind := profile.Base()
	if ind.IsArchived && !rc.IsStaff() {
		return nil, e.ErrForbidden
	}
	d := &IndividualDetail{Individual: ind, Kind: profile.Kind(), FounderCompanies: []models.Company{}}

	if f, err := s.repo.GetFounderByIndividual(ctx, id); err == nil {
		if f.CompanyFounded != nil {
			d.FounderCompanies = append(d.FounderCompanies, *f.CompanyFounded)
		}
	} else if !errors.Is(err, e.ErrNotFound) {
		return nil, err
	}
	if inv, err := s.repo.GetInvestorByIndividual(ctx, id); err == nil {
		d.Investor = inv
	} else if !errors.Is(err, e.ErrNotFound) {
		return nil, err
	}
	if d.Documents, err = s.repo.DocumentsFor(ctx, models.Owner{Kind: models.OwnerIndividual, ID: id}); err != nil {
		return nil, err
	}
	investments, err := s.repo.InvestmentsForIndividual(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Investments = listing.Paginate(investments, page, listing.InvestmentsPageSize)
	return d, nil
}

// IndividualChoices lists every individual for the select boxes of other
// forms.
func (s *IndividualService) IndividualChoices(ctx context.Context) ([]models.Individual, error) {
	return s.repo.ListIndividuals(ctx)
}
