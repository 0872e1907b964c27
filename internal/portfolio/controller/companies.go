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
	"github.com/gartstein/vcpms/internal/pkg/utils"
	"go.uber.org/zap"
)

// CompanyService provides methods to manage companies via repository
// operations and event production.
type CompanyService struct {
	repo     Repository
	files    storage.FileStorage
	producer EventProducer
	logger   *zap.Logger
	now      Clock
}

func NewCompanyService(repo Repository, files storage.FileStorage, producer EventProducer, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		files:    files,
		producer: producer,
		logger:   logger.Named("company_service"),
		now:      systemClock,
	}
}

// checkUnique flags every unique company field already used by another row.
func (s *CompanyService) checkUnique(ctx context.Context, c *models.Company) error {
	v := e.NewValidationError()
	fields := []struct {
		column, label string
		value         string
	}{
		{"name", "Name", c.Name},
		{"trading_names", "Trading names", utils.Deref(c.TradingNames)},
		{"previous_names", "Previous names", utils.Deref(c.PreviousNames)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		taken, err := s.repo.CompanyFieldTaken(ctx, f.column, f.value, c.ID)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", f.column, err)
		}
		if taken {
			v.Add(f.column, "Company with this "+f.label+" already exists.")
		}
	}
	return v.OrNil()
}

// CreateCompany validates the form, checks uniqueness and stores the company.
func (s *CompanyService) CreateCompany(ctx context.Context, in models.CompanyInput) (*models.Company, error) {
	company, err := models.NewCompany(in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, company); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	s.producer.Produce(events.CompanyCreated, company.ID, company)
	return company, nil
}

func (s *CompanyService) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// UpdateCompany applies the form to an existing company. The archived flag
// is left alone.
func (s *CompanyService) UpdateCompany(ctx context.Context, id uint, in models.CompanyInput) (*models.Company, error) {
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.Apply(company, s.now())
	if err := s.checkUnique(ctx, company); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	s.producer.Produce(events.CompanyUpdated, company.ID, company)
	return company, nil
}

// CompanyByRegistrationNumber returns the oldest company registered under
// number.
func (s *CompanyService) CompanyByRegistrationNumber(ctx context.Context, number string) (*models.Company, error) {
	c, err := s.repo.GetCompanyByRegistrationNumber(ctx, number)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// DeleteCompany removes the company and everything hanging off it, then the
// files of its documents.
func (s *CompanyService) DeleteCompany(ctx context.Context, id uint) error {
	docs, err := s.repo.DeleteCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete company: %w", err)
	}
	s.producer.Produce(events.CompanyDeleted, id, nil)
	if err := removeStoredFiles(s.files, s.logger, docs); err != nil {
		s.logger.Warn("company deleted with orphaned files", zap.Uint("company_id", id))
	}
	return nil
}

// SetArchived archives or unarchives the company. Repeating either is a
// no-op.
func (s *CompanyService) SetArchived(ctx context.Context, id uint, archived bool) error {
	if err := s.repo.SetCompanyArchived(ctx, id, archived); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to archive company: %w", err)
	}
	eventType := events.CompanyArchived
	if !archived {
		eventType = events.CompanyUnarchived
	}
	s.producer.Produce(eventType, id, nil)
	return nil
}

// CompanyDetail is everything the company page shows.
type CompanyDetail struct {
	Company             *models.Company                  `json:"company"`
	IsInvestor          bool                             `json:"is_investor_company"`
	IsPortfolio         bool                             `json:"is_portfolio_company"`
	Programmes          []models.Programme               `json:"programmes"`
	Documents           []models.Document                `json:"documents"`
	Founders            []models.Individual              `json:"founders"`
	CompanyInvestors    []models.Company                 `json:"company_investors"`
	IndividualInvestors []models.Individual              `json:"individual_investors"`
	CoachesMentors      []models.Individual              `json:"coaches_mentors"`
	Investments         listing.Page[models.Investment] `json:"investments"`
}

// CompanyDetail gathers the company page. Archived companies are only shown
// to staff; everyone else gets ErrForbidden.
func (s *CompanyService) CompanyDetail(ctx context.Context, rc *session.RequestContext, id uint, page int) (*CompanyDetail, error) {
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if company.IsArchived && !rc.IsStaff() {
		return nil, e.ErrForbidden
	}
	d := &CompanyDetail{Company: company}

	_, err = s.repo.GetInvestorByCompany(ctx, id)
	if d.IsInvestor, err = found(err); err != nil {
		return nil, err
	}
	_, err = s.repo.GetPortfolioCompanyByCompany(ctx, id)
	if d.IsPortfolio, err = found(err); err != nil {
		return nil, err
	}
	if d.Programmes, err = s.repo.ProgrammesForParticipant(ctx, id); err != nil {
		return nil, err
	}
	if d.Documents, err = s.repo.DocumentsFor(ctx, models.Owner{Kind: models.OwnerCompany, ID: id}); err != nil {
		return nil, err
	}
	if d.Founders, err = s.repo.FoundersOfCompany(ctx, id); err != nil {
		return nil, err
	}
	investments, err := s.repo.InvestmentsForCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Investments = listing.Paginate(investments, page, listing.InvestmentsPageSize)
	d.CompanyInvestors, d.IndividualInvestors = investorsOf(id, investments)
	d.CoachesMentors = coachesOf(d.Programmes)
	return d, nil
}

// investorsOf lists, without repeats, who invested in the company.
func investorsOf(companyID uint, investments []models.Investment) ([]models.Company, []models.Individual) {
	companies := []models.Company{}
	individuals := []models.Individual{}
	seen := map[uint]bool{}
	for _, inv := range investments {
		if inv.Startup == nil || inv.Startup.ParentCompanyID != companyID || inv.Investor == nil {
			continue
		}
		if seen[inv.InvestorID] {
			continue
		}
		seen[inv.InvestorID] = true
		switch {
		case inv.Investor.Company != nil:
			companies = append(companies, *inv.Investor.Company)
		case inv.Investor.Individual != nil:
			individuals = append(individuals, *inv.Investor.Individual)
		}
	}
	return companies, individuals
}

func coachesOf(programmes []models.Programme) []models.Individual {
	out := []models.Individual{}
	seen := map[uint]bool{}
	for _, p := range programmes {
		for _, ind := range p.CoachesMentors {
			if !seen[ind.ID] {
				seen[ind.ID] = true
				out = append(out, ind)
			}
		}
	}
	return out
}

// CompanyChoices lists every company for the select boxes of other forms.
func (s *CompanyService) CompanyChoices(ctx context.Context) ([]models.Company, error) {
	return s.repo.ListCompanies(ctx)
}
