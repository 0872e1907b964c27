package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"go.uber.org/zap"
)

const invalidChoice = "Select a valid choice. That choice is not one of the available choices."

// CompanyInvestorInput is the bound "make this company an investor" form.
type CompanyInvestorInput struct {
	CompanyID      uint   `json:"company" form:"company"`
	Classification string `json:"classification" form:"classification"`
}

// IndividualInvestorInput is the bound "make this individual an investor" form.
type IndividualInvestorInput struct {
	IndividualID   uint   `json:"individual" form:"individual"`
	Classification string `json:"classification" form:"classification"`
}

// InvestmentService manages investors, portfolio companies, investments and
// their contract rights.
type InvestmentService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
	now      Clock
}

func NewInvestmentService(repo Repository, producer EventProducer, logger *zap.Logger) *InvestmentService {
	return &InvestmentService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("investment_service"),
		now:      systemClock,
	}
}

// investorError turns the store's refusal of an investor into a form error
// on field.
func investorError(err error, field, label string) error {
	switch {
	case errors.Is(err, e.ErrNotFound), errors.Is(err, e.ErrConflict):
		return e.FieldError(field, invalidChoice)
	case errors.Is(err, e.ErrDuplicate):
		return e.FieldError(field, "Investor with this "+label+" already exists.")
	}
	return fmt.Errorf("failed to create investor: %w", err)
}

// CreateCompanyInvestor makes an existing company an investor. A portfolio
// company is refused.
func (s *InvestmentService) CreateCompanyInvestor(ctx context.Context, in CompanyInvestorInput) (*models.Investor, error) {
	inv, err := models.NewCompanyInvestor(in.CompanyID, in.Classification)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateInvestor(ctx, inv); err != nil {
		return nil, investorError(err, "company", "Company")
	}
	s.producer.Produce(events.InvestorCreated, inv.ID, inv)
	return inv, nil
}

// CreateIndividualInvestor makes an existing individual an investor.
func (s *InvestmentService) CreateIndividualInvestor(ctx context.Context, in IndividualInvestorInput) (*models.Investor, error) {
	inv, err := models.NewIndividualInvestor(in.IndividualID, in.Classification)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateInvestor(ctx, inv); err != nil {
		return nil, investorError(err, "individual", "Individual")
	}
	s.producer.Produce(events.InvestorCreated, inv.ID, inv)
	return inv, nil
}

// CompanyInvestor returns the investor record of a company.
func (s *InvestmentService) CompanyInvestor(ctx context.Context, companyID uint) (*models.Investor, error) {
	return s.repo.GetInvestorByCompany(ctx, companyID)
}

// IndividualInvestor returns the investor record of an individual.
func (s *InvestmentService) IndividualInvestor(ctx context.Context, individualID uint) (*models.Investor, error) {
	return s.repo.GetInvestorByIndividual(ctx, individualID)
}

// UpdateCompanyInvestor changes the classification of a company's investor
// record.
func (s *InvestmentService) UpdateCompanyInvestor(ctx context.Context, companyID uint, classification string) (*models.Investor, error) {
	inv, err := s.repo.GetInvestorByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.reclassify(ctx, inv, classification)
}

// UpdateIndividualInvestor changes the classification of an individual's
// investor record.
func (s *InvestmentService) UpdateIndividualInvestor(ctx context.Context, individualID uint, classification string) (*models.Investor, error) {
	inv, err := s.repo.GetInvestorByIndividual(ctx, individualID)
	if err != nil {
		return nil, err
	}
	return s.reclassify(ctx, inv, classification)
}

func (s *InvestmentService) reclassify(ctx context.Context, inv *models.Investor, classification string) (*models.Investor, error) {
	if err := inv.SetClassification(classification); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateInvestorClassification(ctx, inv.ID, inv.Classification); err != nil {
		return nil, fmt.Errorf("failed to update investor: %w", err)
	}
	s.producer.Produce(events.InvestorUpdated, inv.ID, inv)
	return inv, nil
}

// CreatePortfolioCompany marks a company as a startup of the fund. Investor
// companies and companies that already have the mark are refused.
func (s *InvestmentService) CreatePortfolioCompany(ctx context.Context, in models.PortfolioCompanyInput) (*models.PortfolioCompany, error) {
	pc, err := models.NewPortfolioCompany(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkWayraNumber(ctx, pc.WayraNumber, 0); err != nil {
		return nil, err
	}
	if err := s.repo.CreatePortfolioCompany(ctx, pc); err != nil {
		switch {
		case errors.Is(err, e.ErrNotFound), errors.Is(err, e.ErrConflict):
			return nil, e.FieldError("parent_company", invalidChoice)
		case errors.Is(err, e.ErrDuplicate):
			return nil, e.FieldError("parent_company", "Portfolio company with this Parent company already exists.")
		}
		return nil, fmt.Errorf("failed to create portfolio company: %w", err)
	}
	s.producer.Produce(events.PortfolioCompanyCreated, pc.ID, pc)
	return pc, nil
}

func (s *InvestmentService) checkWayraNumber(ctx context.Context, wayra string, excludeID uint) error {
	taken, err := s.repo.WayraNumberTaken(ctx, wayra, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check wayra number: %w", err)
	}
	if taken {
		return e.FieldError("wayra_number", "Portfolio company with this Wayra number already exists.")
	}
	return nil
}

// PortfolioCompany returns the portfolio record of a company.
func (s *InvestmentService) PortfolioCompany(ctx context.Context, companyID uint) (*models.PortfolioCompany, error) {
	return s.repo.GetPortfolioCompanyByCompany(ctx, companyID)
}

// UpdatePortfolioCompany edits the wayra number of a company's portfolio
// record.
func (s *InvestmentService) UpdatePortfolioCompany(ctx context.Context, companyID uint, wayra string) (*models.PortfolioCompany, error) {
	pc, err := s.repo.GetPortfolioCompanyByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	in := models.PortfolioCompanyInput{ParentCompanyID: companyID, WayraNumber: wayra}
	fresh, err := models.NewPortfolioCompany(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkWayraNumber(ctx, fresh.WayraNumber, pc.ID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateWayraNumber(ctx, pc.ID, fresh.WayraNumber); err != nil {
		return nil, fmt.Errorf("failed to update portfolio company: %w", err)
	}
	pc.WayraNumber = fresh.WayraNumber
	s.producer.Produce(events.PortfolioCompanyUpdated, pc.ID, pc)
	return pc, nil
}

// DeletePortfolioCompany removes a company's portfolio record together with
// the investments made in it. The company itself stays.
func (s *InvestmentService) DeletePortfolioCompany(ctx context.Context, companyID uint) error {
	pc, err := s.repo.GetPortfolioCompanyByCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePortfolioCompany(ctx, pc.ID); err != nil {
		return fmt.Errorf("failed to delete portfolio company: %w", err)
	}
	s.producer.Produce(events.PortfolioCompanyDeleted, pc.ID, nil)
	return nil
}

// InvestmentChoices are the options of the investment form's select boxes.
type InvestmentChoices struct {
	Investors []models.Investor         `json:"investors"`
	Startups  []models.PortfolioCompany `json:"startups"`
	Rounds    []models.FundingRound     `json:"rounds"`
}

func (s *InvestmentService) Choices(ctx context.Context) (*InvestmentChoices, error) {
	investors, err := s.repo.ListInvestors(ctx)
	if err != nil {
		return nil, err
	}
	startups, err := s.repo.ListPortfolioCompanies(ctx)
	if err != nil {
		return nil, err
	}
	return &InvestmentChoices{Investors: investors, Startups: startups, Rounds: models.FundingRounds}, nil
}

// checkParties flags an investor or startup id that does not exist.
func (s *InvestmentService) checkParties(ctx context.Context, inv *models.Investment) error {
	v := e.NewValidationError()
	_, err := s.repo.GetInvestor(ctx, inv.InvestorID)
	ok, err := found(err)
	if err != nil {
		return err
	}
	if !ok {
		v.Add("investor", invalidChoice)
	}
	_, err = s.repo.GetPortfolioCompany(ctx, inv.StartupID)
	if ok, err = found(err); err != nil {
		return err
	}
	if !ok {
		v.Add("startup", invalidChoice)
	}
	return v.OrNil()
}

// CreateInvestment records an investment from the form.
func (s *InvestmentService) CreateInvestment(ctx context.Context, in models.InvestmentInput) (*models.Investment, error) {
	inv, err := in.Build(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.repo.CreateInvestment(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create investment: %w", err)
	}
	s.producer.Produce(events.InvestmentCreated, inv.ID, inv)
	return inv, nil
}

func (s *InvestmentService) GetInvestment(ctx context.Context, id uint) (*models.Investment, error) {
	inv, err := s.repo.GetInvestment(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

// RedirectCompany is the company page an investment's forms return to: the
// startup's parent company.
func RedirectCompany(inv *models.Investment) uint {
	if inv.Startup != nil {
		return inv.Startup.ParentCompanyID
	}
	return 0
}

// UpdateInvestment replaces every field of the investment with the form.
func (s *InvestmentService) UpdateInvestment(ctx context.Context, id uint, in models.InvestmentInput) (*models.Investment, error) {
	current, err := s.GetInvestment(ctx, id)
	if err != nil {
		return nil, err
	}
	inv, err := in.Build(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, inv); err != nil {
		return nil, err
	}
	inv.ID = current.ID
	if err := s.repo.UpdateInvestment(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to update investment: %w", err)
	}
	s.producer.Produce(events.InvestmentUpdated, inv.ID, inv)
	return s.GetInvestment(ctx, id)
}

// DeleteInvestment removes the investment and its contract rights. The
// deleted record is returned so callers can redirect to its company.
func (s *InvestmentService) DeleteInvestment(ctx context.Context, id uint) (*models.Investment, error) {
	inv, err := s.GetInvestment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteInvestment(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete investment: %w", err)
	}
	s.producer.Produce(events.InvestmentDeleted, id, nil)
	return inv, nil
}

// ContractRights is one page of an investment's contract rights.
type ContractRights struct {
	Investment *models.Investment                `json:"investment"`
	Page       listing.Page[models.ContractRight] `json:"page"`
}

func (s *InvestmentService) ListContractRights(ctx context.Context, investmentID uint, page int) (*ContractRights, error) {
	inv, err := s.GetInvestment(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	rights, err := s.repo.ContractRightsForInvestment(ctx, investmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contract rights: %w", err)
	}
	return &ContractRights{
		Investment: inv,
		Page:       listing.Paginate(rights, page, listing.ContractRightsPageSize),
	}, nil
}

func (s *InvestmentService) CreateContractRight(ctx context.Context, investmentID uint, in models.ContractRightInput) (*models.ContractRight, error) {
	cr, err := models.NewContractRight(investmentID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateContractRight(ctx, cr); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create contract right: %w", err)
	}
	s.producer.Produce(events.ContractRightCreated, cr.ID, cr)
	return cr, nil
}

// DeleteContractRight removes the right and returns it so callers can go
// back to its investment's list.
func (s *InvestmentService) DeleteContractRight(ctx context.Context, id uint) (*models.ContractRight, error) {
	cr, err := s.repo.GetContractRight(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteContractRight(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete contract right: %w", err)
	}
	s.producer.Produce(events.ContractRightDeleted, id, nil)
	return cr, nil
}

func (s *InvestmentService) GetContractRight(ctx context.Context, id uint) (*models.ContractRight, error) {
	return s.repo.GetContractRight(ctx, id)
}
