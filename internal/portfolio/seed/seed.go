// Package seed fills an empty database with demo records and removes them
// again. Everything goes through the controller services so the same
// validation, file cleanup and events apply as for requests.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/vcpms/internal/portfolio/controller"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DemoPassword is the password of both seeded accounts.
	DemoPassword = "Password123"
	demoPhone    = "+447312345678"

	companyCount    = 10
	portfolioCount  = 10
	individualCount = 10
	investorCount   = 5
	investmentCount = 15
	programmeCount  = 3
)

// Store is the read side the seeder needs besides the services.
// *db.Repository implements it.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListIndividuals(ctx context.Context) ([]models.Individual, error)
	ListProgrammes(ctx context.Context, needle string) ([]models.Programme, error)
	DeleteNonStaffUsers(ctx context.Context) error
}

// Services groups the services records are created and deleted through.
type Services struct {
	Admin       *controller.AdminService
	Companies   *controller.CompanyService
	Individuals *controller.IndividualService
	Investments *controller.InvestmentService
	Founders    *controller.FounderService
	Programmes  *controller.ProgrammeService
	Documents   *controller.DocumentService
}

type Seeder struct {
	store  Store
	svc    Services
	logger *zap.Logger
	now    func() time.Time
}

func NewSeeder(store Store, svc Services, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, svc: svc, logger: logger.Named("seed"), now: time.Now}
}

var (
	companyNames = []string{
		"Northwind Analytics", "Bluefin Logistics", "Copperleaf Energy", "Harbour Health",
		"Juniper Robotics", "Kestrel Payments", "Lumen Materials", "Meridian Foods",
		"Orchard Security", "Quarry Labs", "Redwood Mobility", "Saffron Media",
		"Tidewater Insurance", "Umber Textiles", "Vantage Aerospace", "Willow Education",
		"Zephyr Climate", "Atlas Biotech", "Beacon Retail", "Cobalt Networks",
	}
	cities       = []string{"London", "Manchester", "Leeds", "Bristol", "Edinburgh", "Cardiff"}
	firstNames   = []string{"Ada", "Ben", "Chloe", "Dev", "Eve", "Farah", "George", "Hana", "Ivan", "Jade"}
	lastNames    = []string{"Archer", "Byrne", "Clarke", "Dhillon", "Evans", "Fischer", "Grant", "Hughes", "Iqbal", "Jones"}
	positions    = []string{"CEO", "CTO", "Partner", "Analyst", "Principal", "Engineer"}
	contractTerm = []models.ContractRightInput{
		{Right: "Wayra Investment", Details: "25%"},
		{Right: "split on investment", Details: "30/70"},
		{Right: "put-option", Details: "True"},
		{Right: "current-split", Details: "50/30/20"},
		{Right: "affiliate transfer rights", Details: "True"},
		{Right: "anti-dilution", Details: "False"},
		{Right: "liquidation preference", Details: "None"},
		{Right: "co-sale right", Details: "True"},
		{Right: "exit", Details: "None"},
	}
)

// Seed creates the demo accounts and the demo portfolio. Records that are
// already present, matched by email, company name or programme name, are
// left alone.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.seedUsers(ctx); err != nil {
		return err
	}
	companies, err := s.seedCompanies(ctx)
	if err != nil {
		return err
	}
	startups, err := s.seedPortfolioCompanies(ctx)
	if err != nil {
		return err
	}
	individuals, err := s.seedIndividuals(ctx)
	if err != nil {
		return err
	}
	investors, err := s.seedInvestors(ctx, companies, individuals)
	if err != nil {
		return err
	}
	if err := s.seedInvestments(ctx, investors, startups); err != nil {
		return err
	}
	if err := s.seedFounders(ctx, companies, individuals); err != nil {
		return err
	}
	programmes, err := s.seedProgrammes(ctx, companies, startups, individuals)
	if err != nil {
		return err
	}
	return s.seedDocuments(ctx, companies, individuals, programmes)
}

func (s *Seeder) seedUsers(ctx context.Context) error {
	accounts := []struct {
		in    models.UserInput
		super bool
	}{
		{in: models.UserInput{Email: "john.doe@example.org", FirstName: "John", LastName: "Doe"}},
		{in: models.UserInput{Email: "petra.pickles@example.org", FirstName: "Petra", LastName: "Pickles"}, super: true},
	}
	for _, acc := range accounts {
		_, err := s.store.GetUserByEmail(ctx, acc.in.Email)
		if err == nil {
			s.logger.Info("User already seeded", zap.String("email", acc.in.Email))
			continue
		}
		if !errors.Is(err, e.ErrNotFound) {
			return fmt.Errorf("failed to look up %s: %w", acc.in.Email, err)
		}
		in := acc.in
		in.Password = DemoPassword
		in.Phone = demoPhone
		in.IsActive = true
		if acc.super {
			_, err = s.svc.Admin.CreateSuperuser(ctx, in)
		} else {
			_, err = s.svc.Admin.CreateUser(ctx, in)
		}
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", in.Email, err)
		}
	}
	return nil
}

func (s *Seeder) existingCompanies(ctx context.Context) (map[string]bool, error) {
	all, err := s.store.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(all))
	for _, c := range all {
		names[c.Name] = true
	}
	return names, nil
}

func (s *Seeder) companyInput(i int) models.CompanyInput {
	return models.CompanyInput{
		Name:               companyNames[i],
		RegistrationNumber: fmt.Sprintf("%08d", 10000000+i*7919),
		TradingNames:       companyNames[i] + " Ltd",
		RegisteredAddress:  fmt.Sprintf("%d High Street", i+1),
		Jurisdiction:       cities[i%len(cities)],
		IncorporationDate:  s.now().AddDate(-(i%15)-1, 0, 0).Format(models.DateLayout),
	}
}

// seedCompanies returns only the companies created by this run.
func (s *Seeder) seedCompanies(ctx context.Context) ([]*models.Company, error) {
	taken, err := s.existingCompanies(ctx)
	if err != nil {
		return nil, err
	}
	var created []*models.Company
	for i := 0; i < companyCount; i++ {
		in := s.companyInput(i)
		if taken[in.Name] {
			continue
		}
		c, err := s.svc.Companies.CreateCompany(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to seed company %q: %w", in.Name, err)
		}
		created = append(created, c)
	}
	s.logger.Info("Seeded companies", zap.Int("count", len(created)))
	return created, nil
}

func (s *Seeder) seedPortfolioCompanies(ctx context.Context) ([]*models.PortfolioCompany, error) {
	taken, err := s.existingCompanies(ctx)
	if err != nil {
		return nil, err
	}
	var created []*models.PortfolioCompany
	for i := companyCount; i < companyCount+portfolioCount; i++ {
		in := s.companyInput(i)
		if taken[in.Name] {
			continue
		}
		c, err := s.svc.Companies.CreateCompany(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to seed company %q: %w", in.Name, err)
		}
		pc, err := s.svc.Investments.CreatePortfolioCompany(ctx, models.PortfolioCompanyInput{
			ParentCompanyID: c.ID,
			WayraNumber:     fmt.Sprintf("WN-%d", i-companyCount+1),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed portfolio company %q: %w", in.Name, err)
		}
		created = append(created, pc)
	}
	s.logger.Info("Seeded portfolio companies", zap.Int("count", len(created)))
	return created, nil
}

func (s *Seeder) seedIndividuals(ctx context.Context) ([]*models.Individual, error) {
	all, err := s.store.ListIndividuals(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(all))
	for _, ind := range all {
		taken[ind.Email] = true
	}

	var created []*models.Individual
	for i := 0; i < individualCount; i++ {
		first, last := firstNames[i%len(firstNames)], lastNames[i%len(lastNames)]
		email := fmt.Sprintf("%s.%s@example.org", first, last)
		if taken[email] {
			continue
		}
		start := s.now().Year() - 10 + i%5
		form := controller.IndividualForm{
			Individual: models.IndividualInput{
				Name:           first + " " + last,
				AngelListLink:  "https://www.angellist.com",
				CrunchbaseLink: "https://www.crunchbase.com",
				LinkedInLink:   "https://www.linkedin.com",
				Company:        companyNames[(i+3)%len(companyNames)],
				Position:       positions[i%len(positions)],
				Email:          email,
				PrimaryNumber:  fmt.Sprintf("+4474001230%02d", i),
			},
			Address: models.AddressInput{
				AddressLine1: fmt.Sprintf("%d Park Road", i+1),
				PostalCode:   fmt.Sprintf("E%d 1AA", i+1),
				City:         cities[i%len(cities)],
				Country:      "GB",
			},
			Experiences: []models.ExperienceInput{{
				CompanyName: companyNames[(i+5)%len(companyNames)],
				WorkTitle:   positions[(i+1)%len(positions)],
				StartYear:   start,
				EndYear:     start + 3,
			}},
		}
		ind, err := s.svc.Individuals.CreateIndividual(ctx, form)
		if err != nil {
			return nil, fmt.Errorf("failed to seed individual %s: %w", email, err)
		}
		created = append(created, ind)
	}
	s.logger.Info("Seeded individuals", zap.Int("count", len(created)))
	return created, nil
}

func (s *Seeder) seedInvestors(ctx context.Context, companies []*models.Company, individuals []*models.Individual) ([]*models.Investor, error) {
	var created []*models.Investor
	for i := 0; i < investorCount && i < len(companies); i++ {
		inv, err := s.svc.Investments.CreateCompanyInvestor(ctx, controller.CompanyInvestorInput{
			CompanyID:      companies[i].ID,
			Classification: string(models.InvestorClassifications[i%len(models.InvestorClassifications)]),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed company investor: %w", err)
		}
		created = append(created, inv)
	}
	for i := 0; i < investorCount && i < len(individuals); i++ {
		inv, err := s.svc.Investments.CreateIndividualInvestor(ctx, controller.IndividualInvestorInput{
			IndividualID:   individuals[i].ID,
			Classification: string(models.InvestorClassifications[(i+investorCount)%len(models.InvestorClassifications)]),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed individual investor: %w", err)
		}
		created = append(created, inv)
	}
	s.logger.Info("Seeded investors", zap.Int("count", len(created)))
	return created, nil
}

func (s *Seeder) seedInvestments(ctx context.Context, investors []*models.Investor, startups []*models.PortfolioCompany) error {
	if len(investors) == 0 || len(startups) == 0 {
		return nil
	}
	base := decimal.NewFromInt(50000)
	for i := 0; i < investmentCount; i++ {
		invested := s.now().AddDate(0, -(i + 1), 0)
		in := models.InvestmentInput{
			InvestorID:   investors[i%len(investors)].ID,
			StartupID:    startups[i%len(startups)].ID,
			RoundType:    string(models.FundingRounds[i%len(models.FundingRounds)]),
			Amount:       base.Mul(decimal.NewFromInt(int64(i + 1))).Add(decimal.New(2550, -2)).StringFixed(2),
			DateInvested: invested.Format(models.DateLayout),
		}
		if i%4 == 3 {
			in.DateExit = invested.AddDate(0, 0, 20).Format(models.DateLayout)
		}
		inv, err := s.svc.Investments.CreateInvestment(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to seed investment: %w", err)
		}
		for j := 0; j < 1+i%3; j++ {
			term := contractTerm[(i+j)%len(contractTerm)]
			if _, err := s.svc.Investments.CreateContractRight(ctx, inv.ID, term); err != nil {
				return fmt.Errorf("failed to seed contract right: %w", err)
			}
		}
	}
	s.logger.Info("Seeded investments", zap.Int("count", investmentCount))
	return nil
}

func (s *Seeder) seedFounders(ctx context.Context, companies []*models.Company, individuals []*models.Individual) error {
	n := 0
	for i := investorCount; i < len(individuals) && i < len(companies); i++ {
		_, err := s.svc.Founders.CreateFounder(ctx, models.FounderInput{
			CompanyFoundedID:    companies[i].ID,
			IndividualFounderID: individuals[i].ID,
		})
		if err != nil {
			return fmt.Errorf("failed to seed founder: %w", err)
		}
		n++
	}
	s.logger.Info("Seeded founders", zap.Int("count", n))
	return nil
}

func (s *Seeder) seedProgrammes(ctx context.Context, companies []*models.Company, startups []*models.PortfolioCompany, individuals []*models.Individual) ([]*models.Programme, error) {
	if len(companies) == 0 || len(startups) == 0 || len(individuals) == 0 {
		return nil, nil
	}
	existing, err := s.store.ListProgrammes(ctx, "")
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.Name] = true
	}

	var created []*models.Programme
	for i := 0; i < programmeCount; i++ {
		name := fmt.Sprintf("Accelerator Programme %d", i+1)
		if taken[name] {
			continue
		}
		in := models.ProgrammeInput{
			Name:           name,
			Cohort:         1,
			Description:    fmt.Sprintf("Cohort one of the %s accelerator track.", cities[i%len(cities)]),
			Partners:       []uint{companies[i%len(companies)].ID},
			Participants:   []uint{startups[i%len(startups)].ParentCompanyID, startups[(i+1)%len(startups)].ParentCompanyID},
			CoachesMentors: []uint{individuals[i%len(individuals)].ID},
		}
		p, err := s.svc.Programmes.CreateProgramme(ctx, in, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to seed programme %q: %w", name, err)
		}
		created = append(created, p)
	}
	s.logger.Info("Seeded programmes", zap.Int("count", len(created)))
	return created, nil
}

// seedDocuments attaches link documents only. Uploaded files are left to
// real users.
func (s *Seeder) seedDocuments(ctx context.Context, companies []*models.Company, individuals []*models.Individual, programmes []*models.Programme) error {
	var owners []models.Owner
	for _, c := range companies {
		owners = append(owners, models.Owner{Kind: models.OwnerCompany, ID: c.ID})
	}
	for _, ind := range individuals {
		owners = append(owners, models.Owner{Kind: models.OwnerIndividual, ID: ind.ID})
	}
	for _, p := range programmes {
		owners = append(owners, models.Owner{Kind: models.OwnerProgramme, ID: p.ID})
	}
	for i, owner := range owners {
		name := fmt.Sprintf("%s-%d-pitch-deck", owner.Kind, owner.ID)
		link := fmt.Sprintf("https://docs.example.org/%s/%d", owner.Kind, owner.ID)
		if _, err := s.svc.Documents.AddURL(ctx, owner, name, link, i%3 == 0); err != nil {
			return fmt.Errorf("failed to seed document %q: %w", name, err)
		}
	}
	s.logger.Info("Seeded documents", zap.Int("count", len(owners)))
	return nil
}

// Unseed deletes every programme, company and individual with their
// documents and files, then every account that is neither staff nor
// superuser.
func (s *Seeder) Unseed(ctx context.Context) error {
	programmes, err := s.store.ListProgrammes(ctx, "")
	if err != nil {
		return err
	}
	for _, p := range programmes {
		if err := s.svc.Programmes.DeleteProgramme(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to delete programme %d: %w", p.ID, err)
		}
	}
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return err
	}
	for _, c := range companies {
		if err := s.svc.Companies.DeleteCompany(ctx, c.ID); err != nil {
			return fmt.Errorf("failed to delete company %d: %w", c.ID, err)
		}
	}
	individuals, err := s.store.ListIndividuals(ctx)
	if err != nil {
		return err
	}
	for _, ind := range individuals {
		if err := s.svc.Individuals.DeleteIndividual(ctx, ind.ID); err != nil {
			return fmt.Errorf("failed to delete individual %d: %w", ind.ID, err)
		}
	}
	if err := s.store.DeleteNonStaffUsers(ctx); err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	s.logger.Info("Unseeded",
		zap.Int("programmes", len(programmes)),
		zap.Int("companies", len(companies)),
		zap.Int("individuals", len(individuals)),
	)
	return nil
}
