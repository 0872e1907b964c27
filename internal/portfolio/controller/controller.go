// Package controller implements the business services behind the HTTP
// surface: it validates bound forms, enforces the cross-record rules the
// store cannot express, removes stored files after deletes and publishes
// lifecycle events.
package controller

import (
	"context"
	"errors"
	"time"

	"github.com/gartstein/vcpms/internal/portfolio/db"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
)

type EventProducer = events.Publisher

// Repository defines the storage the services need. *db.Repository
// implements it.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error

	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	GetCompanyByRegistrationNumber(ctx context.Context, number string) (*models.Company, error)
	UpdateCompany(ctx context.Context, company *models.Company) error
	SetCompanyArchived(ctx context.Context, id uint, archived bool) error
	CompanyFieldTaken(ctx context.Context, column, value string, excludeID uint) (bool, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	CompaniesByMode(ctx context.Context, mode listing.CompanyMode, archived bool, needle string) ([]models.Company, error)
	DeleteCompany(ctx context.Context, id uint) ([]models.Document, error)

	CreateIndividual(ctx context.Context, ind *models.Individual, addr *models.ResidentialAddress, exps []models.PastExperience) error
	UpdateIndividual(ctx context.Context, ind *models.Individual, addr *models.ResidentialAddress, exps []models.PastExperience) error
	GetIndividual(ctx context.Context, id uint) (*models.Individual, error)
	SetIndividualArchived(ctx context.Context, id uint, archived bool) error
	SetIndividualProfilePic(ctx context.Context, id uint, path string) error
	ListIndividuals(ctx context.Context) ([]models.Individual, error)
	IndividualsByMode(ctx context.Context, mode listing.IndividualMode, archived bool, needle string) ([]models.Individual, error)
	DeleteIndividual(ctx context.Context, id uint) ([]models.Document, error)
	ResolveConcrete(ctx context.Context, individualID uint) (models.Profile, error)

	CreatePortfolioCompany(ctx context.Context, pc *models.PortfolioCompany) error
	GetPortfolioCompany(ctx context.Context, id uint) (*models.PortfolioCompany, error)
	GetPortfolioCompanyByCompany(ctx context.Context, companyID uint) (*models.PortfolioCompany, error)
	UpdateWayraNumber(ctx context.Context, id uint, wayra string) error
	WayraNumberTaken(ctx context.Context, wayra string, excludeID uint) (bool, error)
	ListPortfolioCompanies(ctx context.Context) ([]models.PortfolioCompany, error)
	DeletePortfolioCompany(ctx context.Context, id uint) error

	CreateInvestor(ctx context.Context, inv *models.Investor) error
	GetInvestor(ctx context.Context, id uint) (*models.Investor, error)
	GetInvestorByCompany(ctx context.Context, companyID uint) (*models.Investor, error)
	GetInvestorByIndividual(ctx context.Context, individualID uint) (*models.Investor, error)
	UpdateInvestorClassification(ctx context.Context, id uint, c models.InvestorClassification) error
	ListInvestors(ctx context.Context) ([]models.Investor, error)

	CreateInvestment(ctx context.Context, inv *models.Investment) error
	GetInvestment(ctx context.Context, id uint) (*models.Investment, error)
	UpdateInvestment(ctx context.Context, inv *models.Investment) error
	DeleteInvestment(ctx context.Context, id uint) error
	InvestmentsForCompany(ctx context.Context, companyID uint) ([]models.Investment, error)
	InvestmentsForIndividual(ctx context.Context, individualID uint) ([]models.Investment, error)

	CreateContractRight(ctx context.Context, cr *models.ContractRight) error
	GetContractRight(ctx context.Context, id uint) (*models.ContractRight, error)
	DeleteContractRight(ctx context.Context, id uint) error
	ContractRightsForInvestment(ctx context.Context, investmentID uint) ([]models.ContractRight, error)

	CreateFounder(ctx context.Context, f *models.Founder) error
	GetFounderByIndividual(ctx context.Context, individualID uint) (*models.Founder, error)
	FoundersOfCompany(ctx context.Context, companyID uint) ([]models.Individual, error)
	UpdateFounder(ctx context.Context, f *models.Founder) error
	DeleteFounder(ctx context.Context, id uint) error

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id uint) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, id uint) error
	DocumentsFor(ctx context.Context, owner models.Owner) ([]models.Document, error)
	OwnerName(ctx context.Context, owner models.Owner) (string, error)

	CreateProgramme(ctx context.Context, p *models.Programme, m db.ProgrammeMembers) error
	UpdateProgramme(ctx context.Context, p *models.Programme, m db.ProgrammeMembers) error
	SetProgrammeCover(ctx context.Context, id uint, cover string) error
	GetProgramme(ctx context.Context, id uint) (*models.Programme, error)
	ProgrammeTaken(ctx context.Context, name string, cohort uint, excludeID uint) (bool, error)
	ListProgrammes(ctx context.Context, needle string) ([]models.Programme, error)
	ProgrammesForParticipant(ctx context.Context, companyID uint) ([]models.Programme, error)
	DeleteProgramme(ctx context.Context, id uint) ([]models.Document, error)

	CreateUser(ctx context.Context, u *models.User, groupID *uint) error
	UpdateUser(ctx context.Context, u *models.User, groupID *uint) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	SetPassword(ctx context.Context, id uint, hash string) error
	SetProfilePicture(ctx context.Context, id uint, path string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	DeleteUser(ctx context.Context, id uint) error
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteNonStaffUsers(ctx context.Context) error

	CreateGroup(ctx context.Context, g *models.Group, codenames []string) error
	UpdateGroup(ctx context.Context, g *models.Group, codenames []string) error
	GetGroup(ctx context.Context, id uint) (*models.Group, error)
	GroupNameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	DeleteGroup(ctx context.Context, id uint) error
}

// Clock returns the current time. Services take it so tests can pin today.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

// found turns a lookup error into a boolean, treating ErrNotFound as false.
func found(err error) (bool, error) {
	if errors.Is(err, e.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
