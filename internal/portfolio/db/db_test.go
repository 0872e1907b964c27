package db

import (
	"context"
	"testing"
	"time"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SetupTestDB initializes a migrated in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(&Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, repo.Migrate(context.Background()), "failed to migrate test database")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func mustCompany(t *testing.T, repo *Repository, name string) *models.Company {
	t.Helper()
	c := &models.Company{
		Name:               name,
		RegistrationNumber: models.DefaultRegistrationNumber,
		IncorporationDate:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateCompany(context.Background(), c))
	return c
}

func mustIndividual(t *testing.T, repo *Repository, name string) *models.Individual {
	t.Helper()
	ind := &models.Individual{Name: name, Email: "x@example.com", PrimaryNumber: "+447400123000"}
	require.NoError(t, repo.CreateIndividual(context.Background(), ind, nil, nil))
	return ind
}

func companyNames(companies []models.Company) []string {
	names := make([]string, 0, len(companies))
	for _, c := range companies {
		names = append(names, c.Name)
	}
	return names
}

func TestCreateAndGetCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := mustCompany(t, repo, "Test Company")
	assert.NotZero(t, company.ID)

	retrieved, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Company", retrieved.Name)
	assert.Nil(t, retrieved.TradingNames)
}

func TestGetCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetCompany(context.Background(), 42)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestCreateCompanyDuplicateName(t *testing.T) {
	repo := SetupTestDB(t)
	mustCompany(t, repo, "Twice")

	err := repo.CreateCompany(context.Background(), &models.Company{Name: "Twice", RegistrationNumber: "00000000"})
	assert.ErrorIs(t, err, e.ErrDuplicate)
}

func TestBlankTradingNamesAreNotDuplicates(t *testing.T) {
	repo := SetupTestDB(t)
	mustCompany(t, repo, "First")
	mustCompany(t, repo, "Second")

	taken, err := repo.CompanyFieldTaken(context.Background(), "trading_names", "", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCompanyFieldTaken(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	c := mustCompany(t, repo, "Existing Company")

	taken, err := repo.CompanyFieldTaken(ctx, "name", "Existing Company", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.CompanyFieldTaken(ctx, "name", "Existing Company", c.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a company does not clash with itself")

	_, err = repo.CompanyFieldTaken(ctx, "jurisdiction", "UK", 0)
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestUpdateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	c := mustCompany(t, repo, "Old Name")

	c.Name = "New Name"
	c.TradingNames = utils.Ptr("Trading As")
	require.NoError(t, repo.UpdateCompany(ctx, c))

	updated, err := repo.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "Trading As", utils.Deref(updated.TradingNames))

	missing := &models.Company{ID: 999, Name: "Ghost"}
	assert.ErrorIs(t, repo.UpdateCompany(ctx, missing), e.ErrNotFound)
}

func TestArchiveIsIdempotent(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	c := mustCompany(t, repo, "Archivable")

	require.NoError(t, repo.SetCompanyArchived(ctx, c.ID, true))
	require.NoError(t, repo.SetCompanyArchived(ctx, c.ID, true))
	got, err := repo.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	require.NoError(t, repo.SetCompanyArchived(ctx, c.ID, false))
	assert.ErrorIs(t, repo.SetCompanyArchived(ctx, 999, true), e.ErrNotFound)
}

func TestGetCompanyByRegistrationNumberPicksLowestID(t *testing.T) {
	repo := SetupTestDB(t)
	first := mustCompany(t, repo, "Alpha")
	mustCompany(t, repo, "Beta")

	got, err := repo.GetCompanyByRegistrationNumber(context.Background(), models.DefaultRegistrationNumber)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestCompaniesByMode(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	plain := mustCompany(t, repo, "Plain Co")
	startup := mustCompany(t, repo, "Startup Co")
	fund := mustCompany(t, repo, "Fund Co")
	archived := mustCompany(t, repo, "Old Startup")
	_ = plain

	require.NoError(t, repo.CreatePortfolioCompany(ctx, &models.PortfolioCompany{ParentCompanyID: startup.ID, WayraNumber: "W1"}))
	require.NoError(t, repo.CreatePortfolioCompany(ctx, &models.PortfolioCompany{ParentCompanyID: archived.ID, WayraNumber: "W2"}))
	inv, err := models.NewCompanyInvestor(fund.ID, "")
	require.NoError(t, err)
	require.NoError(t, repo.CreateInvestor(ctx, inv))
	require.NoError(t, repo.SetCompanyArchived(ctx, archived.ID, true))

	tests := []struct {
		name     string
		mode     listing.CompanyMode
		archived bool
		needle   string
		want     []string
	}{
		{"all active", listing.AllCompanies, false, "", []string{"Plain Co", "Startup Co", "Fund Co"}},
		{"portfolio active", listing.PortfolioCompanies, false, "", []string{"Startup Co"}},
		{"investors active", listing.InvestorCompanies, false, "", []string{"Fund Co"}},
		{"portfolio archived", listing.PortfolioCompanies, true, "", []string{"Old Startup"}},
		{"search within view", listing.AllCompanies, false, "Co", []string{"Plain Co", "Startup Co", "Fund Co"}},
		{"search is case sensitive", listing.AllCompanies, false, "co", []string{}},
		{"search restricted to view", listing.InvestorCompanies, false, "Startup", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.CompaniesByMode(ctx, tt.mode, tt.archived, tt.needle)
			require.NoError(t, err)
			assert.Equal(t, tt.want, companyNames(got))
		})
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(tx *Repository) error {
		require.NoError(t, tx.CreateCompany(ctx, &models.Company{Name: "Rolled Back", RegistrationNumber: "00000000"}))
		return e.ErrConflict
	})
	assert.ErrorIs(t, err, e.ErrConflict)

	taken, err := repo.CompanyFieldTaken(ctx, "name", "Rolled Back", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestDeleteCompanyCascades(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	startup := mustCompany(t, repo, "Doomed Startup")
	fund := mustCompany(t, repo, "Surviving Fund")
	founder := mustIndividual(t, repo, "Founder Person")

	pc := &models.PortfolioCompany{ParentCompanyID: startup.ID, WayraNumber: "W9"}
	require.NoError(t, repo.CreatePortfolioCompany(ctx, pc))
	investor, err := models.NewCompanyInvestor(fund.ID, "")
	require.NoError(t, err)
	require.NoError(t, repo.CreateInvestor(ctx, investor))
	investment := &models.Investment{
		InvestorID: investor.ID, StartupID: pc.ID, RoundType: models.SeedRound,
		DateInvested: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateInvestment(ctx, investment))
	require.NoError(t, repo.CreateContractRight(ctx, &models.ContractRight{InvestmentID: investment.ID, Right: "Veto", Details: "All"}))
	require.NoError(t, repo.CreateFounder(ctx, &models.Founder{CompanyFoundedID: startup.ID, IndividualFounderID: founder.ID}))
	doc, err := models.NewURLDocument(models.Owner{Kind: models.OwnerCompany, ID: startup.ID}, "Site", "https://example.com", false)
	require.NoError(t, err)
	require.NoError(t, repo.CreateDocument(ctx, doc))
	prog := &models.Programme{Name: "Cohort", Cohort: 1}
	require.NoError(t, repo.CreateProgramme(ctx, prog, ProgrammeMembers{
		Partners: []uint{fund.ID}, Participants: []uint{startup.ID}, CoachesMentors: []uint{founder.ID},
	}))

	removed, err := repo.DeleteCompany(ctx, startup.ID)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, doc.ID, removed[0].ID)

	_, err = repo.GetCompany(ctx, startup.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
	_, err = repo.GetPortfolioCompany(ctx, pc.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
	_, err = repo.GetInvestment(ctx, investment.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
	rights, err := repo.ContractRightsForInvestment(ctx, investment.ID)
	require.NoError(t, err)
	assert.Empty(t, rights)
	_, err = repo.GetFounderByIndividual(ctx, founder.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	profile, err := repo.ResolveConcrete(ctx, founder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeIndividual, profile.Kind(), "founder tag demoted with the link")

	_, err = repo.GetInvestor(ctx, investor.ID)
	assert.NoError(t, err, "the investing company is untouched")

	p, err := repo.GetProgramme(ctx, prog.ID)
	require.NoError(t, err)
	assert.Empty(t, p.Participants)
	assert.Len(t, p.Partners, 1)

	_, err = repo.DeleteCompany(ctx, startup.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
}
