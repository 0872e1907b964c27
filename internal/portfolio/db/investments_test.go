package db

import (
	"context"
	"sync"
	"testing"
	"time"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioAndInvestorAreExclusive(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	fund := mustCompany(t, repo, "Fund")
	startup := mustCompany(t, repo, "Startup")

	inv, err := models.NewCompanyInvestor(fund.ID, "")
	require.NoError(t, err)
	require.NoError(t, repo.CreateInvestor(ctx, inv))

	err = repo.CreatePortfolioCompany(ctx, &models.PortfolioCompany{ParentCompanyID: fund.ID, WayraNumber: "W1"})
	assert.ErrorIs(t, err, e.ErrConflict)

	require.NoError(t, repo.CreatePortfolioCompany(ctx, &models.PortfolioCompany{ParentCompanyID: startup.ID, WayraNumber: "W2"}))
	err = repo.CreatePortfolioCompany(ctx, &models.PortfolioCompany{ParentCompanyID: startup.ID, WayraNumber: "W3"})
	assert.ErrorIs(t, err, e.ErrDuplicate)

	other, err := models.NewCompanyInvestor(startup.ID, "")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.CreateInvestor(ctx, other), e.ErrConflict)

	again, err := models.NewCompanyInvestor(fund.ID, "")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.CreateInvestor(ctx, again), e.ErrDuplicate)
}

func TestConcurrentRoleCreationAdmitsOne(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := mustCompany(t, repo, "Contested")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = repo.CreatePortfolioCompany(ctx, &models.PortfolioCompany{ParentCompanyID: company.ID, WayraNumber: "W-C"})
	}()
	go func() {
		defer wg.Done()
		inv, err := models.NewCompanyInvestor(company.ID, "")
		if err != nil {
			errs[1] = err
			return
		}
		errs[1] = repo.CreateInvestor(ctx, inv)
	}()
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, e.ErrConflict)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestInvestorCheckConstraint(t *testing.T) {
	repo := SetupTestDB(t)
	c := mustCompany(t, repo, "Both Ways")
	i := mustIndividual(t, repo, "Both Ways Person")

	both := &models.Investor{CompanyID: utils.Ptr(c.ID), IndividualID: utils.Ptr(i.ID), Classification: models.VentureCapital}
	require.Error(t, repo.db.Omit("Company", "Individual").Create(both).Error)

	neither := &models.Investor{Classification: models.VentureCapital}
	require.Error(t, repo.db.Omit("Company", "Individual").Create(neither).Error)
}

func TestWayraNumberUnique(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	a := mustCompany(t, repo, "Alpha")
	b := mustCompany(t, repo, "Beta")

	pa := &models.PortfolioCompany{ParentCompanyID: a.ID, WayraNumber: "SAME"}
	require.NoError(t, repo.CreatePortfolioCompany(ctx, pa))
	err := repo.CreatePortfolioCompany(ctx, &models.PortfolioCompany{ParentCompanyID: b.ID, WayraNumber: "SAME"})
	assert.ErrorIs(t, err, e.ErrDuplicate)

	taken, err := repo.WayraNumberTaken(ctx, "SAME", pa.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, repo.UpdateWayraNumber(ctx, pa.ID, "NEW"))
	got, err := repo.GetPortfolioCompanyByCompany(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "NEW", got.WayraNumber)
	assert.Equal(t, "Alpha", got.ParentCompany.Name)
}

func TestInvestmentsForCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	fund := mustCompany(t, repo, "Fund")
	startup := mustCompany(t, repo, "Startup")
	bystander := mustCompany(t, repo, "Bystander")

	investor, err := models.NewCompanyInvestor(fund.ID, "")
	require.NoError(t, err)
	require.NoError(t, repo.CreateInvestor(ctx, investor))
	pc := &models.PortfolioCompany{ParentCompanyID: startup.ID, WayraNumber: "W1"}
	require.NoError(t, repo.CreatePortfolioCompany(ctx, pc))

	for _, amount := range []string{"100.25", "200"} {
		require.NoError(t, repo.CreateInvestment(ctx, &models.Investment{
			InvestorID: investor.ID, StartupID: pc.ID, RoundType: models.SeedRound,
			Amount: decimal.RequireFromString(amount), DateInvested: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		}))
	}

	received, err := repo.InvestmentsForCompany(ctx, startup.ID)
	require.NoError(t, err)
	require.Len(t, received, 2)
	assert.True(t, received[0].Amount.Equal(decimal.RequireFromString("100.25")))
	assert.Equal(t, "Fund", received[0].Investor.DisplayName())
	assert.Equal(t, "Startup", received[0].Startup.ParentCompany.Name)

	made, err := repo.InvestmentsForCompany(ctx, fund.ID)
	require.NoError(t, err)
	assert.Len(t, made, 2)

	none, err := repo.InvestmentsForCompany(ctx, bystander.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateInvestmentRequiresParties(t *testing.T) {
	repo := SetupTestDB(t)
	err := repo.CreateInvestment(context.Background(), &models.Investment{InvestorID: 1, StartupID: 1, RoundType: models.SeedRound, DateInvested: time.Now()})
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestContractRights(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	fund := mustCompany(t, repo, "Fund")
	startup := mustCompany(t, repo, "Startup")
	investor, err := models.NewCompanyInvestor(fund.ID, "")
	require.NoError(t, err)
	require.NoError(t, repo.CreateInvestor(ctx, investor))
	pc := &models.PortfolioCompany{ParentCompanyID: startup.ID, WayraNumber: "W1"}
	require.NoError(t, repo.CreatePortfolioCompany(ctx, pc))
	investment := &models.Investment{InvestorID: investor.ID, StartupID: pc.ID, RoundType: models.SeriesB, DateInvested: time.Now()}
	require.NoError(t, repo.CreateInvestment(ctx, investment))

	cr := &models.ContractRight{InvestmentID: investment.ID, Right: "Pro rata", Details: "Next round"}
	require.NoError(t, repo.CreateContractRight(ctx, cr))
	rights, err := repo.ContractRightsForInvestment(ctx, investment.ID)
	require.NoError(t, err)
	require.Len(t, rights, 1)
	assert.Equal(t, "Pro rata", rights[0].Right)

	require.NoError(t, repo.DeleteContractRight(ctx, cr.ID))
	assert.ErrorIs(t, repo.DeleteContractRight(ctx, cr.ID), e.ErrNotFound)

	assert.ErrorIs(t, repo.CreateContractRight(ctx, &models.ContractRight{InvestmentID: 999, Right: "x", Details: "y"}), e.ErrNotFound)
}

func TestFounderLifecycleSyncsContentType(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := mustCompany(t, repo, "Venture")
	first := mustIndividual(t, repo, "First")
	second := mustIndividual(t, repo, "Second")

	f := &models.Founder{CompanyFoundedID: company.ID, IndividualFounderID: first.ID}
	require.NoError(t, repo.CreateFounder(ctx, f))

	dup := &models.Founder{CompanyFoundedID: company.ID, IndividualFounderID: second.ID}
	assert.ErrorIs(t, repo.CreateFounder(ctx, dup), e.ErrDuplicate)

	f.IndividualFounderID = second.ID
	require.NoError(t, repo.UpdateFounder(ctx, f))

	kind := func(id uint) models.ContentType {
		ind, err := repo.GetIndividual(ctx, id)
		require.NoError(t, err)
		return ind.ContentType
	}
	assert.Equal(t, models.ContentTypeIndividual, kind(first.ID))
	assert.Equal(t, models.ContentTypeFounder, kind(second.ID))

	founders, err := repo.FoundersOfCompany(ctx, company.ID)
	require.NoError(t, err)
	require.Len(t, founders, 1)
	assert.Equal(t, "Second", founders[0].Name)

	require.NoError(t, repo.DeleteFounder(ctx, f.ID))
	assert.Equal(t, models.ContentTypeIndividual, kind(second.ID))
}
