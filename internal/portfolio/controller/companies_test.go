package controller

import (
	"context"
	"errors"
	"strings"
	"testing"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCreateCompany(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		in        models.CompanyInput
		wantField string
	}{
		{name: "valid", in: models.CompanyInput{Name: "Acme Ltd", TradingNames: "Acme"}},
		{name: "missing name", in: models.CompanyInput{}, wantField: "name"},
		{name: "bad characters", in: models.CompanyInput{Name: "Acme!"}, wantField: "name"},
		{name: "short registration number", in: models.CompanyInput{Name: "Short Reg", RegistrationNumber: "123"}, wantField: "company_registration_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			company, err := ev.companies.CreateCompany(ctx, tt.in)
			if tt.wantField != "" {
				assert.ErrorIs(t, err, e.ErrInvalidInput)
				v, ok := e.AsValidation(err)
				require.True(t, ok)
				assert.True(t, v.Has(tt.wantField))
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, company.ID)
			assert.Equal(t, models.DefaultRegistrationNumber, company.RegistrationNumber)
			assert.Equal(t, models.DateOnly(testToday), company.IncorporationDate.UTC())
		})
	}
	assert.Equal(t, []events.EventType{events.CompanyCreated}, ev.producer.Types())
}

func TestCreateCompanyRejectsTakenNames(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	_, err := ev.companies.CreateCompany(ctx, models.CompanyInput{Name: "Acme Ltd", TradingNames: "Acme"})
	require.NoError(t, err)

	_, err = ev.companies.CreateCompany(ctx, models.CompanyInput{Name: "Acme Ltd", TradingNames: "Acme"})
	v, ok := e.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Company with this Name already exists.", v.Fields["name"])
	assert.Equal(t, "Company with this Trading names already exists.", v.Fields["trading_names"])
}

func TestCreateCompanyRepositoryFailure(t *testing.T) {
	ev := setupEnv(t)
	mock := &MockRepository{
		Repository: ev.repo,
		CreateCompanyFunc: func(ctx context.Context, company *models.Company) error {
			return errors.New("disk full")
		},
	}
	svc := NewCompanyService(mock, ev.files, ev.producer, zaptest.NewLogger(t))

	_, err := svc.CreateCompany(context.Background(), models.CompanyInput{Name: "Acme Ltd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create company")
	assert.Empty(t, ev.producer.Types())
}

func TestUpdateCompanyKeepsArchivedFlag(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	c := ev.company(t, "Acme Ltd")
	require.NoError(t, ev.companies.SetArchived(ctx, c.ID, true))

	updated, err := ev.companies.UpdateCompany(ctx, c.ID, models.CompanyInput{Name: "Acme Holdings", Jurisdiction: "UK"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", updated.Name)
	assert.True(t, updated.IsArchived)

	_, err = ev.companies.UpdateCompany(ctx, 999, models.CompanyInput{Name: "Ghost"})
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestArchiveTwiceIsNoop(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	c := ev.company(t, "Acme Ltd")

	require.NoError(t, ev.companies.SetArchived(ctx, c.ID, true))
	require.NoError(t, ev.companies.SetArchived(ctx, c.ID, true))

	got, err := ev.companies.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	assert.ErrorIs(t, ev.companies.SetArchived(ctx, 404, true), e.ErrNotFound)
}

func TestDeleteCompanyRemovesDocumentFiles(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	c := ev.company(t, "Acme Ltd")
	owner := models.Owner{Kind: models.OwnerCompany, ID: c.ID}

	doc, err := ev.documents.UploadFile(ctx, owner, Upload{Name: "deck.pdf", Size: 6, Content: strings.NewReader("slides")}, false)
	require.NoError(t, err)

	require.NoError(t, ev.companies.DeleteCompany(ctx, c.ID))

	ok, err := ev.files.Exists(*doc.FilePath)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = ev.documents.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.ErrorIs(t, ev.companies.DeleteCompany(ctx, c.ID), e.ErrNotFound)
}

func TestCompanyDetail(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	startup := ev.company(t, "Startup Ltd")
	fund := ev.company(t, "Fund Ltd")
	angel := ev.individual(t, "Angel")

	pc, err := ev.investments.CreatePortfolioCompany(ctx, models.PortfolioCompanyInput{ParentCompanyID: startup.ID, WayraNumber: "W-1"})
	require.NoError(t, err)
	fundInvestor, err := ev.investments.CreateCompanyInvestor(ctx, CompanyInvestorInput{CompanyID: fund.ID})
	require.NoError(t, err)
	angelInvestor, err := ev.investments.CreateIndividualInvestor(ctx, IndividualInvestorInput{IndividualID: angel.ID})
	require.NoError(t, err)
	for _, investorID := range []uint{fundInvestor.ID, angelInvestor.ID, fundInvestor.ID} {
		_, err := ev.investments.CreateInvestment(ctx, models.InvestmentInput{
			InvestorID: investorID, StartupID: pc.ID, RoundType: string(models.SeedRound),
			Amount: "1000.50", DateInvested: "2023-01-01",
		})
		require.NoError(t, err)
	}

	rc := ev.requestContext(t, false)
	d, err := ev.companies.CompanyDetail(ctx, rc, startup.ID, 1)
	require.NoError(t, err)
	assert.True(t, d.IsPortfolio)
	assert.False(t, d.IsInvestor)
	assert.Equal(t, 3, d.Investments.Total)
	require.Len(t, d.CompanyInvestors, 1)
	assert.Equal(t, fund.ID, d.CompanyInvestors[0].ID)
	require.Len(t, d.IndividualInvestors, 1)
	assert.Equal(t, angel.ID, d.IndividualInvestors[0].ID)

	// the investor company sees the investments it made
	d, err = ev.companies.CompanyDetail(ctx, rc, fund.ID, 1)
	require.NoError(t, err)
	assert.True(t, d.IsInvestor)
	assert.Equal(t, 2, d.Investments.Total)
}

func TestCompanyDetailArchivedIsStaffOnly(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	c := ev.company(t, "Acme Ltd")
	require.NoError(t, ev.companies.SetArchived(ctx, c.ID, true))

	_, err := ev.companies.CompanyDetail(ctx, ev.requestContext(t, false), c.ID, 1)
	assert.ErrorIs(t, err, e.ErrForbidden)

	d, err := ev.companies.CompanyDetail(ctx, ev.requestContext(t, true), c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, c.ID, d.Company.ID)
}
