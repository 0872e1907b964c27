package controller

import (
	"context"
	"fmt"
	"testing"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDashboard creates n plain companies plus one portfolio company and
// one investor company.
func seedDashboard(t *testing.T, ev *env, n int) (portfolio, investor *models.Company) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		ev.company(t, fmt.Sprintf("Plain %d", i))
	}
	portfolio = ev.company(t, "Rocket Ltd")
	investor = ev.company(t, "Capital Ltd")
	_, err := ev.investments.CreatePortfolioCompany(ctx, models.PortfolioCompanyInput{ParentCompanyID: portfolio.ID, WayraNumber: "W-1"})
	require.NoError(t, err)
	_, err = ev.investments.CreateCompanyInvestor(ctx, CompanyInvestorInput{CompanyID: investor.ID})
	require.NoError(t, err)
	return portfolio, investor
}

func TestCompanyDashboardFilters(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	portfolio, investor := seedDashboard(t, ev, 6)
	rc := ev.requestContext(t, false)

	list, err := ev.dashboard.Companies(ctx, rc, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, list.Page.Total)
	assert.Len(t, list.Page.Items, listing.DashboardPageSize)
	assert.Equal(t, listing.CardLayout, list.Layout)

	tests := []struct {
		mode listing.CompanyMode
		want uint
	}{
		{mode: listing.PortfolioCompanies, want: portfolio.ID},
		{mode: listing.InvestorCompanies, want: investor.ID},
	}
	for _, tt := range tests {
		list, err := ev.dashboard.ChangeCompanyFilter(ctx, rc, tt.mode, 1)
		require.NoError(t, err)
		require.Len(t, list.Page.Items, 1)
		assert.Equal(t, tt.want, list.Page.Items[0].ID)
	}

	// the filter is remembered in the session store
	st, err := ev.sessions.Load(ctx, rc.SessionID)
	require.NoError(t, err)
	assert.Equal(t, listing.InvestorCompanies, st.CompanyFilter)

	list, err = ev.dashboard.ChangeCompanyLayout(ctx, rc, listing.TableLayout, 1)
	require.NoError(t, err)
	assert.Equal(t, listing.TableLayout, list.Layout)
	assert.Len(t, list.Page.Items, 1, "layout change keeps the filter")
}

func TestDashboardHidesArchived(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	c := ev.company(t, "Hidden Ltd")
	ev.company(t, "Shown Ltd")
	require.NoError(t, ev.companies.SetArchived(ctx, c.ID, true))
	rc := ev.requestContext(t, false)

	list, err := ev.dashboard.Companies(ctx, rc, 1)
	require.NoError(t, err)
	require.Len(t, list.Page.Items, 1)
	assert.Equal(t, "Shown Ltd", list.Page.Items[0].Name)

	found, err := ev.dashboard.SearchCompanies(ctx, rc, listing.Query("Hidden"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestIndividualDashboardFilters(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	acme := ev.company(t, "Acme Ltd")
	founder := ev.individual(t, "Founder")
	angel := ev.individual(t, "Angel")
	ev.individual(t, "Plain")
	_, err := ev.founders.CreateFounder(ctx, models.FounderInput{CompanyFoundedID: acme.ID, IndividualFounderID: founder.ID})
	require.NoError(t, err)
	_, err = ev.investments.CreateIndividualInvestor(ctx, IndividualInvestorInput{IndividualID: angel.ID})
	require.NoError(t, err)
	rc := ev.requestContext(t, false)

	list, err := ev.dashboard.Individuals(ctx, rc, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Page.Total)

	list, err = ev.dashboard.ChangeIndividualFilter(ctx, rc, listing.FounderIndividuals, 1)
	require.NoError(t, err)
	require.Len(t, list.Page.Items, 1)
	assert.Equal(t, founder.ID, list.Page.Items[0].ID)

	list, err = ev.dashboard.ChangeIndividualFilter(ctx, rc, listing.InvestorIndividuals, 1)
	require.NoError(t, err)
	require.Len(t, list.Page.Items, 1)
	assert.Equal(t, angel.ID, list.Page.Items[0].ID)

	list, err = ev.dashboard.ChangeIndividualLayout(ctx, rc, listing.TableLayout, 1)
	require.NoError(t, err)
	assert.Equal(t, listing.TableLayout, list.Layout)
}

func TestDashboardSearch(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	seedDashboard(t, ev, 8)
	rc := ev.requestContext(t, false)

	inline, err := ev.dashboard.SearchCompaniesInline(ctx, rc, listing.Query("Plain"))
	require.NoError(t, err)
	assert.Len(t, inline, listing.InlineSearchCap)

	page, err := ev.dashboard.SearchCompaniesPage(ctx, rc, listing.Query("Plain"), 2)
	require.NoError(t, err)
	assert.Equal(t, 8, page.Total)
	assert.Len(t, page.Items, 2)

	none, err := ev.dashboard.SearchCompaniesInline(ctx, rc, listing.Query(""))
	require.NoError(t, err)
	assert.Empty(t, none)

	// search stays inside the active filter
	_, err = ev.dashboard.ChangeCompanyFilter(ctx, rc, listing.PortfolioCompanies, 1)
	require.NoError(t, err)
	found, err := ev.dashboard.SearchCompanies(ctx, rc, listing.Query("Ltd"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Rocket Ltd", found[0].Name)

	ev.individual(t, "Grace Hopper")
	people, err := ev.dashboard.SearchIndividualsPage(ctx, rc, listing.Query("Grace"), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, people.Total)

	_, err = ev.dashboard.Companies(ctx, nil, 1)
	assert.ErrorIs(t, err, e.ErrUnauthorized)
}

func TestArchive(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	portfolio, _ := seedDashboard(t, ev, 6)
	all, err := ev.repo.CompaniesByMode(ctx, listing.AllCompanies, false, "")
	require.NoError(t, err)
	for _, c := range all {
		require.NoError(t, ev.companies.SetArchived(ctx, c.ID, true))
	}
	ind := ev.individual(t, "Old Timer")
	require.NoError(t, ev.individuals.SetArchived(ctx, ind.ID, true))

	_, err = ev.dashboard.Archive(ctx, ev.requestContext(t, false), 1, 1)
	assert.ErrorIs(t, err, e.ErrForbidden)
	_, err = ev.dashboard.SearchArchive(ctx, ev.requestContext(t, false), listing.Query("Plain"))
	assert.ErrorIs(t, err, e.ErrForbidden)

	staff := ev.requestContext(t, true)
	archive, err := ev.dashboard.Archive(ctx, staff, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, archive.Companies.Total)
	assert.Len(t, archive.Companies.Items, 3)
	assert.Equal(t, 1, archive.Individuals.Total)

	filtered, err := ev.dashboard.ChangeArchivedCompanyFilter(ctx, staff, listing.PortfolioCompanies, 1)
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, portfolio.ID, filtered.Items[0].ID)

	people, err := ev.dashboard.ChangeArchivedIndividualFilter(ctx, staff, listing.FounderIndividuals, 1)
	require.NoError(t, err)
	assert.Empty(t, people.Items)

	_, err = ev.dashboard.ChangeArchivedCompanyFilter(ctx, staff, listing.AllCompanies, 1)
	require.NoError(t, err)
	results, err := ev.dashboard.SearchArchive(ctx, staff, listing.Query("Plain"))
	require.NoError(t, err)
	assert.Len(t, results.Companies, listing.ArchiveSearchCap)
	assert.Empty(t, results.Individuals)
}
