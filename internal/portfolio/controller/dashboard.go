package controller

import (
	"context"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/portfolio/session"
	"go.uber.org/zap"
)

// DashboardService computes the filtered, paged lists of the dashboards,
// the archive page and the searches from the request's session state.
type DashboardService struct {
	repo     Repository
	sessions *session.Manager
	logger   *zap.Logger
}

func NewDashboardService(repo Repository, sessions *session.Manager, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		repo:     repo,
		sessions: sessions,
		logger:   logger.Named("dashboard_service"),
	}
}

// CompanyList is a dashboard fragment: one page plus the active layout.
type CompanyList struct {
	Page   listing.Page[models.Company] `json:"page"`
	Layout listing.Layout               `json:"layout"`
}

type IndividualList struct {
	Page   listing.Page[models.Individual] `json:"page"`
	Layout listing.Layout                  `json:"layout"`
}

func state(rc *session.RequestContext) (*session.State, error) {
	if rc == nil || rc.State == nil {
		return nil, e.ErrUnauthorized
	}
	return rc.State, nil
}

func requireStaff(rc *session.RequestContext) error {
	if !rc.IsStaff() {
		return e.ErrForbidden
	}
	return nil
}

func (s *DashboardService) companies(ctx context.Context, mode listing.CompanyMode, archived bool, q listing.Query) ([]models.Company, error) {
	companies, err := s.repo.CompaniesByMode(ctx, mode, archived, string(q))
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (s *DashboardService) individuals(ctx context.Context, mode listing.IndividualMode, archived bool, q listing.Query) ([]models.Individual, error) {
	individuals, err := s.repo.IndividualsByMode(ctx, mode, archived, string(q))
	if err != nil {
		return nil, fmt.Errorf("failed to list individuals: %w", err)
	}
	return individuals, nil
}

// Companies is the company dashboard for the session's filter.
func (s *DashboardService) Companies(ctx context.Context, rc *session.RequestContext, page int) (*CompanyList, error) {
	st, err := state(rc)
	if err != nil {
		return nil, err
	}
	companies, err := s.companies(ctx, st.CompanyFilter, false, "")
	if err != nil {
		return nil, err
	}
	return &CompanyList{
		Page:   listing.Paginate(companies, page, listing.DashboardPageSize),
		Layout: st.CompanyLayout,
	}, nil
}

// Individuals is the individual dashboard for the session's filter.
func (s *DashboardService) Individuals(ctx context.Context, rc *session.RequestContext, page int) (*IndividualList, error) {
	st, err := state(rc)
	if err != nil {
		return nil, err
	}
	individuals, err := s.individuals(ctx, st.IndividualFilter, false, "")
	if err != nil {
		return nil, err
	}
	return &IndividualList{
		Page:   listing.Paginate(individuals, page, listing.DashboardPageSize),
		Layout: st.IndividualLayout,
	}, nil
}

// update writes mutate through to the session store and refreshes rc.
func (s *DashboardService) update(ctx context.Context, rc *session.RequestContext, mutate func(*session.State)) error {
	if _, err := state(rc); err != nil {
		return err
	}
	st, err := s.sessions.Update(ctx, rc.SessionID, mutate)
	if err != nil {
		return err
	}
	rc.State = st
	return nil
}

// ChangeCompanyFilter stores the new company filter and returns the fresh
// first requested page.
func (s *DashboardService) ChangeCompanyFilter(ctx context.Context, rc *session.RequestContext, mode listing.CompanyMode, page int) (*CompanyList, error) {
	if err := s.update(ctx, rc, func(st *session.State) { st.CompanyFilter = mode }); err != nil {
		return nil, err
	}
	return s.Companies(ctx, rc, page)
}

func (s *DashboardService) ChangeCompanyLayout(ctx context.Context, rc *session.RequestContext, layout listing.Layout, page int) (*CompanyList, error) {
	if err := s.update(ctx, rc, func(st *session.State) { st.CompanyLayout = layout }); err != nil {
		return nil, err
	}
	return s.Companies(ctx, rc, page)
}

func (s *DashboardService) ChangeIndividualFilter(ctx context.Context, rc *session.RequestContext, mode listing.IndividualMode, page int) (*IndividualList, error) {
	if err := s.update(ctx, rc, func(st *session.State) { st.IndividualFilter = mode }); err != nil {
		return nil, err
	}
	return s.Individuals(ctx, rc, page)
}

func (s *DashboardService) ChangeIndividualLayout(ctx context.Context, rc *session.RequestContext, layout listing.Layout, page int) (*IndividualList, error) {
	if err := s.update(ctx, rc, func(st *session.State) { st.IndividualLayout = layout }); err != nil {
		return nil, err
	}
	return s.Individuals(ctx, rc, page)
}

// Archive is the staff archive page: archived companies and individuals,
// each paged on its own.
type Archive struct {
	Companies   listing.Page[models.Company]    `json:"companies"`
	Individuals listing.Page[models.Individual] `json:"individuals"`
}

func (s *DashboardService) ArchivedCompanies(ctx context.Context, rc *session.RequestContext, page int) (listing.Page[models.Company], error) {
	if err := requireStaff(rc); err != nil {
		return listing.Page[models.Company]{}, err
	}
	st, err := state(rc)
	if err != nil {
		return listing.Page[models.Company]{}, err
	}
	companies, err := s.companies(ctx, st.ArchivedCompanyFilter, true, "")
	if err != nil {
		return listing.Page[models.Company]{}, err
	}
	return listing.Paginate(companies, page, listing.ArchivePageSize), nil
}

func (s *DashboardService) ArchivedIndividuals(ctx context.Context, rc *session.RequestContext, page int) (listing.Page[models.Individual], error) {
	if err := requireStaff(rc); err != nil {
		return listing.Page[models.Individual]{}, err
	}
	st, err := state(rc)
	if err != nil {
		return listing.Page[models.Individual]{}, err
	}
	individuals, err := s.individuals(ctx, st.ArchivedIndividualFilter, true, "")
	if err != nil {
		return listing.Page[models.Individual]{}, err
	}
	return listing.Paginate(individuals, page, listing.ArchivePageSize), nil
}

func (s *DashboardService) Archive(ctx context.Context, rc *session.RequestContext, companyPage, individualPage int) (*Archive, error) {
	companies, err := s.ArchivedCompanies(ctx, rc, companyPage)
	if err != nil {
		return nil, err
	}
	individuals, err := s.ArchivedIndividuals(ctx, rc, individualPage)
	if err != nil {
		return nil, err
	}
	return &Archive{Companies: companies, Individuals: individuals}, nil
}

func (s *DashboardService) ChangeArchivedCompanyFilter(ctx context.Context, rc *session.RequestContext, mode listing.CompanyMode, page int) (listing.Page[models.Company], error) {
	if err := requireStaff(rc); err != nil {
		return listing.Page[models.Company]{}, err
	}
	if err := s.update(ctx, rc, func(st *session.State) { st.ArchivedCompanyFilter = mode }); err != nil {
		return listing.Page[models.Company]{}, err
	}
	return s.ArchivedCompanies(ctx, rc, page)
}

func (s *DashboardService) ChangeArchivedIndividualFilter(ctx context.Context, rc *session.RequestContext, mode listing.IndividualMode, page int) (listing.Page[models.Individual], error) {
	if err := requireStaff(rc); err != nil {
		return listing.Page[models.Individual]{}, err
	}
	if err := s.update(ctx, rc, func(st *session.State) { st.ArchivedIndividualFilter = mode }); err != nil {
		return listing.Page[models.Individual]{}, err
	}
	return s.ArchivedIndividuals(ctx, rc, page)
}

// SearchCompanies matches q against the names in the session's company
// view. The empty query matches nothing.
func (s *DashboardService) SearchCompanies(ctx context.Context, rc *session.RequestContext, q listing.Query) ([]models.Company, error) {
	st, err := state(rc)
	if err != nil {
		return nil, err
	}
	if q.Empty() {
		return []models.Company{}, nil
	}
	return s.companies(ctx, st.CompanyFilter, false, q)
}

// SearchCompaniesInline is the as-you-type company search.
func (s *DashboardService) SearchCompaniesInline(ctx context.Context, rc *session.RequestContext, q listing.Query) ([]models.Company, error) {
	companies, err := s.SearchCompanies(ctx, rc, q)
	return listing.Cap(companies, listing.InlineSearchCap), err
}

func (s *DashboardService) SearchCompaniesPage(ctx context.Context, rc *session.RequestContext, q listing.Query, page int) (listing.Page[models.Company], error) {
	companies, err := s.SearchCompanies(ctx, rc, q)
	if err != nil {
		return listing.Page[models.Company]{}, err
	}
	return listing.Paginate(companies, page, listing.DashboardPageSize), nil
}

// SearchIndividuals matches q against the names in the session's
// individual view.
func (s *DashboardService) SearchIndividuals(ctx context.Context, rc *session.RequestContext, q listing.Query) ([]models.Individual, error) {
	st, err := state(rc)
	if err != nil {
		return nil, err
	}
	if q.Empty() {
		return []models.Individual{}, nil
	}
	return s.individuals(ctx, st.IndividualFilter, false, q)
}

func (s *DashboardService) SearchIndividualsInline(ctx context.Context, rc *session.RequestContext, q listing.Query) ([]models.Individual, error) {
	individuals, err := s.SearchIndividuals(ctx, rc, q)
	return listing.Cap(individuals, listing.InlineSearchCap), err
}

func (s *DashboardService) SearchIndividualsPage(ctx context.Context, rc *session.RequestContext, q listing.Query, page int) (listing.Page[models.Individual], error) {
	individuals, err := s.SearchIndividuals(ctx, rc, q)
	if err != nil {
		return listing.Page[models.Individual]{}, err
	}
	return listing.Paginate(individuals, page, listing.DashboardPageSize), nil
}

// ArchiveSearch is the staff search over both archived views.
type ArchiveSearch struct {
	Companies   []models.Company    `json:"companies"`
	Individuals []models.Individual `json:"individuals"`
}

// SearchArchive matches q in the session's archived views, capped per
// section.
func (s *DashboardService) SearchArchive(ctx context.Context, rc *session.RequestContext, q listing.Query) (*ArchiveSearch, error) {
	if err := requireStaff(rc); err != nil {
		return nil, err
	}
	st, err := state(rc)
	if err != nil {
		return nil, err
	}
	res := &ArchiveSearch{Companies: []models.Company{}, Individuals: []models.Individual{}}
	if q.Empty() {
		return res, nil
	}
	companies, err := s.companies(ctx, st.ArchivedCompanyFilter, true, q)
	if err != nil {
		return nil, err
	}
	individuals, err := s.individuals(ctx, st.ArchivedIndividualFilter, true, q)
	if err != nil {
		return nil, err
	}
	res.Companies = listing.Cap(companies, listing.ArchiveSearchCap)
	res.Individuals = listing.Cap(individuals, listing.ArchiveSearchCap)
	return res, nil
}
