package db

import (
	"context"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
)

// companyUniqueColumns are the company columns callers may check with
// CompanyFieldTaken.
var companyUniqueColumns = map[string]bool{
	"name":           true,
	"trading_names":  true,
	"previous_names": true,
}

// CreateCompany inserts a company. Unique name clashes come back as ErrDuplicate.
func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	return translate(r.db.WithContext(ctx).Create(company).Error)
}

// GetCompany returns ErrNotFound for an unknown id.
func (r *Repository) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

// GetCompanyByRegistrationNumber returns the lowest-id company with number.
func (r *Repository) GetCompanyByRegistrationNumber(ctx context.Context, number string) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).Where("registration_number = ?", number).Order("id").First(&company).Error
	if err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

// UpdateCompany saves every editable column of company.
func (r *Repository) UpdateCompany(ctx context.Context, company *models.Company) error {
	res := r.db.WithContext(ctx).Model(company).Select("*").Omit("id", "created_at").Updates(company)
	return deleted(res)
}

// SetCompanyArchived flips the archive flag.
func (r *Repository) SetCompanyArchived(ctx context.Context, id uint, archived bool) error {
	res := r.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", id).Update("is_archived", archived)
	return deleted(res)
}

// CompanyFieldTaken reports whether another company already uses value in
// one of the unique name columns.
func (r *Repository) CompanyFieldTaken(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	if !companyUniqueColumns[column] {
		return false, fmt.Errorf("%w: %s is not a unique company column", e.ErrInvalidInput, column)
	}
	return r.exists(ctx, &models.Company{}, column+" = ? AND id <> ?", value, excludeID)
}

// ListCompanies returns every company ordered by id.
func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.WithContext(ctx).Order("id").Find(&companies).Error
	return companies, translate(err)
}

func (r *Repository) companiesByIDs(ctx context.Context, ids []uint) ([]models.Company, error) {
	var companies []models.Company
	if len(ids) == 0 {
		return companies, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&companies).Error; err != nil {
		return nil, translate(err)
	}
	if len(companies) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("%w: company", e.ErrNotFound)
	}
	return companies, nil
}

// CompaniesByMode returns the classification view for mode, restricted to
// names containing needle when it is not empty.
func (r *Repository) CompaniesByMode(ctx context.Context, mode listing.CompanyMode, archived bool, needle string) ([]models.Company, error) {
	q := r.db.WithContext(ctx).Model(&models.Company{}).Where("is_archived = ?", archived)
	switch mode {
	case listing.PortfolioCompanies:
		q = q.Where("id IN (?)", r.db.Model(&models.PortfolioCompany{}).Select("parent_company_id"))
	case listing.InvestorCompanies:
		q = q.Where("id IN (?)", r.db.Model(&models.Investor{}).Select("company_id").Where("company_id IS NOT NULL"))
	}
	q = r.nameContains(q, "name", needle)

	var companies []models.Company
	err := q.Order("id").Find(&companies).Error
	return companies, translate(err)
}

// DeleteCompany removes the company and everything that hangs off it in one
// transaction. The documents that were removed are returned so their stored
// files can be cleaned up.
func (r *Repository) DeleteCompany(ctx context.Context, id uint) ([]models.Document, error) {
	var removed []models.Document
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		if _, err := tx.GetCompany(ctx, id); err != nil {
			return err
		}
		var err error
		if removed, err = tx.deleteCompanyChildren(ctx, id); err != nil {
			return err
		}
		return deleted(tx.db.WithContext(ctx).Delete(&models.Company{}, id))
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *Repository) deleteCompanyChildren(ctx context.Context, id uint) ([]models.Document, error) {
	db := r.db.WithContext(ctx)

	var investorIDs []uint
	if err := db.Model(&models.Investor{}).Where("company_id = ?", id).Pluck("id", &investorIDs).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.deleteInvestmentsWhere(ctx, "investor_id IN ?", investorIDs); err != nil {
		return nil, err
	}
	if err := db.Where("company_id = ?", id).Delete(&models.Investor{}).Error; err != nil {
		return nil, translate(err)
	}

	var portfolioIDs []uint
	if err := db.Model(&models.PortfolioCompany{}).Where("parent_company_id = ?", id).Pluck("id", &portfolioIDs).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.deleteInvestmentsWhere(ctx, "startup_id IN ?", portfolioIDs); err != nil {
		return nil, err
	}
	if err := db.Where("parent_company_id = ?", id).Delete(&models.PortfolioCompany{}).Error; err != nil {
		return nil, translate(err)
	}

	var founderIndividuals []uint
	if err := db.Model(&models.Founder{}).Where("company_founded_id = ?", id).Pluck("individual_founder_id", &founderIndividuals).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Where("company_founded_id = ?", id).Delete(&models.Founder{}).Error; err != nil {
		return nil, translate(err)
	}
	for _, individualID := range founderIndividuals {
		if err := r.syncContentType(ctx, individualID); err != nil {
			return nil, err
		}
	}

	for _, stmt := range []string{
		"DELETE FROM programme_partners WHERE company_id = ?",
		"DELETE FROM programme_participants WHERE company_id = ?",
	} {
		if err := db.Exec(stmt, id).Error; err != nil {
			return nil, translate(err)
		}
	}
	return r.deleteDocumentsWhere(ctx, "company_id = ?", id)
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
