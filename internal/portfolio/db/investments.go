package db

import (
	"context"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockCompany loads a company row FOR UPDATE so that role checks against it
// serialise. sqlite ignores the clause and serialises writers on its own.
func (r *Repository) lockCompany(ctx context.Context, id uint) error {
	var company models.Company
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&company, id).Error
	return translate(err)
}

// CreatePortfolioCompany refuses a company that is already an investor or
// already a portfolio company. Both checks run under a lock on the company
// row inside the insert transaction.
func (r *Repository) CreatePortfolioCompany(ctx context.Context, pc *models.PortfolioCompany) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.lockCompany(ctx, pc.ParentCompanyID); err != nil {
			return err
		}
		isInvestor, err := tx.exists(ctx, &models.Investor{}, "company_id = ?", pc.ParentCompanyID)
		if err != nil {
			return err
		}
		if isInvestor {
			return fmt.Errorf("%w: company %d is an investor", e.ErrConflict, pc.ParentCompanyID)
		}
		isPortfolio, err := tx.exists(ctx, &models.PortfolioCompany{}, "parent_company_id = ?", pc.ParentCompanyID)
		if err != nil {
			return err
		}
		if isPortfolio {
			return fmt.Errorf("%w: company %d is already a portfolio company", e.ErrDuplicate, pc.ParentCompanyID)
		}
		return translate(tx.db.WithContext(ctx).Omit("ParentCompany").Create(pc).Error)
	})
}

// GetPortfolioCompany loads a portfolio company with its parent.
func (r *Repository) GetPortfolioCompany(ctx context.Context, id uint) (*models.PortfolioCompany, error) {
	var pc models.PortfolioCompany
	if err := r.db.WithContext(ctx).Preload("ParentCompany").First(&pc, id).Error; err != nil {
		return nil, translate(err)
	}
	return &pc, nil
}

// GetPortfolioCompanyByCompany finds the portfolio record of a company.
func (r *Repository) GetPortfolioCompanyByCompany(ctx context.Context, companyID uint) (*models.PortfolioCompany, error) {
	var pc models.PortfolioCompany
	err := r.db.WithContext(ctx).Preload("ParentCompany").Where("parent_company_id = ?", companyID).First(&pc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pc, nil
}

// UpdateWayraNumber is the only edit allowed on a portfolio company.
func (r *Repository) UpdateWayraNumber(ctx context.Context, id uint, wayra string) error {
	res := r.db.WithContext(ctx).Model(&models.PortfolioCompany{}).Where("id = ?", id).Update("wayra_number", wayra)
	return deleted(res)
}

// WayraNumberTaken reports whether another portfolio company uses wayra.
func (r *Repository) WayraNumberTaken(ctx context.Context, wayra string, excludeID uint) (bool, error) {
	return r.exists(ctx, &models.PortfolioCompany{}, "wayra_number = ? AND id <> ?", wayra, excludeID)
}

// DeletePortfolioCompany removes the portfolio record and the investments it received. The parent company stays.
func (r *Repository) DeletePortfolioCompany(ctx context.Context, id uint) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.deleteInvestmentsWhere(ctx, "startup_id IN ?", []uint{id}); err != nil {
			return err
		}
		return deleted(tx.db.WithContext(ctx).Delete(&models.PortfolioCompany{}, id))
	})
}

// ListPortfolioCompanies returns every portfolio company with its parent.
func (r *Repository) ListPortfolioCompanies(ctx context.Context) ([]models.PortfolioCompany, error) {
	var pcs []models.PortfolioCompany
	err := r.db.WithContext(ctx).Preload("ParentCompany").Order("id").Find(&pcs).Error
	return pcs, translate(err)
}

// CreateInvestor enforces that a portfolio company never becomes an
// investor, and promotes an individual owner's content type.
func (r *Repository) CreateInvestor(ctx context.Context, inv *models.Investor) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if inv.CompanyID != nil {
			if err := tx.lockCompany(ctx, *inv.CompanyID); err != nil {
				return err
			}
			isPortfolio, err := tx.exists(ctx, &models.PortfolioCompany{}, "parent_company_id = ?", *inv.CompanyID)
			if err != nil {
				return err
			}
			if isPortfolio {
				return fmt.Errorf("%w: company %d is a portfolio company", e.ErrConflict, *inv.CompanyID)
			}
		}
		if err := translate(tx.db.WithContext(ctx).Omit("Company", "Individual").Create(inv).Error); err != nil {
			return err
		}
		if inv.IndividualID != nil {
			return tx.syncContentType(ctx, *inv.IndividualID)
		}
		return nil
	})
}

func (r *Repository) preloadInvestor(db *gorm.DB) *gorm.DB {
	return db.Preload("Company").Preload("Individual")
}

// GetInvestor loads an investor with its company or individual.
func (r *Repository) GetInvestor(ctx context.Context, id uint) (*models.Investor, error) {
	var inv models.Investor
	if err := r.preloadInvestor(r.db.WithContext(ctx)).First(&inv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

// GetInvestorByCompany finds the investor record of a company.
func (r *Repository) GetInvestorByCompany(ctx context.Context, companyID uint) (*models.Investor, error) {
	var inv models.Investor
	err := r.preloadInvestor(r.db.WithContext(ctx)).Where("company_id = ?", companyID).First(&inv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

// GetInvestorByIndividual finds the investor record of an individual.
func (r *Repository) GetInvestorByIndividual(ctx context.Context, individualID uint) (*models.Investor, error) {
	var inv models.Investor
	err := r.preloadInvestor(r.db.WithContext(ctx)).Where("individual_id = ?", individualID).First(&inv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

// UpdateInvestorClassification is the only edit allowed on an investor.
func (r *Repository) UpdateInvestorClassification(ctx context.Context, id uint, c models.InvestorClassification) error {
	res := r.db.WithContext(ctx).Model(&models.Investor{}).Where("id = ?", id).Update("classification", c)
	return deleted(res)
}

// DeleteInvestor removes the investor with its investments and demotes an
// individual owner's content type.
func (r *Repository) DeleteInvestor(ctx context.Context, id uint) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		var inv models.Investor
		if err := tx.db.WithContext(ctx).First(&inv, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.deleteInvestmentsWhere(ctx, "investor_id IN ?", []uint{id}); err != nil {
			return err
		}
		if err := deleted(tx.db.WithContext(ctx).Delete(&models.Investor{}, id)); err != nil {
			return err
		}
		if inv.IndividualID != nil {
			return tx.syncContentType(ctx, *inv.IndividualID)
		}
		return nil
	})
}

// ListInvestors returns every investor in id order.
func (r *Repository) ListInvestors(ctx context.Context) ([]models.Investor, error) {
	var investors []models.Investor
	err := r.preloadInvestor(r.db.WithContext(ctx)).Order("id").Find(&investors).Error
	return investors, translate(err)
}

// CreateInvestment checks that both parties exist before inserting.
func (r *Repository) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if _, err := tx.GetInvestor(ctx, inv.InvestorID); err != nil {
			return err
		}
		if _, err := tx.GetPortfolioCompany(ctx, inv.StartupID); err != nil {
			return err
		}
		return translate(tx.db.WithContext(ctx).Omit("Investor", "Startup").Create(inv).Error)
	})
}

func (r *Repository) preloadInvestment(db *gorm.DB) *gorm.DB {
	return db.Preload("Investor.Company").Preload("Investor.Individual").Preload("Startup.ParentCompany")
}

// GetInvestment returns ErrNotFound for an unknown id.
func (r *Repository) GetInvestment(ctx context.Context, id uint) (*models.Investment, error) {
	var inv models.Investment
	if err := r.preloadInvestment(r.db.WithContext(ctx)).First(&inv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

// UpdateInvestment saves the parties, round, amount and dates.
func (r *Repository) UpdateInvestment(ctx context.Context, inv *models.Investment) error {
	res := r.db.WithContext(ctx).Model(inv).
		Select("investor_id", "startup_id", "round_type", "amount", "date_invested", "date_exit").
		Updates(inv)
	return deleted(res)
}

// DeleteInvestment removes an investment with its contract rights.
func (r *Repository) DeleteInvestment(ctx context.Context, id uint) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if _, err := tx.GetInvestment(ctx, id); err != nil {
			return err
		}
		return tx.deleteInvestmentsWhere(ctx, "id IN ?", []uint{id})
	})
}

// InvestmentsForCompany lists the investments received by the company when
// it is a portfolio company, otherwise the ones it made as an investor.
func (r *Repository) InvestmentsForCompany(ctx context.Context, companyID uint) ([]models.Investment, error) {
	received := r.db.Model(&models.PortfolioCompany{}).Select("id").Where("parent_company_id = ?", companyID)
	investments, err := r.investmentsWhere(ctx, "startup_id IN (?)", received)
	if err != nil || len(investments) > 0 {
		return investments, err
	}
	made := r.db.Model(&models.Investor{}).Select("id").Where("company_id = ?", companyID)
	return r.investmentsWhere(ctx, "investor_id IN (?)", made)
}

// InvestmentsForIndividual lists the investments made by the individual.
func (r *Repository) InvestmentsForIndividual(ctx context.Context, individualID uint) ([]models.Investment, error) {
	made := r.db.Model(&models.Investor{}).Select("id").Where("individual_id = ?", individualID)
	return r.investmentsWhere(ctx, "investor_id IN (?)", made)
}

func (r *Repository) investmentsWhere(ctx context.Context, query string, args ...any) ([]models.Investment, error) {
	var investments []models.Investment
	err := r.preloadInvestment(r.db.WithContext(ctx)).Where(query, args...).Order("id").Find(&investments).Error
	return investments, translate(err)
}

// deleteInvestmentsWhere removes matching investments and their contract
// rights. query must take a single id slice.
func (r *Repository) deleteInvestmentsWhere(ctx context.Context, query string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	var investmentIDs []uint
	if err := db.Model(&models.Investment{}).Where(query, ids).Pluck("id", &investmentIDs).Error; err != nil {
		return translate(err)
	}
	if len(investmentIDs) == 0 {
		return nil
	}
	if err := db.Where("investment_id IN ?", investmentIDs).Delete(&models.ContractRight{}).Error; err != nil {
		return translate(err)
	}
	return translate(db.Where("id IN ?", investmentIDs).Delete(&models.Investment{}).Error)
}

// CreateContractRight attaches a right to an investment.
func (r *Repository) CreateContractRight(ctx context.Context, cr *models.ContractRight) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if _, err := tx.GetInvestment(ctx, cr.InvestmentID); err != nil {
			return err
		}
		return translate(tx.db.WithContext(ctx).Omit("Investment").Create(cr).Error)
	})
}

// GetContractRight returns ErrNotFound for an unknown id.
func (r *Repository) GetContractRight(ctx context.Context, id uint) (*models.ContractRight, error) {
	var cr models.ContractRight
	if err := r.db.WithContext(ctx).First(&cr, id).Error; err != nil {
		return nil, translate(err)
	}
	return &cr, nil
}

// DeleteContractRight removes one right.
func (r *Repository) DeleteContractRight(ctx context.Context, id uint) error {
	return deleted(r.db.WithContext(ctx).Delete(&models.ContractRight{}, id))
}

// ContractRightsForInvestment lists the rights of one investment in id order.
func (r *Repository) ContractRightsForInvestment(ctx context.Context, investmentID uint) ([]models.ContractRight, error) {
	var rights []models.ContractRight
	err := r.db.WithContext(ctx).Where("investment_id = ?", investmentID).Order("id").Find(&rights).Error
	return rights, translate(err)
}
