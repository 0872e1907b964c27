package db

import (
	"context"

	"github.com/gartstein/vcpms/internal/portfolio/models"
)

// CreateFounder links an individual to a company and promotes the
// individual's content type.
func (r *Repository) CreateFounder(ctx context.Context, f *models.Founder) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if _, err := tx.GetCompany(ctx, f.CompanyFoundedID); err != nil {
			return err
		}
		if err := tx.db.WithContext(ctx).Omit("CompanyFounded", "IndividualFounder").Create(f).Error; err != nil {
			return translate(err)
		}
		return tx.syncContentType(ctx, f.IndividualFounderID)
	})
}

// GetFounderByIndividual returns the founder record of an individual.
func (r *Repository) GetFounderByIndividual(ctx context.Context, individualID uint) (*models.Founder, error) {
	var f models.Founder
	err := r.db.WithContext(ctx).Preload("CompanyFounded").Preload("IndividualFounder").
		Where("individual_founder_id = ?", individualID).First(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// FoundersOfCompany returns the non-archived individuals who founded the
// company.
func (r *Repository) FoundersOfCompany(ctx context.Context, companyID uint) ([]models.Individual, error) {
	var individuals []models.Individual
	err := r.db.WithContext(ctx).
		Where("is_archived = ?", false).
		Where("id IN (?)", r.db.Model(&models.Founder{}).Select("individual_founder_id").Where("company_founded_id = ?", companyID)).
		Order("id").Find(&individuals).Error
	return individuals, translate(err)
}

// UpdateFounder moves the link to another company or individual. Both the
// old and the new individual get their content type resynchronised.
func (r *Repository) UpdateFounder(ctx context.Context, f *models.Founder) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		var old models.Founder
		if err := tx.db.WithContext(ctx).First(&old, f.ID).Error; err != nil {
			return translate(err)
		}
		if _, err := tx.GetCompany(ctx, f.CompanyFoundedID); err != nil {
			return err
		}
		res := tx.db.WithContext(ctx).Model(&models.Founder{}).Where("id = ?", f.ID).Updates(map[string]any{
			"company_founded_id":    f.CompanyFoundedID,
			"individual_founder_id": f.IndividualFounderID,
		})
		if err := deleted(res); err != nil {
			return err
		}
		if old.IndividualFounderID != f.IndividualFounderID {
			if err := tx.syncContentType(ctx, old.IndividualFounderID); err != nil {
				return err
			}
		}
		return tx.syncContentType(ctx, f.IndividualFounderID)
	})
}

// DeleteFounder removes the link and demotes the individual's content type.
func (r *Repository) DeleteFounder(ctx context.Context, id uint) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		var f models.Founder
		if err := tx.db.WithContext(ctx).First(&f, id).Error; err != nil {
			return translate(err)
		}
		if err := deleted(tx.db.WithContext(ctx).Delete(&models.Founder{}, id)); err != nil {
			return err
		}
		return tx.syncContentType(ctx, f.IndividualFounderID)
	})
}
