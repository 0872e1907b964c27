package db

import (
	"context"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
)

// CreateIndividual stores the individual with its optional address and
// experiences atomically.
func (r *Repository) CreateIndividual(ctx context.Context, ind *models.Individual, addr *models.ResidentialAddress, exps []models.PastExperience) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if ind.ContentType == "" {
			ind.ContentType = models.ContentTypeIndividual
		}
		if err := tx.db.WithContext(ctx).Omit("ResidentialAddresses", "PastExperiences").Create(ind).Error; err != nil {
			return translate(err)
		}
		return tx.replaceIndividualChildren(ctx, ind.ID, addr, exps)
	})
}

// UpdateIndividual saves the profile fields and replaces the address and
// experiences with the given ones.
func (r *Repository) UpdateIndividual(ctx context.Context, ind *models.Individual, addr *models.ResidentialAddress, exps []models.PastExperience) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		res := tx.db.WithContext(ctx).Model(ind).
			Select("*").Omit("id", "created_at", "content_type", "is_archived", "ResidentialAddresses", "PastExperiences").
			Updates(ind)
		if err := deleted(res); err != nil {
			return err
		}
		db := tx.db.WithContext(ctx)
		if err := db.Where("individual_id = ?", ind.ID).Delete(&models.ResidentialAddress{}).Error; err != nil {
			return translate(err)
		}
		if err := db.Where("individual_id = ?", ind.ID).Delete(&models.PastExperience{}).Error; err != nil {
			return translate(err)
		}
		return tx.replaceIndividualChildren(ctx, ind.ID, addr, exps)
	})
}

func (r *Repository) replaceIndividualChildren(ctx context.Context, individualID uint, addr *models.ResidentialAddress, exps []models.PastExperience) error {
	db := r.db.WithContext(ctx)
	if addr != nil {
		addr.ID = 0
		addr.IndividualID = individualID
		if err := db.Create(addr).Error; err != nil {
			return translate(err)
		}
	}
	for i := range exps {
		exps[i].ID = 0
		exps[i].IndividualID = individualID
	}
	if len(exps) > 0 {
		if err := db.Create(&exps).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}

// GetIndividual loads the individual with its addresses and experiences.
func (r *Repository) GetIndividual(ctx context.Context, id uint) (*models.Individual, error) {
	var ind models.Individual
	err := r.db.WithContext(ctx).
		Preload("ResidentialAddresses", orderByID).
		Preload("PastExperiences", orderByID).
		First(&ind, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ind, nil
}

// SetIndividualArchived flips the archive flag.
func (r *Repository) SetIndividualArchived(ctx context.Context, id uint, archived bool) error {
	res := r.db.WithContext(ctx).Model(&models.Individual{}).Where("id = ?", id).Update("is_archived", archived)
	return deleted(res)
}

// SetIndividualProfilePic stores the path of a new profile picture.
func (r *Repository) SetIndividualProfilePic(ctx context.Context, id uint, path string) error {
	res := r.db.WithContext(ctx).Model(&models.Individual{}).Where("id = ?", id).Update("profile_pic", path)
	return deleted(res)
}

// ListIndividuals returns every individual in id order.
func (r *Repository) ListIndividuals(ctx context.Context) ([]models.Individual, error) {
	var individuals []models.Individual
	err := r.db.WithContext(ctx).Order("id").Find(&individuals).Error
	return individuals, translate(err)
}

func (r *Repository) individualsByIDs(ctx context.Context, ids []uint) ([]models.Individual, error) {
	var individuals []models.Individual
	if len(ids) == 0 {
		return individuals, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&individuals).Error; err != nil {
		return nil, translate(err)
	}
	if len(individuals) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("%w: individual", e.ErrNotFound)
	}
	return individuals, nil
}

// IndividualsByMode returns the classification view for mode, restricted to
// names containing needle when it is not empty.
func (r *Repository) IndividualsByMode(ctx context.Context, mode listing.IndividualMode, archived bool, needle string) ([]models.Individual, error) {
	q := r.db.WithContext(ctx).Model(&models.Individual{}).Where("is_archived = ?", archived)
	switch mode {
	case listing.FounderIndividuals:
		q = q.Where("id IN (?)", r.db.Model(&models.Founder{}).Select("individual_founder_id"))
	case listing.InvestorIndividuals:
		q = q.Where("id IN (?)", r.db.Model(&models.Investor{}).Select("individual_id").Where("individual_id IS NOT NULL"))
	}
	q = r.nameContains(q, "name", needle)

	var individuals []models.Individual
	err := q.Order("id").Find(&individuals).Error
	return individuals, translate(err)
}

// DeleteIndividual removes the individual and its dependants. Removed
// documents are returned for file cleanup.
func (r *Repository) DeleteIndividual(ctx context.Context, id uint) ([]models.Document, error) {
	var removed []models.Document
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		var ind models.Individual
		if err := db.First(&ind, id).Error; err != nil {
			return translate(err)
		}

		var investorIDs []uint
		if err := db.Model(&models.Investor{}).Where("individual_id = ?", id).Pluck("id", &investorIDs).Error; err != nil {
			return translate(err)
		}
		if err := tx.deleteInvestmentsWhere(ctx, "investor_id IN ?", investorIDs); err != nil {
			return err
		}
		for _, model := range []any{&models.Investor{}, &models.ResidentialAddress{}, &models.PastExperience{}} {
			if err := db.Where("individual_id = ?", id).Delete(model).Error; err != nil {
				return translate(err)
			}
		}
		if err := db.Where("individual_founder_id = ?", id).Delete(&models.Founder{}).Error; err != nil {
			return translate(err)
		}
		if err := db.Exec("DELETE FROM programme_coaches_mentors WHERE individual_id = ?", id).Error; err != nil {
			return translate(err)
		}
		var err error
		if removed, err = tx.deleteDocumentsWhere(ctx, "individual_id = ?", id); err != nil {
			return err
		}
		return deleted(db.Delete(&models.Individual{}, id))
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// syncContentType keeps the stored tag pointing at a subtype row that
// exists. A tag whose row is gone falls back to founder, investor, then the
// base type; a base tag is promoted when a subtype row appears.
func (r *Repository) syncContentType(ctx context.Context, individualID uint) error {
	db := r.db.WithContext(ctx)
	var ind models.Individual
	if err := db.Select("id", "content_type").First(&ind, individualID).Error; err != nil {
		return translate(err)
	}
	isFounder, err := r.exists(ctx, &models.Founder{}, "individual_founder_id = ?", individualID)
	if err != nil {
		return err
	}
	isInvestor, err := r.exists(ctx, &models.Investor{}, "individual_id = ?", individualID)
	if err != nil {
		return err
	}

	want := ind.ContentType
	switch {
	case want == models.ContentTypeFounder && isFounder, want == models.ContentTypeInvestor && isInvestor:
	case isFounder:
		want = models.ContentTypeFounder
	case isInvestor:
		want = models.ContentTypeInvestor
	default:
		want = models.ContentTypeIndividual
	}
	if want == ind.ContentType {
		return nil
	}
	err = db.Model(&models.Individual{}).Where("id = ?", individualID).Update("content_type", want).Error
	return translate(err)
}

type profileResolver func(ctx context.Context, r *Repository, ind *models.Individual) (models.Profile, error)

var profileResolvers = map[models.ContentType]profileResolver{
	models.ContentTypeIndividual: func(_ context.Context, _ *Repository, ind *models.Individual) (models.Profile, error) {
		return &models.IndividualProfile{Individual: ind}, nil
	},
	models.ContentTypeFounder: func(ctx context.Context, r *Repository, ind *models.Individual) (models.Profile, error) {
		var f models.Founder
		err := r.db.WithContext(ctx).Preload("CompanyFounded").
			Where("individual_founder_id = ?", ind.ID).First(&f).Error
		if err != nil {
			return nil, translate(err)
		}
		f.IndividualFounder = ind
		return &models.FounderProfile{Individual: ind, Founder: &f}, nil
	},
	models.ContentTypeInvestor: func(ctx context.Context, r *Repository, ind *models.Individual) (models.Profile, error) {
		var inv models.Investor
		err := r.db.WithContext(ctx).Where("individual_id = ?", ind.ID).First(&inv).Error
		if err != nil {
			return nil, translate(err)
		}
		inv.Individual = ind
		return &models.InvestorProfile{Individual: ind, Investor: &inv}, nil
	},
}

// ResolveConcrete loads the individual and returns the profile its content
// type names.
func (r *Repository) ResolveConcrete(ctx context.Context, individualID uint) (models.Profile, error) {
	ind, err := r.GetIndividual(ctx, individualID)
	if err != nil {
		return nil, err
	}
	resolve, ok := profileResolvers[ind.ContentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", e.ErrUnknownContentType, ind.ContentType)
	}
	return resolve(ctx, r, ind)
}
