package db

import (
	"context"

	"github.com/gartstein/vcpms/internal/portfolio/models"
	"gorm.io/gorm/clause"
)

// ProgrammeMembers holds the ids of a programme's related records.
type ProgrammeMembers struct {
	Partners       []uint
	Participants   []uint
	CoachesMentors []uint
}

func (r *Repository) loadMembers(ctx context.Context, p *models.Programme, m ProgrammeMembers) error {
	var err error
	if p.Partners, err = r.companiesByIDs(ctx, m.Partners); err != nil {
		return err
	}
	if p.Participants, err = r.companiesByIDs(ctx, m.Participants); err != nil {
		return err
	}
	p.CoachesMentors, err = r.individualsByIDs(ctx, m.CoachesMentors)
	return err
}

// CreateProgramme inserts p with the members named in m.
func (r *Repository) CreateProgramme(ctx context.Context, p *models.Programme, m ProgrammeMembers) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.loadMembers(ctx, p, m); err != nil {
			return err
		}
		return translate(tx.db.WithContext(ctx).Create(p).Error)
	})
}

// UpdateProgramme saves the scalar fields and replaces every membership.
func (r *Repository) UpdateProgramme(ctx context.Context, p *models.Programme, m ProgrammeMembers) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		res := db.Model(p).Select("name", "cohort", "cover", "description").Omit(clause.Associations).Updates(p)
		if err := deleted(res); err != nil {
			return err
		}
		if err := tx.loadMembers(ctx, p, m); err != nil {
			return err
		}
		for name, members := range map[string]any{
			"Partners":       &p.Partners,
			"Participants":   &p.Participants,
			"CoachesMentors": &p.CoachesMentors,
		} {
			if err := db.Model(p).Association(name).Replace(members); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

// SetProgrammeCover stores the path of a new cover image.
func (r *Repository) SetProgrammeCover(ctx context.Context, id uint, cover string) error {
	res := r.db.WithContext(ctx).Model(&models.Programme{}).Where("id = ?", id).Update("cover", cover)
	return deleted(res)
}

// GetProgramme loads a programme with its members.
func (r *Repository) GetProgramme(ctx context.Context, id uint) (*models.Programme, error) {
	var p models.Programme
	err := r.db.WithContext(ctx).
		Preload("Partners", orderByID).
		Preload("Participants", orderByID).
		Preload("CoachesMentors", orderByID).
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ProgrammeTaken reports whether another programme has the same name and
// cohort.
func (r *Repository) ProgrammeTaken(ctx context.Context, name string, cohort uint, excludeID uint) (bool, error) {
	return r.exists(ctx, &models.Programme{}, "name = ? AND cohort = ? AND id <> ?", name, cohort, excludeID)
}

// ListProgrammes returns programmes in id order, restricted to names
// containing needle when it is not empty.
func (r *Repository) ListProgrammes(ctx context.Context, needle string) ([]models.Programme, error) {
	q := r.nameContains(r.db.WithContext(ctx).Model(&models.Programme{}), "name", needle)
	var programmes []models.Programme
	err := q.Order("id").Find(&programmes).Error
	return programmes, translate(err)
}

// ProgrammesForParticipant lists the programmes a company takes part in,
// with their coaches and mentors.
func (r *Repository) ProgrammesForParticipant(ctx context.Context, companyID uint) ([]models.Programme, error) {
	var programmes []models.Programme
	err := r.db.WithContext(ctx).
		Preload("CoachesMentors", orderByID).
		Where("id IN (?)", r.db.Table("programme_participants").Select("programme_id").Where("company_id = ?", companyID)).
		Order("id").Find(&programmes).Error
	return programmes, translate(err)
}

// DeleteProgramme removes the programme, its memberships and documents.
// Removed documents are returned for file cleanup.
func (r *Repository) DeleteProgramme(ctx context.Context, id uint) ([]models.Document, error) {
	var removed []models.Document
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		var p models.Programme
		if err := db.First(&p, id).Error; err != nil {
			return translate(err)
		}
		for _, stmt := range []string{
			"DELETE FROM programme_partners WHERE programme_id = ?",
			"DELETE FROM programme_participants WHERE programme_id = ?",
			"DELETE FROM programme_coaches_mentors WHERE programme_id = ?",
		} {
			if err := db.Exec(stmt, id).Error; err != nil {
				return translate(err)
			}
		}
		var err error
		if removed, err = tx.deleteDocumentsWhere(ctx, "programme_id = ?", id); err != nil {
			return err
		}
		return deleted(db.Delete(&models.Programme{}, id))
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
