package models

import (
	"path/filepath"
	"strings"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
)

var imageExtensions = map[string]bool{
	".bmp": true, ".gif": true, ".jpeg": true, ".jpg": true,
	".png": true, ".tif": true, ".tiff": true, ".webp": true,
}

// IsImageFile reports whether name carries an image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Programme is an accelerator cohort run with partner companies.
type Programme struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"size:255;not null;uniqueIndex:idx_programmes_name_cohort" json:"name"`
	Cohort         uint         `gorm:"not null;uniqueIndex:idx_programmes_name_cohort;check:cohort >= 1" json:"cohort"`
	Partners       []Company    `gorm:"many2many:programme_partners" json:"partners,omitempty"`
	Participants   []Company    `gorm:"many2many:programme_participants" json:"participants,omitempty"`
	CoachesMentors []Individual `gorm:"many2many:programme_coaches_mentors" json:"coaches_mentors,omitempty"`
	Cover          string       `gorm:"size:500" json:"cover"`
	Description    string       `gorm:"type:text" json:"description"`
}

// ProgrammeInput is the bound programme form. Member lists carry record ids.
type ProgrammeInput struct {
	Name           string `json:"name" form:"name"`
	Cohort         int    `json:"cohort" form:"cohort"`
	Description    string `json:"description" form:"description"`
	Partners       []uint `json:"partners" form:"partners"`
	Participants   []uint `json:"participants" form:"participants"`
	CoachesMentors []uint `json:"coaches_mentors" form:"coaches_mentors"`
}

func (in ProgrammeInput) Validate() error {
	v := e.NewValidationError()
	if required(v, "name", in.Name) {
		maxLen(v, "name", in.Name, 255)
	}
	if in.Cohort < 1 {
		v.Add("cohort", "cohort has to be at least 1")
	}
	if len(in.Partners) == 0 {
		v.Add("partners", "This field is required.")
	}
	if len(in.Participants) == 0 {
		v.Add("participants", "This field is required.")
	}
	if len(in.CoachesMentors) == 0 {
		v.Add("coaches_mentors", "This field is required.")
	}
	return v.OrNil()
}

// Apply copies the scalar fields. Memberships are resolved by the store.
func (in ProgrammeInput) Apply(p *Programme) {
	p.Name = strings.TrimSpace(in.Name)
	p.Cohort = uint(in.Cohort)
	p.Description = in.Description
}

func (p *Programme) Input() ProgrammeInput {
	in := ProgrammeInput{Name: p.Name, Cohort: int(p.Cohort), Description: p.Description}
	for _, c := range p.Partners {
		in.Partners = append(in.Partners, c.ID)
	}
	for _, c := range p.Participants {
		in.Participants = append(in.Participants, c.ID)
	}
	for _, i := range p.CoachesMentors {
		in.CoachesMentors = append(in.CoachesMentors, i.ID)
	}
	return in
}
