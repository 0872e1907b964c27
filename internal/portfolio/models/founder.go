package models

import e "github.com/gartstein/vcpms/internal/portfolio/errors"

// Founder links an individual to the single company they founded.
type Founder struct {
	ID                  uint        `gorm:"primaryKey" json:"id"`
	CompanyFoundedID    uint        `gorm:"not null;uniqueIndex" json:"company_founded_id"`
	CompanyFounded      *Company    `gorm:"constraint:OnDelete:CASCADE" json:"company_founded,omitempty"`
	IndividualFounderID uint        `gorm:"not null;uniqueIndex" json:"individual_founder_id"`
	IndividualFounder   *Individual `gorm:"constraint:OnDelete:CASCADE" json:"individual_founder,omitempty"`
}

type FounderInput struct {
	CompanyFoundedID    uint `json:"companyFounded" form:"companyFounded"`
	IndividualFounderID uint `json:"individualFounder" form:"individualFounder"`
}

func (in FounderInput) Validate() error {
	v := e.NewValidationError()
	if in.CompanyFoundedID == 0 {
		v.Add("companyFounded", "This field is required.")
	}
	if in.IndividualFounderID == 0 {
		v.Add("individualFounder", "This field is required.")
	}
	return v.OrNil()
}

func NewFounder(in FounderInput) (*Founder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &Founder{CompanyFoundedID: in.CompanyFoundedID, IndividualFounderID: in.IndividualFounderID}, nil
}
