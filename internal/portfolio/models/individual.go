package models

import (
	"strconv"
	"strings"
	"time"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
)

// ContentType tags which concrete profile an Individual row resolves to.
type ContentType string

const (
	ContentTypeIndividual ContentType = "individual"
	ContentTypeFounder    ContentType = "founder"
	ContentTypeInvestor   ContentType = "investor"
)

// Individual is a person known to the fund.
type Individual struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	ContentType     ContentType `gorm:"size:30;not null;default:individual;index" json:"content_type"`
	Name            string      `gorm:"size:200;not null" json:"name"`
	AngelListLink   string      `gorm:"size:200" json:"angellist_link"`
	CrunchbaseLink  string      `gorm:"size:200" json:"crunchbase_link"`
	LinkedInLink    string      `gorm:"size:200" json:"linkedin_link"`
	Company         string      `gorm:"size:100" json:"company"`
	Position        string      `gorm:"size:100" json:"position"`
	Email           string      `gorm:"size:254;not null" json:"email"`
	PrimaryNumber   string      `gorm:"size:32;not null" json:"primary_number"`
	SecondaryNumber string      `gorm:"size:32" json:"secondary_number"`
	IsArchived      bool        `gorm:"not null;default:false" json:"is_archived"`
	ProfilePic      string      `gorm:"size:500" json:"profile_pic"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	ResidentialAddresses []ResidentialAddress `gorm:"foreignKey:IndividualID" json:"residential_addresses,omitempty"`
	PastExperiences      []PastExperience     `gorm:"foreignKey:IndividualID" json:"past_experiences,omitempty"`
}

// IndividualInput is the bound individual form.
type IndividualInput struct {
	Name            string `json:"name" form:"name"`
	AngelListLink   string `json:"angellist_link" form:"AngelListLink"`
	CrunchbaseLink  string `json:"crunchbase_link" form:"CrunchbaseLink"`
	LinkedInLink    string `json:"linkedin_link" form:"LinkedInLink"`
	Company         string `json:"company" form:"Company"`
	Position        string `json:"position" form:"Position"`
	Email           string `json:"email" form:"Email"`
	PrimaryNumber   string `json:"primary_number" form:"primary_number"`
	SecondaryNumber string `json:"secondary_number" form:"secondary_number"`
}

func (in IndividualInput) Validate() error {
	v := e.NewValidationError()
	if required(v, "name", in.Name) {
		maxLen(v, "name", in.Name, 200)
	}
	for field, link := range map[string]string{
		"angellist_link":  in.AngelListLink,
		"crunchbase_link": in.CrunchbaseLink,
		"linkedin_link":   in.LinkedInLink,
	} {
		maxLen(v, field, link, 200)
		validURL(v, field, link)
	}
	maxLen(v, "company", in.Company, 100)
	maxLen(v, "position", in.Position, 100)
	if required(v, "email", in.Email) {
		validEmail(v, "email", in.Email)
	}
	if required(v, "primary_number", in.PrimaryNumber) {
		if _, ok := NormalizePhone(in.PrimaryNumber); !ok {
			v.Add("primary_number", "Enter a valid phone number.")
		}
	}
	if in.SecondaryNumber != "" {
		if _, ok := NormalizePhone(in.SecondaryNumber); !ok {
			v.Add("secondary_number", "Enter a valid phone number.")
		}
	}
	return v.OrNil()
}

// Apply copies validated input onto ind. The content type is never touched
// here; it only changes through founder and investor links.
func (in IndividualInput) Apply(ind *Individual) {
	ind.Name = strings.TrimSpace(in.Name)
	ind.AngelListLink = in.AngelListLink
	ind.CrunchbaseLink = in.CrunchbaseLink
	ind.LinkedInLink = in.LinkedInLink
	ind.Company = in.Company
	ind.Position = in.Position
	ind.Email = in.Email
	ind.PrimaryNumber, _ = NormalizePhone(in.PrimaryNumber)
	ind.SecondaryNumber = ""
	if in.SecondaryNumber != "" {
		ind.SecondaryNumber, _ = NormalizePhone(in.SecondaryNumber)
	}
}

// NewIndividual validates in and builds an unsaved base Individual.
func NewIndividual(in IndividualInput) (*Individual, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ind := &Individual{ContentType: ContentTypeIndividual}
	in.Apply(ind)
	return ind, nil
}

func (ind *Individual) Input() IndividualInput {
	return IndividualInput{
		Name:            ind.Name,
		AngelListLink:   ind.AngelListLink,
		CrunchbaseLink:  ind.CrunchbaseLink,
		LinkedInLink:    ind.LinkedInLink,
		Company:         ind.Company,
		Position:        ind.Position,
		Email:           ind.Email,
		PrimaryNumber:   ind.PrimaryNumber,
		SecondaryNumber: ind.SecondaryNumber,
	}
}

// ResidentialAddress belongs to an Individual.
type ResidentialAddress struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	IndividualID uint   `gorm:"not null;index" json:"individual_id"`
	AddressLine1 string `gorm:"size:50;not null" json:"address_line1"`
	AddressLine2 string `gorm:"size:50" json:"address_line2"`
	PostalCode   string `gorm:"size:10;not null" json:"postal_code"`
	City         string `gorm:"size:50;not null" json:"city"`
	State        string `gorm:"size:50" json:"state"`
	Country      string `gorm:"size:2;not null" json:"country"`
}

type AddressInput struct {
	AddressLine1 string `json:"address_line1" form:"address_line1"`
	AddressLine2 string `json:"address_line2" form:"address_line2"`
	PostalCode   string `json:"postal_code" form:"postal_code"`
	City         string `json:"city" form:"city"`
	State        string `json:"state" form:"state"`
	Country      string `json:"country" form:"country"`
}

// Empty reports whether the address form was left blank.
func (in AddressInput) Empty() bool {
	return in == AddressInput{}
}

func (in AddressInput) Validate() error {
	v := e.NewValidationError()
	if required(v, "address_line1", in.AddressLine1) {
		maxLen(v, "address_line1", in.AddressLine1, 50)
	}
	maxLen(v, "address_line2", in.AddressLine2, 50)
	if required(v, "postal_code", in.PostalCode) {
		maxLen(v, "postal_code", in.PostalCode, 10)
	}
	if required(v, "city", in.City) {
		maxLen(v, "city", in.City, 50)
	}
	maxLen(v, "state", in.State, 50)
	if required(v, "country", in.Country) {
		if _, ok := NormalizeCountry(in.Country); !ok {
			v.Add("country", "Select a valid country.")
		}
	}
	return v.OrNil()
}

func (in AddressInput) Build() (*ResidentialAddress, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	country, _ := NormalizeCountry(in.Country)
	return &ResidentialAddress{
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		PostalCode:   in.PostalCode,
		City:         in.City,
		State:        in.State,
		Country:      country,
	}, nil
}

// DefaultDuration marks an experience that has not ended.
const DefaultDuration = "present"

// PastExperience is one entry of an Individual's work history.
type PastExperience struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	IndividualID uint   `gorm:"not null;index" json:"individual_id"`
	CompanyName  string `gorm:"size:100;not null" json:"company_name"`
	WorkTitle    string `gorm:"size:100;not null" json:"work_title"`
	StartYear    int    `gorm:"not null" json:"start_year"`
	EndYear      int    `json:"end_year"`
	Duration     string `gorm:"size:50;not null;default:present" json:"duration"`
	Description  string `gorm:"size:500" json:"description"`
}

type ExperienceInput struct {
	CompanyName string `json:"company_name" form:"company_name"`
	WorkTitle   string `json:"work_title" form:"work_title"`
	StartYear   int    `json:"start_year" form:"start_year"`
	EndYear     int    `json:"end_year" form:"end_year"`
	Duration    string `json:"duration" form:"duration"`
	Description string `json:"description" form:"description"`
}

func (in ExperienceInput) Empty() bool {
	return in == ExperienceInput{}
}

func (in ExperienceInput) Validate() error {
	v := e.NewValidationError()
	if required(v, "company_name", in.CompanyName) {
		maxLen(v, "company_name", in.CompanyName, 100)
	}
	if required(v, "work_title", in.WorkTitle) {
		maxLen(v, "work_title", in.WorkTitle, 100)
	}
	if in.StartYear <= 0 {
		v.Add("start_year", "This field is required.")
	}
	if in.EndYear != 0 && in.EndYear < in.StartYear {
		v.Add("end_year", "End year must not be before start year.")
	}
	maxLen(v, "duration", in.Duration, 50)
	maxLen(v, "description", in.Description, 500)
	return v.OrNil()
}

// Build validates in. The duration is the span in years, or "present" when
// the experience has no end year.
func (in ExperienceInput) Build() (*PastExperience, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	d := in.Duration
	if d == "" {
		d = DefaultDuration
		if in.EndYear != 0 {
			d = strconv.Itoa(in.EndYear - in.StartYear)
		}
	}
	return &PastExperience{
		CompanyName: in.CompanyName,
		WorkTitle:   in.WorkTitle,
		StartYear:   in.StartYear,
		EndYear:     in.EndYear,
		Duration:    d,
		Description: in.Description,
	}, nil
}

func (x *PastExperience) Input() ExperienceInput {
	return ExperienceInput{
		CompanyName: x.CompanyName,
		WorkTitle:   x.WorkTitle,
		StartYear:   x.StartYear,
		EndYear:     x.EndYear,
		Duration:    x.Duration,
		Description: x.Description,
	}
}

func (a *ResidentialAddress) Input() AddressInput {
	return AddressInput{
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		PostalCode:   a.PostalCode,
		City:         a.City,
		State:        a.State,
		Country:      a.Country,
	}
}
