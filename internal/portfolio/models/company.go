// Package models defines the persisted records of the portfolio service,
// their gorm mappings, and the constructors that validate form input before
// anything reaches the store.
package models

import (
	"regexp"
	"strings"
	"time"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/pkg/utils"
)

// DefaultRegistrationNumber is used when a company is created without one.
const DefaultRegistrationNumber = "00000000"

var companyNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ,]{3,60}$`)

const companyNameMessage = "Name must be 3-60 characters and contain only letters, digits, spaces or commas."

// Company is an organisation tracked by the fund: a portfolio company, an
// investor, a programme partner, or just a contact.
type Company struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"size:60;not null;uniqueIndex" json:"name"`
	RegistrationNumber string    `gorm:"size:8;not null;default:00000000" json:"company_registration_number"`
	TradingNames       *string   `gorm:"size:60;uniqueIndex" json:"trading_names,omitempty"`
	PreviousNames      *string   `gorm:"size:60;uniqueIndex" json:"previous_names,omitempty"`
	RegisteredAddress  string    `gorm:"size:50" json:"registered_address"`
	Jurisdiction       string    `gorm:"size:50" json:"jurisdiction"`
	IncorporationDate  time.Time `gorm:"type:date;not null" json:"incorporation_date"`
	IsArchived         bool      `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CompanyInput is the bound company form.
type CompanyInput struct {
	Name               string `json:"name" form:"name"`
	RegistrationNumber string `json:"company_registration_number" form:"company_registration_number"`
	TradingNames       string `json:"trading_names" form:"trading_names"`
	PreviousNames      string `json:"previous_names" form:"previous_names"`
	RegisteredAddress  string `json:"registered_address" form:"registered_address"`
	Jurisdiction       string `json:"jurisdiction" form:"jurisdiction"`
	IncorporationDate  string `json:"incorporation_date" form:"incorporation_date"`
}

// Validate checks field formats on trimmed names. Uniqueness is left to the
// store.
func (in CompanyInput) Validate() error {
	v := e.NewValidationError()
	if required(v, "name", in.Name) {
		matches(v, "name", strings.TrimSpace(in.Name), companyNamePattern, companyNameMessage)
	}
	if in.RegistrationNumber != "" && len(in.RegistrationNumber) != 8 {
		v.Add("company_registration_number", "Registration number must be exactly 8 characters.")
	}
	matches(v, "trading_names", strings.TrimSpace(in.TradingNames), companyNamePattern, companyNameMessage)
	matches(v, "previous_names", strings.TrimSpace(in.PreviousNames), companyNamePattern, companyNameMessage)
	maxLen(v, "registered_address", in.RegisteredAddress, 50)
	maxLen(v, "jurisdiction", in.Jurisdiction, 50)
	if _, err := ParseDate(in.IncorporationDate); err != nil {
		v.Add("incorporation_date", "Enter a valid date.")
	}
	return v.OrNil()
}

// Apply copies validated input onto c. An empty incorporation date keeps the
// existing one, or becomes today for a new record.
func (in CompanyInput) Apply(c *Company, today time.Time) {
	c.Name = strings.TrimSpace(in.Name)
	c.RegistrationNumber = in.RegistrationNumber
	if c.RegistrationNumber == "" {
		c.RegistrationNumber = DefaultRegistrationNumber
	}
	c.TradingNames = utils.NilIfEmpty(strings.TrimSpace(in.TradingNames))
	c.PreviousNames = utils.NilIfEmpty(strings.TrimSpace(in.PreviousNames))
	c.RegisteredAddress = in.RegisteredAddress
	c.Jurisdiction = in.Jurisdiction
	if d, _ := ParseDate(in.IncorporationDate); !d.IsZero() {
		c.IncorporationDate = d
	} else if c.IncorporationDate.IsZero() {
		c.IncorporationDate = DateOnly(today)
	}
}

// NewCompany validates in and builds an unsaved Company.
func NewCompany(in CompanyInput, today time.Time) (*Company, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &Company{}
	in.Apply(c, today)
	return c, nil
}

// Input returns the form representation of c, used to prefill update forms.
func (c *Company) Input() CompanyInput {
	return CompanyInput{
		Name:               c.Name,
		RegistrationNumber: c.RegistrationNumber,
		TradingNames:       utils.Deref(c.TradingNames),
		PreviousNames:      utils.Deref(c.PreviousNames),
		RegisteredAddress:  c.RegisteredAddress,
		Jurisdiction:       c.Jurisdiction,
		IncorporationDate:  c.IncorporationDate.Format(DateLayout),
	}
}
