package models

import (
	"strings"
	"time"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/shopspring/decimal"
)

// PortfolioCompany marks a Company as a startup the fund has invested in.
type PortfolioCompany struct {
	ID              uint     `gorm:"primaryKey" json:"id"`
	ParentCompanyID uint     `gorm:"not null;uniqueIndex" json:"parent_company_id"`
	ParentCompany   *Company `gorm:"constraint:OnDelete:CASCADE" json:"parent_company,omitempty"`
	WayraNumber     string   `gorm:"size:255;not null;uniqueIndex" json:"wayra_number"`
}

type PortfolioCompanyInput struct {
	ParentCompanyID uint   `json:"parent_company" form:"parent_company"`
	WayraNumber     string `json:"wayra_number" form:"wayra_number"`
}

func (in PortfolioCompanyInput) Validate() error {
	v := e.NewValidationError()
	if in.ParentCompanyID == 0 {
		v.Add("parent_company", "This field is required.")
	}
	if required(v, "wayra_number", in.WayraNumber) {
		maxLen(v, "wayra_number", in.WayraNumber, 255)
	}
	return v.OrNil()
}

func NewPortfolioCompany(in PortfolioCompanyInput) (*PortfolioCompany, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &PortfolioCompany{ParentCompanyID: in.ParentCompanyID, WayraNumber: strings.TrimSpace(in.WayraNumber)}, nil
}

// InvestorClassification is the kind of investing entity.
type InvestorClassification string

const (
	VentureCapital          InvestorClassification = "VENTURE_CAPITAL"
	PrivateEquityFirm       InvestorClassification = "PRIVATE_EQUITY_FIRM"
	Accelerator             InvestorClassification = "ACCELERATOR"
	InvestmentPartner       InvestorClassification = "INVESTMENT_PARTNER"
	CorporateVentureCapital InvestorClassification = "CORPORATE_VENTURE_CAPITAL"
	MicroVC                 InvestorClassification = "MICRO_VC"
	AngelGroup              InvestorClassification = "ANGEL_GROUP"
	Incubator               InvestorClassification = "INCUBATOR"
	InvestmentBank          InvestorClassification = "INVESTMENT_BANK"
	FamilyInvestmentOffice  InvestorClassification = "FAMILY_INVESTMENT_OFFICE"
	VentureDebt             InvestorClassification = "VENTURE_DEBT"
	CoWorkingSpace          InvestorClassification = "CO_WORKING_SPACE"
	FundOfFunds             InvestorClassification = "FUND_OF_FUNDS"
	HedgeFund               InvestorClassification = "HEDGE_FUND"
	GovernmentOffice        InvestorClassification = "GOVERNMENT_OFFICE"
	UniversityProgram       InvestorClassification = "UNIVERSITY_PROGRAM"
	EntrepreneurshipProgram InvestorClassification = "ENTREPRENEURSHIP_PROGRAM"
	SecondaryPurchaser      InvestorClassification = "SECONDARY_PURCHASER"
	StartupCompetition      InvestorClassification = "STARTUP_COMPETITION"
	Syndicate               InvestorClassification = "SYNDICATE"
	PensionFunds            InvestorClassification = "PENSION_FUNDS"
)

// InvestorClassifications lists every classification in display order.
var InvestorClassifications = []InvestorClassification{
	VentureCapital, PrivateEquityFirm, Accelerator, InvestmentPartner,
	CorporateVentureCapital, MicroVC, AngelGroup, Incubator, InvestmentBank,
	FamilyInvestmentOffice, VentureDebt, CoWorkingSpace, FundOfFunds, HedgeFund,
	GovernmentOffice, UniversityProgram, EntrepreneurshipProgram,
	SecondaryPurchaser, StartupCompetition, Syndicate, PensionFunds,
}

func (c InvestorClassification) Valid() bool {
	for _, known := range InvestorClassifications {
		if c == known {
			return true
		}
	}
	return false
}

// Label is the human readable name, e.g. "Corporate Venture Capital".
func (c InvestorClassification) Label() string {
	switch c {
	case MicroVC:
		return "Micro VC"
	case CoWorkingSpace:
		return "Co-Working Space"
	}
	words := strings.Split(strings.ToLower(string(c)), "_")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Investor is either a company or an individual, never both.
type Investor struct {
	ID             uint                   `gorm:"primaryKey" json:"id"`
	CompanyID      *uint                  `gorm:"uniqueIndex;check:chk_investors_single_owner,(company_id IS NULL) <> (individual_id IS NULL)" json:"company_id,omitempty"`
	Company        *Company               `gorm:"constraint:OnDelete:CASCADE" json:"company,omitempty"`
	IndividualID   *uint                  `gorm:"uniqueIndex" json:"individual_id,omitempty"`
	Individual     *Individual            `gorm:"constraint:OnDelete:CASCADE" json:"individual,omitempty"`
	Classification InvestorClassification `gorm:"size:50;not null;default:VENTURE_CAPITAL" json:"classification"`
}

func parseClassification(v *e.ValidationError, raw string) InvestorClassification {
	if raw == "" {
		return VentureCapital
	}
	c := InvestorClassification(raw)
	if !c.Valid() {
		v.Add("classification", "Select a valid choice.")
	}
	return c
}

// NewCompanyInvestor builds an Investor owned by a company.
func NewCompanyInvestor(companyID uint, classification string) (*Investor, error) {
	v := e.NewValidationError()
	if companyID == 0 {
		v.Add("company", "This field is required.")
	}
	c := parseClassification(v, classification)
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return &Investor{CompanyID: &companyID, Classification: c}, nil
}

// NewIndividualInvestor builds an Investor owned by an individual.
func NewIndividualInvestor(individualID uint, classification string) (*Investor, error) {
	v := e.NewValidationError()
	if individualID == 0 {
		v.Add("individual", "This field is required.")
	}
	c := parseClassification(v, classification)
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return &Investor{IndividualID: &individualID, Classification: c}, nil
}

// Validate enforces the single-owner rule for records built by hand.
func (i *Investor) Validate() error {
	if (i.CompanyID == nil) == (i.IndividualID == nil) {
		return e.FieldError(e.NonFieldKey, "An investor is either a company or an individual.")
	}
	if !i.Classification.Valid() {
		return e.FieldError("classification", "Select a valid choice.")
	}
	return nil
}

// SetClassification is the only edit allowed on an existing investor.
func (i *Investor) SetClassification(raw string) error {
	v := e.NewValidationError()
	c := parseClassification(v, raw)
	if err := v.OrNil(); err != nil {
		return err
	}
	i.Classification = c
	return nil
}

// DisplayName is the owner's name when the owner has been preloaded.
func (i *Investor) DisplayName() string {
	switch {
	case i.Company != nil:
		return i.Company.Name
	case i.Individual != nil:
		return i.Individual.Name
	}
	return ""
}

// FundingRound is the stage of an investment.
type FundingRound string

const (
	SeedRound       FundingRound = "Seed round"
	SeriesA         FundingRound = "Series A"
	SeriesB         FundingRound = "Series B"
	SeriesC         FundingRound = "Series C"
	CorporateRound  FundingRound = "Coporate round"
	ConvertibleNote FundingRound = "Convertible note"
	VentureRound    FundingRound = "Venture round"
	DebtFinancing   FundingRound = "Debt financing"
	PostIPOEquity   FundingRound = "Post-IPO Equity"
)

var FundingRounds = []FundingRound{
	SeedRound, SeriesA, SeriesB, SeriesC, CorporateRound,
	ConvertibleNote, VentureRound, DebtFinancing, PostIPOEquity,
}

func (r FundingRound) Valid() bool {
	for _, known := range FundingRounds {
		if r == known {
			return true
		}
	}
	return false
}

// maxAmount bounds amounts to 13 integer digits so they fit decimal(15,2).
var maxAmount = decimal.New(1, 13)

// Investment is money put into a portfolio company by an investor.
type Investment struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	InvestorID   uint              `gorm:"not null;index" json:"investor_id"`
	Investor     *Investor         `gorm:"constraint:OnDelete:CASCADE" json:"investor,omitempty"`
	StartupID    uint              `gorm:"not null;index" json:"startup_id"`
	Startup      *PortfolioCompany `gorm:"constraint:OnDelete:CASCADE" json:"startup,omitempty"`
	RoundType    FundingRound      `gorm:"size:50;not null" json:"round_type"`
	Amount       decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	DateInvested time.Time         `gorm:"type:date;not null" json:"date_invested"`
	DateExit     *time.Time        `gorm:"type:date" json:"date_exit,omitempty"`
}

type InvestmentInput struct {
	InvestorID   uint   `json:"investor" form:"investor"`
	StartupID    uint   `json:"startup" form:"startup"`
	RoundType    string `json:"typeOfFoundingRounds" form:"typeOfFoundingRounds"`
	Amount       string `json:"investmentAmount" form:"investmentAmount"`
	DateInvested string `json:"dateInvested" form:"dateInvested"`
	DateExit     string `json:"dateExit" form:"dateExit"`
}

// Build validates in against today and returns an unsaved Investment.
func (in InvestmentInput) Build(today time.Time) (*Investment, error) {
	v := e.NewValidationError()
	if in.InvestorID == 0 {
		v.Add("investor", "This field is required.")
	}
	if in.StartupID == 0 {
		v.Add("startup", "This field is required.")
	}
	round := FundingRound(in.RoundType)
	if required(v, "typeOfFoundingRounds", in.RoundType) && !round.Valid() {
		v.Add("typeOfFoundingRounds", "Select a valid choice.")
	}

	var amount decimal.Decimal
	if required(v, "investmentAmount", in.Amount) {
		d, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
		switch {
		case err != nil:
			v.Add("investmentAmount", "Enter a number.")
		case !d.Equal(d.Truncate(2)):
			v.Add("investmentAmount", "Ensure that there are no more than 2 decimal places.")
		case d.Abs().GreaterThanOrEqual(maxAmount):
			v.Add("investmentAmount", "Ensure that there are no more than 13 digits before the decimal point.")
		default:
			amount = d
		}
	}

	invested, err := ParseDate(in.DateInvested)
	switch {
	case err != nil:
		v.Add("dateInvested", "Enter a valid date.")
	case invested.IsZero():
		v.Add("dateInvested", "This field is required.")
	case invested.After(DateOnly(today)):
		v.Add("dateInvested", "Ensure this value is less than or equal to "+DateOnly(today).Format(DateLayout)+".")
	}

	exit, err := ParseDate(in.DateExit)
	if err != nil {
		v.Add("dateExit", "Enter a valid date.")
	}
	if !exit.IsZero() && !invested.IsZero() && invested.After(exit) {
		v.Add(e.NonFieldKey, "Date invest cannot be after date exit")
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	inv := &Investment{
		InvestorID:   in.InvestorID,
		StartupID:    in.StartupID,
		RoundType:    round,
		Amount:       amount,
		DateInvested: invested,
	}
	if !exit.IsZero() {
		inv.DateExit = &exit
	}
	return inv, nil
}

func (i *Investment) Input() InvestmentInput {
	in := InvestmentInput{
		InvestorID:   i.InvestorID,
		StartupID:    i.StartupID,
		RoundType:    string(i.RoundType),
		Amount:       i.Amount.StringFixed(2),
		DateInvested: i.DateInvested.Format(DateLayout),
	}
	if i.DateExit != nil {
		in.DateExit = i.DateExit.Format(DateLayout)
	}
	return in
}

// ContractRight is a right granted to the investor by an investment.
type ContractRight struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	InvestmentID uint        `gorm:"not null;index" json:"investment_id"`
	Investment   *Investment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Right        string      `gorm:"column:contract_right;size:255;not null" json:"right"`
	Details      string      `gorm:"size:255;not null" json:"details"`
}

type ContractRightInput struct {
	Right   string `json:"right" form:"right"`
	Details string `json:"details" form:"details"`
}

func NewContractRight(investmentID uint, in ContractRightInput) (*ContractRight, error) {
	v := e.NewValidationError()
	if required(v, "right", in.Right) {
		maxLen(v, "right", in.Right, 255)
	}
	if required(v, "details", in.Details) {
		maxLen(v, "details", in.Details, 255)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return &ContractRight{InvestmentID: investmentID, Right: in.Right, Details: in.Details}, nil
}
