package models

// Profile is the concrete view of an Individual selected by its content type.
type Profile interface {
	Base() *Individual
	Kind() ContentType
}

type IndividualProfile struct {
	Individual *Individual `json:"individual"`
}

func (p *IndividualProfile) Base() *Individual { return p.Individual }
func (p *IndividualProfile) Kind() ContentType { return ContentTypeIndividual }

// FounderProfile is an individual together with the company they founded.
type FounderProfile struct {
	Individual *Individual `json:"individual"`
	Founder    *Founder    `json:"founder"`
}

func (p *FounderProfile) Base() *Individual { return p.Individual }
func (p *FounderProfile) Kind() ContentType { return ContentTypeFounder }

// InvestorProfile is an individual together with their investor record.
type InvestorProfile struct {
	Individual *Individual `json:"individual"`
	Investor   *Investor   `json:"investor"`
}

func (p *InvestorProfile) Base() *Individual { return p.Individual }
func (p *InvestorProfile) Kind() ContentType { return ContentTypeInvestor }

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Company{}, &Individual{}, &ResidentialAddress{}, &PastExperience{},
		&PortfolioCompany{}, &Investor{}, &Investment{}, &ContractRight{},
		&Founder{}, &Programme{}, &Document{},
		&Permission{}, &Group{}, &User{},
	}
}
