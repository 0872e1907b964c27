// Package events publishes entity lifecycle events to Kafka.
package events

import "time"

type EventType string

const (
	CompanyCreated    EventType = "company_created"
	CompanyUpdated    EventType = "company_updated"
	CompanyDeleted    EventType = "company_deleted"
	CompanyArchived   EventType = "company_archived"
	CompanyUnarchived EventType = "company_unarchived"

	IndividualCreated    EventType = "individual_created"
	IndividualUpdated    EventType = "individual_updated"
	IndividualDeleted    EventType = "individual_deleted"
	IndividualArchived   EventType = "individual_archived"
	IndividualUnarchived EventType = "individual_unarchived"

	PortfolioCompanyCreated EventType = "portfolio_company_created"
	PortfolioCompanyUpdated EventType = "portfolio_company_updated"
	PortfolioCompanyDeleted EventType = "portfolio_company_deleted"

	InvestorCreated EventType = "investor_created"
	InvestorUpdated EventType = "investor_updated"

	InvestmentCreated EventType = "investment_created"
	InvestmentUpdated EventType = "investment_updated"
	InvestmentDeleted EventType = "investment_deleted"

	ContractRightCreated EventType = "contract_right_created"
	ContractRightDeleted EventType = "contract_right_deleted"

	FounderCreated EventType = "founder_created"
	FounderUpdated EventType = "founder_updated"
	FounderDeleted EventType = "founder_deleted"

	DocumentCreated EventType = "document_created"
	DocumentUpdated EventType = "document_updated"
	DocumentDeleted EventType = "document_deleted"

	ProgrammeCreated EventType = "programme_created"
	ProgrammeUpdated EventType = "programme_updated"
	ProgrammeDeleted EventType = "programme_deleted"

	UserCreated EventType = "user_created"
	UserUpdated EventType = "user_updated"
	UserDeleted EventType = "user_deleted"

	GroupCreated EventType = "group_created"
	GroupUpdated EventType = "group_updated"
	GroupDeleted EventType = "group_deleted"
)

// Event is one lifecycle change. Payload is the record after the change,
// or nil for deletions.
type Event struct {
	Type       EventType `json:"type"`
	EntityID   uint      `json:"entity_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is what the services depend on.
type Publisher interface {
	Produce(eventType EventType, id uint, payload any)
}

// NopProducer discards every event. Used when no brokers are configured.
type NopProducer struct{}

func (NopProducer) Produce(EventType, uint, any) {}
