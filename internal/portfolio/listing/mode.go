// Package listing selects, filters and pages the record lists shown on the
// dashboards, the archive page and the search results.
package listing

import "strconv"

// CompanyMode selects which companies a dashboard shows.
type CompanyMode int

const (
	AllCompanies CompanyMode = iota + 1
	PortfolioCompanies
	InvestorCompanies
)

// IndividualMode selects which individuals a dashboard shows.
type IndividualMode int

const (
	AllIndividuals IndividualMode = iota + 1
	FounderIndividuals
	InvestorIndividuals
)

// Layout is the dashboard presentation: 1 cards, 2 table.
type Layout int

const (
	CardLayout Layout = iota + 1
	TableLayout
)

func parseOneToN(raw string, n int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > n {
		return 1
	}
	return v
}

// ParseCompanyMode returns AllCompanies for missing or unknown input.
func ParseCompanyMode(raw string) CompanyMode {
	return CompanyMode(parseOneToN(raw, 3))
}

// ParseIndividualMode returns AllIndividuals for missing or unknown input.
func ParseIndividualMode(raw string) IndividualMode {
	return IndividualMode(parseOneToN(raw, 3))
}

// ParseLayout falls back to the card layout for anything unrecognised.
func ParseLayout(raw string) Layout {
	return Layout(parseOneToN(raw, 2))
}

// Valid reports whether the mode is one of the known filters.
func (m CompanyMode) Valid() bool    { return m >= AllCompanies && m <= InvestorCompanies }
func (m IndividualMode) Valid() bool { return m >= AllIndividuals && m <= InvestorIndividuals }
func (l Layout) Valid() bool         { return l == CardLayout || l == TableLayout }
