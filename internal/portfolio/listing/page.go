package listing

import "strconv"

// Page sizes used across the site.
const (
	DashboardPageSize      = 6
	ArchivePageSize        = 5
	ContractRightsPageSize = 10
	InvestmentsPageSize    = 10
	DefaultAdminPageSize   = 10
)

// Page is one slice of an ordered list.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Number      int  `json:"number"`
	Size        int  `json:"size"`
	Total       int  `json:"total"`
	NumPages    int  `json:"num_pages"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// ParsePage returns 1 for missing, non-numeric or non-positive input.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate cuts page number out of items. A page past the end is empty,
// never an error. An empty list still has one page.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size < 1 {
		size = 1
	}
	if number < 1 {
		number = 1
	}
	total := len(items)
	numPages := (total + size - 1) / size
	if numPages == 0 {
		numPages = 1
	}
	p := Page[T]{
		Items:       []T{},
		Number:      number,
		Size:        size,
		Total:       total,
		NumPages:    numPages,
		HasPrevious: number > 1,
		HasNext:     number < numPages,
	}
	start := (number - 1) * size
	if start >= total {
		return p
	}
	end := min(start+size, total)
	p.Items = items[start:end]
	return p
}
