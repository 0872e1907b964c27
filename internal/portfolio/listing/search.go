package listing

// Result caps for the inline (as-you-type) search endpoints.
const (
	InlineSearchCap  = 5
	ArchiveSearchCap = 4
)

// Query is a search term taken verbatim from the request. The empty query
// matches nothing.
type Query string

// Empty reports whether no search text was given.
func (q Query) Empty() bool { return q == "" }

// Cap returns at most n leading items.
func Cap[T any](items []T, n int) []T {
	if n < 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
