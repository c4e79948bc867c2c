package pagination

import (
	"fmt"
	"net/url"
	"strconv"
)

// Page is one slice of a keyset listing.
type Page[T any] struct {
	Items      []T
	NextCursor string
	LinkHeader string
}

// Keyset builds a page from rows fetched with limit+1. The extra row only
// signals that a next page exists and is dropped.
func Keyset[T any](rows []T, limit int, resource string, idOf func(T) int64, baseURL string, query url.Values) Page[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	page := Page[T]{Items: rows}
	if len(rows) <= limit {
		return page
	}
	page.Items = rows[:limit]
	page.NextCursor = Cursor{Type: resource, ID: idOf(page.Items[limit-1])}.Encode()

	q := make(url.Values, len(query)+2)
	for k, vals := range query {
		q[k] = append([]string(nil), vals...)
	}
	q.Set("cursor", page.NextCursor)
	q.Set("limit", strconv.Itoa(limit))
	page.LinkHeader = fmt.Sprintf("<%s?%s>; rel=\"next\"", baseURL, q.Encode())
	return page
}
