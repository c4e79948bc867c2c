// Package pagination implements forward keyset pagination over id-ordered
// tables with opaque cursors and RFC 8288 Link headers.
package pagination

const (
	// DefaultLimit is the page size when the request gives none.
	DefaultLimit = 20
	// MaxLimit caps the page size.
	MaxLimit = 100
)

// Params embeds into Huma input structs for pagination.
type Params struct {
	Cursor string `query:"cursor" doc:"Opaque cursor from the Link header of the previous page"`
	Limit  int    `query:"limit"  doc:"Maximum rows per page" default:"20" minimum:"1" maximum:"100"`
}

// PageSize returns the limit clamped to [1, MaxLimit], DefaultLimit when unset.
func (p Params) PageSize() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}
