package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidCursor indicates the cursor could not be decoded or belongs to
// another resource.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks the last row of a page.
type Cursor struct {
	Type string
	ID   int64
}

// Encode returns a URL-safe opaque form.
func (c Cursor) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(c.Type + ":" + strconv.FormatInt(c.ID, 10)))
}

// Decode parses s and checks it was issued for resource. An empty s is the
// first page and decodes to ID 0.
func Decode(s, resource string) (Cursor, error) {
	if s == "" {
		return Cursor{Type: resource}, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	typ, raw, ok := strings.Cut(string(b), ":")
	if !ok || typ != resource {
		return Cursor{}, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{Type: typ, ID: id}, nil
}
