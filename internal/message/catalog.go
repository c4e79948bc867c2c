package message

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed messages/*.yaml
var messagesFS embed.FS

// Language identifies a supported response language.
type Language string

const (
	ID Language = "ID"
	EN Language = "EN"

	// DefaultLanguage is used when a request does not ask for a language.
	DefaultLanguage = ID
)

// ParseLanguage normalizes the lang query value. Unknown values fall back to DefaultLanguage.
func ParseLanguage(s string) Language {
	switch Language(strings.ToUpper(strings.TrimSpace(s))) {
	case EN:
		return EN
	case ID:
		return ID
	default:
		return DefaultLanguage
	}
}

// Tag is the symbolic key of a catalog entry.
type Tag string

const (
	Success       Tag = "SUCCESS"
	DataAvailable Tag = "DATA_AVAILABLE"
	DataCreated   Tag = "DATA_CREATED"
	LoginSuccess  Tag = "LOGIN_SUCCESS"

	UserNotFound        Tag = "USER_NOT_FOUND"
	UserAlreadyExists   Tag = "USER_ALREADY_EXISTS"
	InvalidCredentials  Tag = "INVALID_CREDENTIALS"
	InvalidToken        Tag = "INVALID_TOKEN"
	TokenExpired        Tag = "TOKEN_EXPIRED"
	TokenNotFound       Tag = "TOKEN_NOT_FOUND"
	TokenRequired       Tag = "TOKEN_REQUIRED"
	DataNotFound        Tag = "DATA_NOT_FOUND"
	DataAlreadyExists   Tag = "DATA_ALREADY_EXISTS"
	InvalidColumn       Tag = "INVALID_COLUMN"
	InvalidTable        Tag = "INVALID_TABLE"
	InsertFailed        Tag = "INSERT_FAILED"
	InvalidQuery        Tag = "INVALID_QUERY"
	ForbiddenAccess     Tag = "FORBIDDEN_ACCESS"
	InternalServerError Tag = "INTERNAL_SERVER_ERROR"
	DatabaseError       Tag = "DATABASE_ERROR"
	PropertyRequired    Tag = "PROPERTY_REQUIRED"
	RouteNotFound       Tag = "ROUTE_NOT_FOUND"
	InvalidMethod       Tag = "INVALID_METHOD"
)

// EntryKind tells which namespace a tag belongs to.
type EntryKind uint8

const (
	KindSuccess EntryKind = iota + 1
	KindError
)

func (k EntryKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// SuccessStatusCode is the business status code of every success tag.
const SuccessStatusCode = "0000"

// Entry is a resolved catalog value. It only holds strings, so every copy handed
// out by Lookup is independent of the catalog.
type Entry struct {
	Tag         Tag
	Kind        EntryKind
	Message     string
	StatusCode  string
	HTTPMessage string
}

// Format replaces the {key} placeholder in the message.
func (e Entry) Format(key string) string {
	if key == "" {
		return e.Message
	}
	return strings.ReplaceAll(e.Message, "{key}", key)
}

var (
	// ErrUnknownTag is returned when a tag is not part of the catalog.
	ErrUnknownTag = errors.New("unknown message tag")
	// ErrUnknownLanguage is returned for languages without a catalog.
	ErrUnknownLanguage = errors.New("unknown message language")
)

// Source is the decoded form of one language file.
type Source struct {
	Language Language       `yaml:"language"`
	Success  map[Tag]string `yaml:"success"`
	Error    map[Tag]string `yaml:"error"`
}

// Catalog holds the immutable per-language message tables.
type Catalog struct {
	entries map[Language]map[Tag]Entry
	kinds   map[Tag]EntryKind
}

// New validates the sources and precomputes every entry.
func New(sources ...Source) (*Catalog, error) {
	if len(sources) == 0 {
		return nil, errors.New("message catalog: no languages")
	}
	c := &Catalog{
		entries: make(map[Language]map[Tag]Entry, len(sources)),
		kinds:   make(map[Tag]EntryKind),
	}
	for _, src := range sources {
		lang := Language(strings.ToUpper(string(src.Language)))
		if lang == "" {
			return nil, errors.New("message catalog: source without language")
		}
		if _, dup := c.entries[lang]; dup {
			return nil, fmt.Errorf("message catalog: duplicate language %s", lang)
		}
		table := make(map[Tag]Entry, len(src.Success)+len(src.Error))
		for tag, msg := range src.Success {
			if _, clash := src.Error[tag]; clash {
				return nil, fmt.Errorf("message catalog: tag %s is both success and error in %s", tag, lang)
			}
			if strings.TrimSpace(msg) == "" {
				return nil, fmt.Errorf("message catalog: empty message for %s in %s", tag, lang)
			}
			table[tag] = Entry{Tag: tag, Kind: KindSuccess, Message: msg, StatusCode: SuccessStatusCode}
		}
		for tag, msg := range src.Error {
			if strings.TrimSpace(msg) == "" {
				return nil, fmt.Errorf("message catalog: empty message for %s in %s", tag, lang)
			}
			code, httpMsg := ErrorStatus(tag)
			table[tag] = Entry{Tag: tag, Kind: KindError, Message: msg, StatusCode: code, HTTPMessage: httpMsg}
		}
		for tag, e := range table {
			if prev, seen := c.kinds[tag]; seen && prev != e.Kind {
				return nil, fmt.Errorf("message catalog: tag %s changes namespace across languages", tag)
			}
			c.kinds[tag] = e.Kind
		}
		c.entries[lang] = table
	}
	for lang, table := range c.entries {
		for tag := range c.kinds {
			if _, ok := table[tag]; !ok {
				return nil, fmt.Errorf("message catalog: %s is missing tag %s", lang, tag)
			}
		}
	}
	return c, nil
}

// Load reads every YAML file matching pattern from fsys.
func Load(fsys fs.FS, pattern string) (*Catalog, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		var src Source
		if err := yaml.Unmarshal(raw, &src); err != nil {
			return nil, fmt.Errorf("message catalog: %s: %w", name, err)
		}
		sources = append(sources, src)
	}
	return New(sources...)
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded language files.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(messagesFS, "messages/*.yaml")
	})
	return defaultCatalog, defaultErr
}

// Lookup resolves a tag for a language.
func (c *Catalog) Lookup(lang Language, tag Tag) (Entry, error) {
	table, ok := c.entries[lang]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}
	e, ok := table[tag]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	return e, nil
}

// KindOf reports the namespace of tag.
func (c *Catalog) KindOf(tag Tag) (EntryKind, bool) {
	k, ok := c.kinds[tag]
	return k, ok
}

// Has reports whether tag is defined.
func (c *Catalog) Has(tag Tag) bool {
	_, ok := c.kinds[tag]
	return ok
}

// IsSuccess reports whether tag is a success tag.
func (c *Catalog) IsSuccess(tag Tag) bool {
	return c.kinds[tag] == KindSuccess
}

// IsError reports whether tag is an error tag.
func (c *Catalog) IsError(tag Tag) bool {
	return c.kinds[tag] == KindError
}

// Require fails when any of tags is missing or has a different namespace than want.
func (c *Catalog) Require(want EntryKind, tags ...Tag) error {
	var errs []error
	for _, tag := range tags {
		got, ok := c.kinds[tag]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownTag, tag))
		case got != want:
			errs = append(errs, fmt.Errorf("message catalog: %s is a %s tag, want %s", tag, got, want))
		}
	}
	return errors.Join(errs...)
}

// Languages lists the configured languages in stable order.
func (c *Catalog) Languages() []Language {
	return slices.Sorted(maps.Keys(c.entries))
}

// Tags lists every tag in stable order.
func (c *Catalog) Tags() []Tag {
	return slices.Sorted(maps.Keys(c.kinds))
}

// ErrorStatus derives the business status code and displayed HTTP message of an
// error tag. The checks run in a fixed priority order.
func ErrorStatus(tag Tag) (code, httpMessage string) {
	s := string(tag)
	switch {
	case strings.Contains(s, "NOT_FOUND"):
		return "0404", "Not Found"
	case strings.Contains(s, "EXISTS"):
		return "0409", "Conflict"
	case strings.Contains(s, "INVALID"):
		return "0400", "Unprocessable Entity"
	case strings.Contains(s, "EXPIRED"):
		return "0400", "Bad Request"
	case strings.Contains(s, "REQUIRED"):
		return "0400", "Bad Request"
	default:
		return "0500", "Internal Server Error"
	}
}
