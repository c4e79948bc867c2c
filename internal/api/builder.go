package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/message"
	"github.com/janisto/tms-platform/internal/platform/timeutil"
)

// Request carries the per-request inputs of an envelope.
type Request struct {
	RequestID string
	Language  message.Language
}

// Builder renders envelopes from catalog tags. It holds no mutable state and is
// safe for concurrent use.
type Builder struct {
	catalog  *message.Catalog
	timezone string
	devMode  bool
	clock    timeutil.Clock
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithTimezone sets the timezone of the datetime field.
func WithTimezone(tz string) BuilderOption {
	return func(b *Builder) { b.timezone = tz }
}

// WithDevMode includes error details in failure envelopes.
func WithDevMode(on bool) BuilderOption {
	return func(b *Builder) { b.devMode = on }
}

// WithClock replaces the wall clock.
func WithClock(clock timeutil.Clock) BuilderOption {
	return func(b *Builder) { b.clock = clock }
}

// NewBuilder validates the timezone and that the catalog knows every tag the
// error taxonomy can produce.
func NewBuilder(catalog *message.Catalog, opts ...BuilderOption) (*Builder, error) {
	if catalog == nil {
		return nil, errors.New("envelope builder: nil catalog")
	}
	b := &Builder{catalog: catalog, timezone: timeutil.DefaultTimezone, clock: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if b.timezone == "" {
		b.timezone = timeutil.DefaultTimezone
	}
	if _, err := timeutil.Location(b.timezone); err != nil {
		return nil, fmt.Errorf("envelope builder: %w", err)
	}
	if err := catalog.Require(message.KindError, apperr.Tags()...); err != nil {
		return nil, fmt.Errorf("envelope builder: %w", err)
	}
	return b, nil
}

// Catalog returns the catalog used by the builder.
func (b *Builder) Catalog() *message.Catalog { return b.catalog }

// DevMode reports whether error details are rendered.
func (b *Builder) DevMode() bool { return b.devMode }

func (b *Builder) now() (string, error) {
	return timeutil.Format(b.clock(), b.timezone)
}

func language(l message.Language) message.Language {
	if l == "" {
		return message.DefaultLanguage
	}
	return l
}

// Success renders a success envelope. A non-empty override replaces the catalog message.
func Success[T any](b *Builder, req Request, tag message.Tag, data T, override string) (Envelope[T], error) {
	entry, err := b.catalog.Lookup(language(req.Language), tag)
	if err != nil {
		return Envelope[T]{}, err
	}
	if entry.Kind != message.KindSuccess {
		return Envelope[T]{}, fmt.Errorf("%w: %s is not a success tag", message.ErrUnknownTag, tag)
	}
	datetime, err := b.now()
	if err != nil {
		return Envelope[T]{}, err
	}
	msg := entry.Message
	if override != "" {
		msg = override
	}
	return NewEnvelope(req.RequestID, entry.StatusCode, msg, datetime, data), nil
}

// Failure renders an error envelope for a classified exception. A non-empty
// override replaces the error message.
func (b *Builder) Failure(req Request, exc *apperr.Exception, override string) (ErrorEnvelope, error) {
	if exc == nil {
		exc = apperr.Classify(nil)
	}
	tag := exc.ResolvedTag()
	entry, err := b.catalog.Lookup(language(req.Language), tag)
	if err != nil {
		return ErrorEnvelope{}, err
	}
	if entry.Kind != message.KindError {
		return ErrorEnvelope{}, fmt.Errorf("%w: %s is not an error tag", message.ErrUnknownTag, tag)
	}
	datetime, err := b.now()
	if err != nil {
		return ErrorEnvelope{}, err
	}

	env := ErrorEnvelope{
		RequestID:    req.RequestID,
		StatusCode:   entry.StatusCode,
		Message:      entry.Format(exc.Key),
		Datetime:     datetime,
		ErrorMessage: firstNonEmpty(override, exc.Message, entry.HTTPMessage),
		ErrorCode:    exc.Code,
	}
	if env.ErrorCode == "" {
		env.ErrorCode = RandomCode(ErrorCodeLength)
	}
	if b.devMode {
		env.ErrorDetail = exc.Detail()
	}
	return env, nil
}

// Result holds exactly one of a success or a failure envelope.
type Result struct {
	Success *Envelope[any]
	Failure *ErrorEnvelope
}

// Build picks the catalog namespace from tag. Success tags wrap data; error tags
// wrap err, classified first, under tag.
func (b *Builder) Build(req Request, tag message.Tag, data any, err error) (Result, error) {
	kind, ok := b.catalog.KindOf(tag)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", message.ErrUnknownTag, tag)
	}
	if kind == message.KindSuccess {
		env, err := Success(b, req, tag, data, "")
		if err != nil {
			return Result{}, err
		}
		return Result{Success: &env}, nil
	}
	exc := apperr.Classify(err)
	exc.Tag = tag
	env, err := b.Failure(req, exc, "")
	if err != nil {
		return Result{}, err
	}
	return Result{Failure: &env}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
