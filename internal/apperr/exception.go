package apperr

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/janisto/tms-platform/internal/message"
)

// Exception is a classified application failure.
type Exception struct {
	Kind Kind
	// Tag overrides the kind's default catalog tag.
	Tag message.Tag
	// Message is the public error message. Driver errors never end up here.
	Message string
	// Code is an explicit error code; a random one is generated when empty.
	Code string
	// Key fills the {key} placeholder of the catalog message.
	Key string
	// Status overrides the kind's HTTP status. Only framework errors set it.
	Status int

	cause error
	stack errors.StackTrace
}

// Option customizes an Exception.
type Option func(*Exception)

// WithMessage sets the public error message.
func WithMessage(msg string) Option {
	return func(e *Exception) { e.Message = msg }
}

// WithTag overrides the catalog tag.
func WithTag(tag message.Tag) Option {
	return func(e *Exception) { e.Tag = tag }
}

// WithCode sets an explicit error code.
func WithCode(code string) Option {
	return func(e *Exception) { e.Code = code }
}

// WithKey sets the placeholder value for messages like PROPERTY_REQUIRED.
func WithKey(key string) Option {
	return func(e *Exception) { e.Key = key }
}

// WithStatus overrides the HTTP status.
func WithStatus(status int) Option {
	return func(e *Exception) { e.Status = status }
}

// New creates an exception of kind and captures the stack at the call site.
func New(kind Kind, opts ...Option) *Exception {
	e := &Exception{Kind: kind, stack: callers()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wrap creates an exception of kind caused by err. The stack of err is kept when
// it has one; otherwise the stack of the call site is recorded.
func Wrap(kind Kind, err error, opts ...Option) *Exception {
	e := New(kind, opts...)
	if err != nil {
		e.cause = err
		if st := stackOf(err); st != nil {
			e.stack = st
		}
	}
	return e
}

func (e *Exception) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.ResolvedTag())
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Exception) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// StackTrace exposes the recorded stack in the pkg/errors format.
func (e *Exception) StackTrace() errors.StackTrace {
	if e == nil {
		return nil
	}
	return e.stack
}

// ResolvedTag is the tag used to render the exception.
func (e *Exception) ResolvedTag() message.Tag {
	if e.Tag != "" {
		return e.Tag
	}
	return e.Kind.Tag()
}

// HTTPStatus is the status code the exception is rendered with.
func (e *Exception) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.HTTPStatus()
}

// Detail renders the cause and the stack for development responses and logs.
func (e *Exception) Detail() string {
	head := e.Error()
	if len(e.stack) == 0 {
		return head
	}
	return fmt.Sprintf("%s%+v", head, e.stack)
}

func (e *Exception) clone() *Exception {
	c := *e
	return &c
}

// Is matches exceptions of the same kind, so errors.Is(err, apperr.New(apperr.DataNotFound))
// works across wrapping.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// StackOf formats the innermost stack recorded in the chain of err, or returns
// "" when no error in the chain captured one.
func StackOf(err error) string {
	st := stackOf(err)
	if len(st) == 0 {
		return ""
	}
	return fmt.Sprintf("%+v", st)
}

// BadRequestFor reports an invalid or missing request property.
func BadRequestFor(key, msg string) *Exception {
	return New(BadRequest, WithKey(key), WithMessage(msg))
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// stackOf returns the innermost stack recorded in the chain of err.
func stackOf(err error) errors.StackTrace {
	var found errors.StackTrace
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			if s := st.StackTrace(); len(s) > 0 {
				found = s
			}
		}
		err = errors.Unwrap(err)
	}
	return found
}

// callers records the stack of the caller of New or Wrap.
func callers() errors.StackTrace {
	st := errors.New("").(stackTracer).StackTrace()
	// Drop callers itself and New.
	if len(st) > 2 {
		return st[2:]
	}
	return st
}
