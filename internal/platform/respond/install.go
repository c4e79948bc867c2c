package respond

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/tms-platform/internal/apperr"
)

var (
	installOnce sync.Once
	installed   atomic.Pointer[Pipeline]
)

// Install routes huma's own errors (validation, negotiation, body size) through
// p. huma keeps the constructors in package variables, so the most recently
// installed pipeline wins.
func Install(p *Pipeline) {
	installed.Store(p)
	installOnce.Do(func() {
		huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
			return frameworkError(context.Background(), "", status, msg, errs)
		}
		huma.NewErrorWithContext = func(hctx huma.Context, status int, msg string, errs ...error) huma.StatusError {
			ctx := context.Background()
			operation := ""
			if hctx != nil {
				ctx = hctx.Context()
				if op := hctx.Operation(); op != nil {
					operation = op.OperationID
				}
			}
			return frameworkError(ctx, operation, status, msg, errs)
		}
	})
}

func frameworkError(ctx context.Context, operation string, status int, msg string, errs []error) huma.StatusError {
	// huma.Register calls NewError(0, "") to discover the error schema.
	if status == 0 {
		return &StatusError{}
	}
	exc := frameworkException(status, msg, errs)
	p := installed.Load()
	if p == nil {
		return &StatusError{status: exc.HTTPStatus()}
	}
	return p.fail(ctx, operation, exc, "")
}

var requiredProperty = regexp.MustCompile(`required property (\S+) to be present`)

// frameworkException maps a huma status to the error taxonomy.
func frameworkException(status int, msg string, errs []error) *apperr.Exception {
	for _, err := range errs {
		var exc *apperr.Exception
		if errors.As(err, &exc) {
			return apperr.Classify(exc)
		}
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		key, detail := firstIssue(errs)
		if detail == "" {
			detail = msg
		}
		return apperr.BadRequestFor(key, detail)
	case http.StatusUnauthorized:
		return apperr.New(apperr.InvalidToken, apperr.WithMessage(msg))
	case http.StatusForbidden:
		return apperr.New(apperr.Forbidden, apperr.WithMessage(msg))
	case http.StatusNotFound:
		return apperr.New(apperr.DataNotFound, apperr.WithMessage(msg))
	case http.StatusConflict:
		return apperr.New(apperr.DataAlreadyExists, apperr.WithMessage(msg))
	default:
		if status < 400 {
			status = http.StatusInternalServerError
		}
		return apperr.New(apperr.InternalError, apperr.WithStatus(status), apperr.WithMessage(msg))
	}
}

// firstIssue returns the offending property name and message of the first
// validation error.
func firstIssue(errs []error) (string, string) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		detailer, ok := err.(huma.ErrorDetailer)
		if !ok {
			return "", err.Error()
		}
		d := detailer.ErrorDetail()
		if d == nil {
			continue
		}
		if m := requiredProperty.FindStringSubmatch(d.Message); m != nil {
			return m[1], d.Message
		}
		loc := d.Location
		if i := strings.LastIndexByte(loc, '.'); i >= 0 {
			loc = loc[i+1:]
		}
		return loc, d.Message
	}
	return "", ""
}

// Config returns huma.DefaultConfig without the $schema link hook, so response
// bodies contain exactly the envelope fields.
func Config(title, version string) huma.Config {
	cfg := huma.DefaultConfig(title, version)
	cfg.CreateHooks = nil
	return cfg
}

// WriteErr renders err as an error envelope from inside a huma middleware.
// Install must have been called for the envelope to be used.
func WriteErr(hapi huma.API, hctx huma.Context, err error) error {
	exc := apperr.Classify(err)
	return huma.WriteErr(hapi, hctx, exc.HTTPStatus(), exc.Error(), exc)
}
