// Package auth issues and verifies bearer access tokens and guards the
// operations that declare a security requirement.
package auth

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/apperr"
	applog "github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/respond"
)

// SecurityScheme is the name operations use in their Security requirement.
const SecurityScheme = "bearer"

// Security is the requirement list of a protected operation.
var Security = []map[string][]string{{SecurityScheme: {}}}

type claimsContextKey struct{}

// NewAuthMiddleware creates Huma middleware that validates bearer tokens on
// operations with a Security requirement. Failures render as error envelopes:
// a missing header is TOKEN_REQUIRED, an expired token TOKEN_EXPIRED and
// anything else INVALID_TOKEN.
func NewAuthMiddleware(api huma.API, verifier Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if len(ctx.Operation().Security) == 0 {
			next(ctx)
			return
		}

		token, err := ExtractBearerToken(ctx.Header("Authorization"))
		if err == nil {
			var claims *Claims
			claims, err = verifier.Verify(ctx.Context(), token)
			if err == nil {
				next(huma.WithValue(ctx, claimsContextKey{}, claims))
				return
			}
		}

		applog.LogWarn(ctx.Context(), "auth failed", zap.String("reason", categorizeAuthError(err)))
		ctx.SetHeader("WWW-Authenticate", "Bearer")
		_ = respond.WriteErr(api, ctx, exceptionFor(err))
	}
}

func exceptionFor(err error) *apperr.Exception {
	switch {
	case errors.Is(err, ErrNoToken):
		return apperr.New(apperr.TokenRequired)
	case errors.Is(err, ErrTokenExpired):
		return apperr.New(apperr.TokenExpired)
	default:
		return apperr.New(apperr.InvalidToken)
	}
}

// categorizeAuthError returns a safe category string for logging.
func categorizeAuthError(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}

// ClaimsFromContext returns the verified claims, or nil when the operation is
// not protected.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}
