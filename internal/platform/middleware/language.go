package middleware

import (
	"context"
	"net/http"

	"github.com/janisto/tms-platform/internal/message"
)

type ctxLanguageKey struct{}

// LanguageQuery is the query parameter selecting the response language.
const LanguageQuery = "lang"

// Language resolves the response language from the lang query parameter.
// Unknown or missing values fall back to message.DefaultLanguage.
func Language() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := message.ParseLanguage(r.URL.Query().Get(LanguageQuery))
			next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
		})
	}
}

// WithLanguage returns a copy of ctx carrying lang.
func WithLanguage(ctx context.Context, lang message.Language) context.Context {
	return context.WithValue(ctx, ctxLanguageKey{}, lang)
}

// LanguageFromContext returns the request language or message.DefaultLanguage.
func LanguageFromContext(ctx context.Context) message.Language {
	if ctx == nil {
		return message.DefaultLanguage
	}
	if lang, ok := ctx.Value(ctxLanguageKey{}).(message.Language); ok && lang != "" {
		return lang
	}
	return message.DefaultLanguage
}
