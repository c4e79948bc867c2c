// Package health serves the liveness endpoint outside the envelope pipeline.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/tms-platform/internal/platform/logging"
)

const pingTimeout = 2 * time.Second

// Response is the payload for the health endpoint.
type Response struct {
	Status string `json:"status"`
}

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler reports healthy while every database grouping answers a ping. A nil
// pinger only reports that the process is up.
func Handler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				applog.LogWarn(r.Context(), "health check failed", zap.Error(err))
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(Response{Status: status})
	}
}
