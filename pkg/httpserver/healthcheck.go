package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quorumhq/notify/pkg/logger"
)

// HealthCheckHandler returns an HTTP handler usable as a liveness or
// readiness probe. With no dependency functions it answers 200 "ALIVE";
// with dependencies it runs each one and answers 200 "READY" or
// 503 "NOT_READY" on the first failure.
func HealthCheckHandler(log *slog.Logger, funcs ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(funcs) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, f := range funcs {
			if err := f(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
