package middleware

import (
	"net/http"
	"time"

	"github.com/dom/ridecore/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics records latency per chi route pattern so path params do not
// explode label cardinality.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.ObserveHTTP(route, r.Method, rec.statusOrOK(), time.Since(start))
		})
	}
}
