package middlewares

import (
	"fmt"
	"net"
	"net/http"

	"github.com/dropDatabas3/avisame/internal/http/errors"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
	"github.com/dropDatabas3/avisame/internal/rate"
)

// RateKeyFunc deriva la clave de rate limit de un request.
type RateKeyFunc func(r *http.Request) string

// IPRateKey limita por IP del cliente.
func IPRateKey(prefix string) RateKeyFunc {
	return func(r *http.Request) string {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		return prefix + ":" + host
	}
}

// WithRateLimit aplica el limiter con la clave derivada. Si el limiter
// falla (ej: Redis caído) deja pasar: el rate limit es anti-abuso, no un
// gate de disponibilidad.
func WithRateLimit(l rate.Limiter, keyFn RateKeyFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}
			res, err := l.Allow(r.Context(), keyFn(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())+1))
				errors.WriteError(w, errors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
