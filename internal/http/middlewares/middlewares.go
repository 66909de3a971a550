// Package middlewares arma la cadena estándar de la API interna.
package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/avisame/internal/http/errors"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

// Middleware es un decorador estándar de http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain aplica los middlewares en orden sobre el handler final.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WithRecover captura panics y devuelve un error 500 en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.From(r.Context())
					log.Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					errors.WriteError(w, errors.ErrInternal.WithDetail("panic recovered"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
