package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

type ctxKey string

const ctxRequestIDKey ctxKey = "request_id"

// WithRequestID asigna (o propaga) un X-Request-Id y deja en el contexto un
// logger scoped con ese campo.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-Id")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-Id", rid)

			ctx := context.WithValue(r.Context(), ctxRequestIDKey, rid)
			ctx = logger.ToContext(ctx, logger.With(logger.RequestID(rid)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si el middleware no se aplicó.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
