package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/avisame/internal/http/errors"
	tokens "github.com/dropDatabas3/avisame/internal/security/token"
)

// AuthConfig configura la autenticación servicio-a-servicio.
type AuthConfig struct {
	// Secret es el secreto compartido HS256. Vacío => API abierta (sólo dev).
	Secret string
	Issuer string
}

// RequireServiceToken valida el Bearer token de servicio en cada request.
// Sin secreto configurado deja pasar todo: modo dev explícito, la config de
// prod lo rechaza antes de llegar acá.
func RequireServiceToken(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(raw, "Bearer ") {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			if _, err := tokens.VerifyServiceToken(cfg.Secret, cfg.Issuer, strings.TrimPrefix(raw, "Bearer ")); err != nil {
				errors.WriteError(w, errors.ErrUnauthorized.WithCause(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
