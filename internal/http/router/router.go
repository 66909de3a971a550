// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctl "github.com/dropDatabas3/avisame/internal/http/controllers/health"
	notifyctl "github.com/dropDatabas3/avisame/internal/http/controllers/notify"
	otpctl "github.com/dropDatabas3/avisame/internal/http/controllers/otp"
	mw "github.com/dropDatabas3/avisame/internal/http/middlewares"
	"github.com/dropDatabas3/avisame/internal/rate"
)

// Deps contiene las dependencias para armar el router.
type Deps struct {
	OTP    *otpctl.Controller
	Notify *notifyctl.Controller
	Health *healthctl.Controller

	Auth mw.AuthConfig
	// IssueLimiter limita POST /v1/otp/issue por IP. Opcional.
	IssueLimiter rate.Limiter
	// Metrics es el handler de /metrics (promhttp). Opcional.
	Metrics http.Handler
}

// New construye el http.Handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())

	// Ops endpoints: sin auth.
	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	// API service-to-service: requiere token salvo en dev (secret vacío).
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireServiceToken(d.Auth))

		r.Group(func(r chi.Router) {
			if d.IssueLimiter != nil {
				r.Use(mw.WithRateLimit(d.IssueLimiter, mw.IPRateKey("otp_issue")))
			}
			r.Post("/v1/otp/issue", d.OTP.Issue)
		})
		r.Post("/v1/otp/validate", d.OTP.Validate)
		r.Post("/v1/notify", d.Notify.Notify)
	})

	return r
}
