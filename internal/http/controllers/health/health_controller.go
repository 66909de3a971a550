// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/avisame/internal/http/helpers"
)

// Pinger reporta si una dependencia (store, broker) está viva.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapta una función a Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Controller maneja /healthz y /readyz.
type Controller struct {
	version string
	deps    map[string]Pinger
}

func New(version string, deps map[string]Pinger) *Controller {
	return &Controller{version: version, deps: deps}
}

// Healthz maneja GET /healthz: liveness puro, sin tocar dependencias.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": c.version,
	})
}

// Readyz maneja GET /readyz: chequea cada dependencia con timeout corto.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string, len(c.deps))
	status := "ready"
	for name, p := range c.deps {
		if err := p.Ping(ctx); err != nil {
			components[name] = "down"
			status = "unavailable"
			continue
		}
		components[name] = "up"
	}

	code := http.StatusOK
	if status == "unavailable" {
		code = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, code, map[string]any{
		"status":     status,
		"version":    c.version,
		"components": components,
	})
}
