package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/avisame/internal/metrics"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

// ─── Errors ───

var (
	// ErrTemplate: payload incompleto o placeholder sin resolver. Bug del
	// caller: se reporta inmediato y no se reintenta.
	ErrTemplate = errors.New("notify: template error")
	// ErrDelivery: el transporte falló o venció el timeout. Transitorio:
	// se loguea y puede reintentarse, nunca voltea la operación que disparó
	// la notificación.
	ErrDelivery = errors.New("notify: delivery failure")
)

// Sender es el transporte de mail inyectado: send(to, subject, body).
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// PreferenceChecker permite al caller enganchar las preferencias de
// notificación del usuario (p.ej. "email_new_follower: off"). Retornar false
// saltea la entrega sin error. El default acepta todo.
type PreferenceChecker func(ev Event) bool

// DispatchResult es el resultado de un Notify. El negocio sólo consume
// éxito/fallo; el resto es para logs y tests.
type DispatchResult struct {
	EventID    string
	Kind       Kind
	TemplateID string
	Recipient  string
	Subject    string
	Delivered  bool
	Skipped    bool // preferencia del usuario apagada
}

// Dispatcher resuelve template, renderiza y entrega. Stateless: seguro para
// uso concurrente.
type Dispatcher struct {
	renderer    Renderer
	sender      Sender
	frontendURL string
	sendTimeout time.Duration
	allow       PreferenceChecker
}

// Option configura el Dispatcher.
type Option func(*Dispatcher)

// WithFrontendURL setea la base para la variable frontend_url.
func WithFrontendURL(u string) Option {
	return func(d *Dispatcher) { d.frontendURL = strings.TrimRight(u, "/") }
}

// WithSendTimeout acota cada intento de envío (default 15s).
func WithSendTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.sendTimeout = t }
}

// WithPreferences engancha el gate de preferencias del usuario.
func WithPreferences(f PreferenceChecker) Option {
	return func(d *Dispatcher) { d.allow = f }
}

// New arma el dispatcher y valida el catálogo contra el renderer: si un kind
// no resuelve template, falla acá (boot), no en el primer send.
func New(renderer Renderer, sender Sender, opts ...Option) (*Dispatcher, error) {
	if renderer == nil || sender == nil {
		return nil, fmt.Errorf("notify: renderer y sender son requeridos")
	}
	d := &Dispatcher{
		renderer:    renderer,
		sender:      sender,
		sendTimeout: 15 * time.Second,
		allow:       func(Event) bool { return true },
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := ValidateCatalog(renderer); err != nil {
		return nil, err
	}
	return d, nil
}

// Notify valida el contrato del evento, renderiza y entrega. Reinvocar con el
// mismo evento manda un email duplicado: no hay clave de dedup en este diseño
// (gap deliberado, ver Enqueue).
func (d *Dispatcher) Notify(ctx context.Context, ev Event) (DispatchResult, error) {
	res := DispatchResult{EventID: ev.ID, Kind: ev.Kind, Recipient: ev.Recipient.Email}

	tpl, ok := TemplateFor(ev.Kind)
	if !ok {
		metrics.NotifyDispatched.WithLabelValues(ev.Kind.String(), "template_error").Inc()
		return res, fmt.Errorf("%w: kind %q sin template", ErrTemplate, ev.Kind)
	}
	res.TemplateID = tpl.ID
	res.Subject = tpl.Subject

	if err := d.checkContract(ev, tpl); err != nil {
		metrics.NotifyDispatched.WithLabelValues(ev.Kind.String(), "template_error").Inc()
		return res, err
	}

	if !d.allow(ev) {
		res.Skipped = true
		logger.From(ctx).Debug("notification skipped by preference",
			logger.Component("notify.Dispatcher"),
			logger.Kind(ev.Kind.String()),
			logger.EventID(ev.ID),
		)
		return res, nil
	}

	html, text, err := d.render(ev, tpl)
	if err != nil {
		metrics.NotifyDispatched.WithLabelValues(ev.Kind.String(), "template_error").Inc()
		return res, err
	}

	if err := d.send(ctx, ev.Recipient.Email, tpl.Subject, html, text); err != nil {
		metrics.NotifyDispatched.WithLabelValues(ev.Kind.String(), "delivery_failure").Inc()
		logger.From(ctx).Warn("notification delivery failed",
			logger.Component("notify.Dispatcher"),
			logger.Kind(ev.Kind.String()),
			logger.EventID(ev.ID),
			logger.Template(tpl.ID),
			logger.Err(err),
		)
		return res, err
	}

	res.Delivered = true
	metrics.NotifyDispatched.WithLabelValues(ev.Kind.String(), "sent").Inc()
	logger.From(ctx).Info("notification sent",
		logger.Component("notify.Dispatcher"),
		logger.Kind(ev.Kind.String()),
		logger.EventID(ev.ID),
		logger.Template(tpl.ID),
		logger.Recipient(ev.Recipient.Email),
	)
	return res, nil
}

// checkContract valida actor y claves requeridas ANTES de renderizar.
// Una clave faltante es bug del caller: falla ruidoso, sin defaults.
func (d *Dispatcher) checkContract(ev Event, tpl Template) error {
	if ev.Recipient.Email == "" {
		return fmt.Errorf("%w: evento %s sin recipient", ErrTemplate, ev.Kind)
	}
	if tpl.NeedsActor && strings.TrimSpace(ev.Actor) == "" {
		return fmt.Errorf("%w: kind %q requiere actor", ErrTemplate, ev.Kind)
	}
	for _, k := range tpl.RequiredKeys {
		if v, ok := ev.Payload[k]; !ok || v == "" {
			return fmt.Errorf("%w: kind %q requiere payload[%q]", ErrTemplate, ev.Kind, k)
		}
	}
	return nil
}

func (d *Dispatcher) render(ev Event, tpl Template) (html, text string, err error) {
	vars := make(map[string]string, len(ev.Payload)+4)
	for k, v := range ev.Payload {
		vars[k] = v
	}
	vars[VarRecipientName] = ev.Recipient.Name
	vars[VarActorName] = ev.Actor
	vars[VarFrontendURL] = d.frontendURL
	vars[VarSubject] = tpl.Subject

	html, text, err = d.renderer.Render(tpl.ID, vars)
	if err != nil {
		// Placeholder sin resolver => error de template, no string vacío.
		return "", "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return html, text, nil
}

// send corre el transporte acotado por timeout. Un timeout es un fallo de
// entrega, nunca un error fatal para el caller.
func (d *Dispatcher) send(ctx context.Context, to, subject, html, text string) error {
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- d.sender.Send(to, subject, html, text)
	}()

	select {
	case err := <-done:
		metrics.SendLatency.Observe(float64(time.Since(start).Milliseconds()))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDelivery, err)
		}
		return nil
	case <-ctx.Done():
		metrics.SendLatency.Observe(float64(time.Since(start).Milliseconds()))
		return fmt.Errorf("%w: %v", ErrDelivery, ctx.Err())
	}
}
