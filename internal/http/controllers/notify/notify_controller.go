// Package notifyctl contiene el controller del Notification Dispatcher.
package notifyctl

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/avisame/internal/http/errors"
	"github.com/dropDatabas3/avisame/internal/http/dto"
	"github.com/dropDatabas3/avisame/internal/http/helpers"
	"github.com/dropDatabas3/avisame/internal/notify"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

// Enqueuer es la cara async de la cola.
type Enqueuer interface {
	Enqueue(ev notify.Event) bool
}

// Controller encola eventos de notificación, o los despacha inline con
// sync=true.
type Controller struct {
	queue      Enqueuer
	dispatcher *notify.Dispatcher
}

func New(queue Enqueuer, d *notify.Dispatcher) *Controller {
	return &Controller{queue: queue, dispatcher: d}
}

// Notify maneja POST /v1/notify
func (c *Controller) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("NotifyController.Notify"))

	var in dto.NotifyRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}

	kind, err := notify.ParseKind(in.Kind)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("unknown notification kind"))
		return
	}
	if in.Recipient.Email == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("recipient.email required"))
		return
	}

	ev := notify.NewEvent(kind, in.ActorName, notify.Recipient{
		Email: in.Recipient.Email,
		Name:  in.Recipient.Name,
	}, in.Payload)

	if in.Sync {
		c.notifySync(w, r, ev)
		return
	}

	if !c.queue.Enqueue(ev) {
		// Cola llena: el caller puede reintentar.
		log.Warn("event dropped, queue full", logger.EventID(ev.ID), logger.Kind(ev.Kind.String()))
		httperrors.WriteError(w, httperrors.New(http.StatusServiceUnavailable, "queue_full", "notification queue is full"))
		return
	}

	log.Info("event enqueued", logger.EventID(ev.ID), logger.Kind(ev.Kind.String()))
	helpers.WriteJSON(w, http.StatusAccepted, dto.NotifyResponse{EventID: ev.ID, Queued: true})
}

func (c *Controller) notifySync(w http.ResponseWriter, r *http.Request, ev notify.Event) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("NotifyController.Notify"), logger.EventID(ev.ID))

	res, err := c.dispatcher.Notify(ctx, ev)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrTemplate):
			log.Warn("template contract violation", logger.Kind(ev.Kind.String()), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrTemplate.WithCause(err))
		case errors.Is(err, notify.ErrDelivery):
			log.Error("delivery failed", logger.Kind(ev.Kind.String()), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrDelivery.WithCause(err))
		default:
			log.Error("dispatch failed", logger.Err(err))
			httperrors.WriteError(w, err)
		}
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.NotifySyncResponse{
		EventID:   res.EventID,
		Kind:      res.Kind.String(),
		Template:  res.TemplateID,
		Delivered: res.Delivered,
		Skipped:   res.Skipped,
	})
}
