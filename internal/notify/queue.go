package notify

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/avisame/internal/metrics"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

// Queue es la cola en memoria que desacopla el dispatch del request que lo
// dispara. El handoff es post-commit y best-effort: sin durabilidad entre
// reinicios y sin clave de dedup, un reintento puede duplicar el email.
type Queue struct {
	d          *Dispatcher
	ch         chan Event
	workers    int
	maxRetries int
	retryDelay time.Duration
}

// QueueConfig configura la cola de dispatch.
type QueueConfig struct {
	Size       int // capacidad del buffer (default 256)
	Workers    int // goroutines consumidoras (default 4)
	MaxRetries int // reintentos por evento ante DELIVERY_FAILURE (default 3)
	RetryDelay time.Duration
}

// NewQueue crea la cola sobre un dispatcher ya validado.
func NewQueue(d *Dispatcher, cfg QueueConfig) *Queue {
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Queue{
		d:          d,
		ch:         make(chan Event, cfg.Size),
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Enqueue encola sin bloquear. Si el buffer está lleno descarta el evento
// (log + métrica): el request que originó la notificación no puede quedar
// frenado por la cola. Retorna false si descartó.
func (q *Queue) Enqueue(ev Event) bool {
	select {
	case q.ch <- ev:
		metrics.NotifyQueueDepth.Set(float64(len(q.ch)))
		return true
	default:
		metrics.NotifyDropped.Inc()
		logger.L().Warn("notification dropped, queue full",
			logger.Component("notify.Queue"),
			logger.Kind(ev.Kind.String()),
			logger.EventID(ev.ID),
		)
		return false
	}
}

// Run consume la cola hasta que el contexto se cancele. Pensado para correr
// bajo el errgroup de main.
func (q *Queue) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < q.workers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case ev := <-q.ch:
					metrics.NotifyQueueDepth.Set(float64(len(q.ch)))
					q.deliver(ctx, ev)
				}
			}
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// deliver intenta la entrega con reintentos acotados. Sólo reintenta
// DELIVERY_FAILURE; un TEMPLATE_ERROR es bug del caller y repetirlo no lo
// arregla.
func (q *Queue) deliver(ctx context.Context, ev Event) {
	attempts := q.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		_, err := q.d.Notify(ctx, ev)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrDelivery) {
			logger.From(ctx).Error("notification discarded, caller bug",
				logger.Component("notify.Queue"),
				logger.Kind(ev.Kind.String()),
				logger.EventID(ev.ID),
				logger.Err(err),
			)
			return
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.retryDelay * time.Duration(attempt)):
		}
		logger.From(ctx).Debug("retrying notification",
			logger.Component("notify.Queue"),
			logger.EventID(ev.ID),
			logger.Attempt(attempt+1),
		)
	}

	metrics.NotifyDropped.Inc()
	logger.From(ctx).Warn("notification dropped, retries exhausted",
		logger.Component("notify.Queue"),
		logger.Kind(ev.Kind.String()),
		logger.EventID(ev.ID),
		logger.Count(attempts),
	)
}
