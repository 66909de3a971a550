package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OTP and dispatch metrics. Defined in a standalone package to avoid import
// cycles between the otp/notify packages and HTTP.

var (
	OTPIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_issued_total",
		Help: "Códigos emitidos, por propósito",
	}, []string{"purpose"})

	OTPValidated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_validated_total",
		Help: "Validaciones de código, por propósito y resultado (accepted|expired|mismatch)",
	}, []string{"purpose", "result"})

	NotifyDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_dispatch_total",
		Help: "Dispatches de notificación, por kind y resultado (sent|template_error|delivery_failure)",
	}, []string{"kind", "result"})

	NotifyDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_dropped_total",
		Help: "Eventos descartados por cola llena o reintentos agotados",
	})

	NotifyQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notify_queue_depth",
		Help: "Eventos pendientes en la cola de dispatch",
	})

	SendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "notify_send_latency_ms",
		Help:    "Latencia del transporte de mail en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})
)

// Register registers all collectors on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		OTPIssued, OTPValidated,
		NotifyDispatched, NotifyDropped, NotifyQueueDepth,
		SendLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
