package otp

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/avisame/internal/metrics"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

// lockStripes dimensiona el array de locks por clave. Potencia de 2.
const lockStripes = 64

// Issuer emite y valida códigos sobre un Store.
//
// Contrato de concurrencia: Issue y Validate para el mismo (subject, purpose)
// se serializan con un lock por clave (striped), además de las operaciones
// condicionales del store. Así dos Issue concurrentes no dejan dos códigos
// "vigentes", y un validate-then-consume no puede aceptar dos veces.
type Issuer struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	locks [lockStripes]sync.Mutex
}

// IssuerOption configura el Issuer.
type IssuerOption func(*Issuer)

// WithTTL cambia la vigencia de los códigos (default DefaultTTL).
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) { i.ttl = ttl }
}

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer crea un Issuer sobre el store dado.
func NewIssuer(store Store, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) lockFor(subjectID string, purpose Purpose) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subjectID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(purpose))
	return &i.locks[h.Sum32()&(lockStripes-1)]
}

// Issue invalida el código vigente del par (si existe), genera uno nuevo
// uniforme y lo persiste con expires_at = now + TTL.
func (i *Issuer) Issue(ctx context.Context, subjectID string, purpose Purpose) (*Code, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrInvalidSubject
	}
	if !purpose.Valid() {
		return nil, ErrInvalidPurpose
	}

	raw, err := generateCode()
	if err != nil {
		return nil, err
	}

	now := i.now().UTC()
	code := &Code{
		SubjectID: subjectID,
		Purpose:   purpose,
		Code:      raw,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}

	mu := i.lockFor(subjectID, purpose)
	mu.Lock()
	defer mu.Unlock()

	if err := i.store.Supersede(ctx, code); err != nil {
		return nil, err
	}

	metrics.OTPIssued.WithLabelValues(purpose.String()).Inc()
	logger.From(ctx).Debug("otp issued",
		logger.Component("otp.Issuer"),
		logger.SubjectID(subjectID),
		logger.Purpose(purpose.String()),
	)
	return code, nil
}

// Validate compara el código y lo consume si corresponde. Single-use:
// un segundo Validate con el mismo código retorna MISMATCH.
func (i *Issuer) Validate(ctx context.Context, subjectID string, purpose Purpose, code string) (Result, error) {
	if strings.TrimSpace(subjectID) == "" {
		return Result{}, ErrInvalidSubject
	}
	if !purpose.Valid() {
		return Result{}, ErrInvalidPurpose
	}

	mu := i.lockFor(subjectID, purpose)
	mu.Lock()
	defer mu.Unlock()

	outcome, err := i.store.Consume(ctx, subjectID, purpose, code, i.now().UTC())
	if err != nil {
		return Result{}, err
	}

	var res Result
	switch outcome {
	case OutcomeAccepted:
		res = Result{Accepted: true}
		metrics.OTPValidated.WithLabelValues(purpose.String(), "accepted").Inc()
	case OutcomeExpired:
		res = Result{Reason: ReasonExpired}
		metrics.OTPValidated.WithLabelValues(purpose.String(), "expired").Inc()
	default:
		res = Result{Reason: ReasonMismatch}
		metrics.OTPValidated.WithLabelValues(purpose.String(), "mismatch").Inc()
	}

	logger.From(ctx).Debug("otp validated",
		logger.Component("otp.Issuer"),
		logger.SubjectID(subjectID),
		logger.Purpose(purpose.String()),
		logger.Bool("accepted", res.Accepted),
	)
	return res, nil
}

// GC corre DeleteExpired cada interval hasta que el contexto se cancele.
// Pensado para correr en una goroutine propia desde main.
func (i *Issuer) GC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := i.store.DeleteExpired(ctx, i.now().UTC())
			if err != nil {
				logger.From(ctx).Warn("otp gc failed", logger.Component("otp.Issuer"), logger.Err(err))
				continue
			}
			if n > 0 {
				logger.From(ctx).Debug("otp gc", logger.Component("otp.Issuer"), logger.Count(n))
			}
		}
	}
}
