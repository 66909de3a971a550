// Package flows compone Issuer + Dispatcher para los flujos de verificación
// de email y reset de password: emitir el código y despachar el mail que lo
// entrega, en ese orden.
package flows

import (
	"context"

	"github.com/dropDatabas3/avisame/internal/notify"
	"github.com/dropDatabas3/avisame/internal/otp"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

// Enqueuer es la cara async del dispatcher que consumen los flujos.
type Enqueuer interface {
	Enqueue(ev notify.Event) bool
}

// Flows unifica verify/reset sobre el Code Issuer y la cola de dispatch.
type Flows struct {
	issuer *otp.Issuer
	queue  Enqueuer
}

func New(issuer *otp.Issuer, queue Enqueuer) *Flows {
	return &Flows{issuer: issuer, queue: queue}
}

// StartVerify emite un código de verificación y encola el email que lo
// entrega. La emisión manda: si falla, el flujo falla. La entrega es
// best-effort: un SMTP caído no voltea el alta de cuenta.
func (f *Flows) StartVerify(ctx context.Context, subjectID, email, name string) (*otp.Code, error) {
	return f.start(ctx, subjectID, email, name, otp.PurposeEmailVerification, notify.KindEmailVerification)
}

// StartReset emite un código de reset de password y encola su email.
func (f *Flows) StartReset(ctx context.Context, subjectID, email, name string) (*otp.Code, error) {
	return f.start(ctx, subjectID, email, name, otp.PurposePasswordReset, notify.KindPasswordReset)
}

func (f *Flows) start(ctx context.Context, subjectID, email, name string, purpose otp.Purpose, kind notify.Kind) (*otp.Code, error) {
	code, err := f.issuer.Issue(ctx, subjectID, purpose)
	if err != nil {
		return nil, err
	}

	ev := notify.NewEvent(kind, "", notify.Recipient{Email: email, Name: name}, map[string]string{
		notify.VarOTP:  code.Code,
		notify.VarName: name,
	})
	if !f.queue.Enqueue(ev) {
		// Soft-fail: el código ya existe y el caller puede pedir reenvío.
		logger.From(ctx).Warn("verification email not enqueued",
			logger.Component("flows"),
			logger.SubjectID(subjectID),
			logger.Purpose(purpose.String()),
		)
	}
	return code, nil
}

// Confirm valida el código contra el Issuer. El resultado (EXPIRED/MISMATCH)
// es un outcome normal, no un error.
func (f *Flows) Confirm(ctx context.Context, subjectID string, purpose otp.Purpose, code string) (otp.Result, error) {
	return f.issuer.Validate(ctx, subjectID, purpose, code)
}
