// Package memory implementa el Store de OTP en memoria (dev y tests).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/avisame/internal/otp"
)

type key struct {
	subject string
	purpose otp.Purpose
}

// Mem guarda a lo sumo un registro por (subject, purpose): el upsert del
// Supersede pisa al anterior, que es exactamente la semántica de supersesión.
type Mem struct {
	mu    sync.Mutex
	codes map[key]*otp.Code
}

func New() *Mem {
	return &Mem{codes: make(map[key]*otp.Code)}
}

func (m *Mem) Supersede(_ context.Context, code *otp.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.codes[key{code.SubjectID, code.Purpose}] = &cp
	return nil
}

func (m *Mem) Consume(_ context.Context, subjectID string, purpose otp.Purpose, code string, now time.Time) (otp.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.codes[key{subjectID, purpose}]
	if !ok || rec.Consumed || rec.Code != code {
		return otp.OutcomeMismatch, nil
	}
	if rec.Expired(now) {
		return otp.OutcomeExpired, nil
	}
	rec.Consumed = true
	return otp.OutcomeAccepted, nil
}

func (m *Mem) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, rec := range m.codes {
		if rec.Consumed || rec.Expired(now) {
			delete(m.codes, k)
			n++
		}
	}
	return n, nil
}

// Peek retorna una copia del registro actual (sólo para tests).
func (m *Mem) Peek(subjectID string, purpose otp.Purpose) (otp.Code, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.codes[key{subjectID, purpose}]
	if !ok {
		return otp.Code{}, false
	}
	return *rec, true
}
