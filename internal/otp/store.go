package otp

import (
	"context"
	"time"
)

// Outcome es el resultado de un Consume en el store.
type Outcome int

const (
	// OutcomeAccepted: el código coincidía, estaba vigente y quedó consumido.
	OutcomeAccepted Outcome = iota
	// OutcomeExpired: el código coincidía pero ya venció.
	OutcomeExpired
	// OutcomeMismatch: no coincide, no existe, o ya estaba consumido.
	OutcomeMismatch
)

// Store es el único estado mutable compartido del engine. Las dos operaciones
// de mutación son condicionales y deben ser atómicas en cada adapter
// (upsert-supersede y check-and-mark-consumed), sea por lock de fila,
// compare-and-swap o transacción.
type Store interface {
	// Supersede invalida cualquier código vigente del par (subject, purpose)
	// e inserta el nuevo, en una sola operación atómica.
	Supersede(ctx context.Context, code *Code) error

	// Consume compara el código provisto contra el vigente y, si coincide y
	// no venció, lo marca consumido. La comparación y la marca son una sola
	// operación: dos Consume concurrentes del mismo código no pueden aceptar
	// ambos.
	Consume(ctx context.Context, subjectID string, purpose Purpose, code string, now time.Time) (Outcome, error)

	// DeleteExpired poda códigos vencidos o consumidos. Retorna cuántos borró.
	// Los registros no necesitan sobrevivir a su expiración.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
