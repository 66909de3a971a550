// Package notify implementa el Notification Dispatcher: dado un evento
// (kind + actor + destinatario + payload) resuelve template, renderiza y
// entrega por el transporte de mail inyectado.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind enumera los tipos de evento que el dispatcher sabe entregar.
type Kind string

const (
	KindNewFollower        Kind = "new_follower"
	KindConnectionRequest  Kind = "connection_request"
	KindConnectionAccepted Kind = "connection_accepted"
	KindPostComment        Kind = "post_comment"
	KindPostReaction       Kind = "post_reaction"
	KindEmailVerification  Kind = "email_verification"
	KindPasswordReset      Kind = "password_reset"
)

// Kinds lista todos los kinds conocidos (orden estable, para validar el
// catálogo y para tests).
func Kinds() []Kind {
	return []Kind{
		KindNewFollower,
		KindConnectionRequest,
		KindConnectionAccepted,
		KindPostComment,
		KindPostReaction,
		KindEmailVerification,
		KindPasswordReset,
	}
}

func (k Kind) Valid() bool {
	switch k {
	case KindNewFollower, KindConnectionRequest, KindConnectionAccepted,
		KindPostComment, KindPostReaction, KindEmailVerification, KindPasswordReset:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// ParseKind convierte el string del wire al enum.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("notify: kind desconocido %q", s)
	}
	return k, nil
}

// Recipient es la identidad destino, ya resuelta por el caller.
type Recipient struct {
	Email string
	Name  string
}

// Event es la unidad de trabajo del dispatcher. Lo construye la operación
// CRUD que dispara la notificación y no se persiste: la entrega es
// fire-and-forget.
type Event struct {
	ID        string
	Kind      Kind
	Actor     string // display name del originante; vacío en verify/reset
	Recipient Recipient
	// Payload trae las variables de template por kind. Valores plain text,
	// pre-sanitizados por el caller.
	Payload   map[string]string
	CreatedAt time.Time
}

// NewEvent arma un evento con ID y timestamp asignados.
func NewEvent(kind Kind, actor string, recipient Recipient, payload map[string]string) Event {
	if payload == nil {
		payload = map[string]string{}
	}
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Actor:     actor,
		Recipient: recipient,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}
