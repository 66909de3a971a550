package notify

import (
	"fmt"
)

// Variables que el dispatcher inyecta siempre (no vienen en el payload).
const (
	VarRecipientName = "recipient_name"
	VarActorName     = "actor_name"
	VarFrontendURL   = "frontend_url"
	VarSubject       = "subject"
)

// Variables que llegan vía payload, según el kind.
const (
	VarMessage        = "message"
	VarPostContent    = "post_content"
	VarPostURL        = "post_url"
	VarProfileURL     = "profile_url"
	VarConnectionsURL = "connections_url"
	VarOTP            = "otp"
	VarName           = "name"
)

// Template describe la entrada del catálogo para un kind: qué template
// renderiza, con qué subject, qué claves del payload son obligatorias y si
// el evento necesita actor.
type Template struct {
	ID           string
	Subject      string
	RequiredKeys []string
	NeedsActor   bool
}

// catalog es el mapeo estático kind → template. 1:1, sin lookup dinámico:
// un kind sin entrada acá no existe para el dispatcher.
var catalog = map[Kind]Template{
	KindNewFollower: {
		ID:           "new_follower",
		Subject:      "You have a new follower",
		RequiredKeys: []string{VarProfileURL},
		NeedsActor:   true,
	},
	KindConnectionRequest: {
		ID:           "connection_request",
		Subject:      "New connection request",
		RequiredKeys: []string{VarMessage, VarConnectionsURL},
		NeedsActor:   true,
	},
	KindConnectionAccepted: {
		ID:           "connection_accepted",
		Subject:      "Your connection request was accepted",
		RequiredKeys: []string{VarConnectionsURL},
		NeedsActor:   true,
	},
	KindPostComment: {
		ID:           "post_comment",
		Subject:      "New comment on your post",
		RequiredKeys: []string{VarPostContent, VarPostURL},
		NeedsActor:   true,
	},
	KindPostReaction: {
		ID:           "post_reaction",
		Subject:      "Someone reacted to your post",
		RequiredKeys: []string{VarPostContent, VarPostURL},
		NeedsActor:   true,
	},
	KindEmailVerification: {
		ID:           "email_verification",
		Subject:      "Verify your email address",
		RequiredKeys: []string{VarOTP, VarName},
	},
	KindPasswordReset: {
		ID:           "password_reset",
		Subject:      "Reset your password",
		RequiredKeys: []string{VarOTP, VarName},
	},
}

// TemplateFor retorna la entrada del catálogo para un kind.
func TemplateFor(kind Kind) (Template, bool) {
	t, ok := catalog[kind]
	return t, ok
}

// Renderer es el renderizador externo de templates estáticos:
// render(template_id, variables) -> (html, text).
type Renderer interface {
	Render(templateID string, vars map[string]string) (html, text string, err error)
}

// ValidateCatalog verifica en startup que cada kind tenga entrada y que el
// renderer resuelva cada template con su set completo de variables. Un kind
// sin mapear falla acá, no en el primer send.
func ValidateCatalog(r Renderer) error {
	for _, kind := range Kinds() {
		t, ok := catalog[kind]
		if !ok {
			return fmt.Errorf("notify: kind %q sin entrada en el catálogo", kind)
		}
		vars := map[string]string{
			VarRecipientName: "x",
			VarActorName:     "x",
			VarFrontendURL:   "x",
			VarSubject:       t.Subject,
		}
		for _, k := range t.RequiredKeys {
			vars[k] = "x"
		}
		if _, _, err := r.Render(t.ID, vars); err != nil {
			return fmt.Errorf("notify: template %q no renderiza: %w", t.ID, err)
		}
	}
	return nil
}
