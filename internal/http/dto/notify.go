package dto

// RecipientDTO identifica al destinatario del email.
type RecipientDTO struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NotifyRequest es el body de POST /v1/notify.
// Con sync=true el dispatch corre inline y la respuesta trae el resultado
// real (útil para debugging y tests de integración). Por defecto encola.
type NotifyRequest struct {
	Kind      string            `json:"kind"`
	ActorName string            `json:"actor_name,omitempty"`
	Recipient RecipientDTO      `json:"recipient"`
	Payload   map[string]string `json:"payload,omitempty"`
	Sync      bool              `json:"sync,omitempty"`
}

// NotifyResponse es la respuesta del modo async.
type NotifyResponse struct {
	EventID string `json:"event_id"`
	Queued  bool   `json:"queued"`
}

// NotifySyncResponse es la respuesta del modo sync.
type NotifySyncResponse struct {
	EventID   string `json:"event_id"`
	Kind      string `json:"kind"`
	Template  string `json:"template,omitempty"`
	Delivered bool   `json:"delivered"`
	Skipped   bool   `json:"skipped,omitempty"`
}
