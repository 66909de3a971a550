// Package email implementa el transporte saliente de mail.
package email

import (
	"sync"

	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

// Sender es la interfaz para enviar emails.
// Implementada por SMTPSender (prod) y DevSender (dev sin SMTP).
type Sender interface {
	// Send envía un email con contenido HTML y texto plano.
	// El destinatario recibe ambas versiones como multipart/alternative.
	Send(to string, subject string, htmlBody string, textBody string) error
}

// DevSender loguea el email en vez de mandarlo. Para entornos sin SMTP
// configurado: el resto del pipeline corre igual.
type DevSender struct {
	mu   sync.Mutex
	sent []DevMessage
}

// DevMessage es un email "enviado" por el DevSender.
type DevMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

func NewDevSender() *DevSender { return &DevSender{} }

func (s *DevSender) Send(to, subject, htmlBody, textBody string) error {
	s.mu.Lock()
	s.sent = append(s.sent, DevMessage{To: to, Subject: subject, HTML: htmlBody, Text: textBody})
	s.mu.Unlock()

	logger.L().Info("email (dev sender, not delivered)",
		logger.Component("email.DevSender"),
		logger.Recipient(to),
		logger.String("subject", subject),
	)
	return nil
}

// Sent retorna una copia de los mensajes acumulados (tests).
func (s *DevSender) Sent() []DevMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DevMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
