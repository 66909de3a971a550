// Package bootstrap implementa el alta-o-promoción del admin en el arranque.
// Se consume como una sola llamada desde main; el resto del sistema no lo ve.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/avisame/internal/observability/logger"
)

// AdminStore persiste la cuenta admin. Implementado por PGAdminStore; en
// entornos sin Postgres se omite el bootstrap.
type AdminStore interface {
	// Ensure crea la cuenta si no existe, o la promueve a admin si existe.
	// Retorna true si la creó.
	Ensure(ctx context.Context, email, passwordHash string) (bool, error)
}

// EnsureAdmin hashea la password y delega el upsert. Idempotente: correrlo
// en cada arranque deja exactamente una cuenta admin con esas credenciales.
func EnsureAdmin(ctx context.Context, store AdminStore, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return fmt.Errorf("bootstrap: email y password son requeridos")
	}
	if len(password) < 10 {
		return fmt.Errorf("bootstrap: password demasiado corta (mínimo 10)")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bootstrap: hash password: %w", err)
	}

	created, err := store.Ensure(ctx, email, string(hash))
	if err != nil {
		return fmt.Errorf("bootstrap: ensure admin: %w", err)
	}

	if created {
		logger.From(ctx).Info("admin user created", logger.Component("bootstrap"), logger.String("email", email))
	} else {
		logger.From(ctx).Info("admin user already present, promoted", logger.Component("bootstrap"), logger.String("email", email))
	}
	return nil
}
