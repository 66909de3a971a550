// Package otp implementa el Code Issuer: emisión, validación y expiración de
// códigos one-time por (subject, purpose).
//
// Invariante central: a lo sumo UN código vigente (no consumido, no vencido)
// por par (subject_id, purpose). Emitir de nuevo supersede al anterior.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Purpose enumera los propósitos soportados para un código.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

// Valid reporta si el propósito es uno de los conocidos.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeEmailVerification, PurposePasswordReset:
		return true
	}
	return false
}

func (p Purpose) String() string { return string(p) }

// ParsePurpose convierte el string del wire al enum.
func ParsePurpose(s string) (Purpose, error) {
	p := Purpose(s)
	if !p.Valid() {
		return "", fmt.Errorf("otp: purpose desconocido %q", s)
	}
	return p, nil
}

// CodeLength es el ancho fijo del código numérico.
const CodeLength = 6

// DefaultTTL es la política fija de vigencia de un código.
const DefaultTTL = 10 * time.Minute

// Code es un código one-time emitido para un subject+purpose.
type Code struct {
	SubjectID string
	Purpose   Purpose
	Code      string // numérico de ancho fijo, zero-padded
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// Expired reporta si el código está vencido respecto de now.
func (c *Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Reason clasifica una validación rechazada.
type Reason string

const (
	// ReasonExpired: el código coincide pero ya venció. Resultado esperado,
	// no excepcional.
	ReasonExpired Reason = "EXPIRED"
	// ReasonMismatch: el código no coincide, no existe, o ya fue consumido.
	ReasonMismatch Reason = "MISMATCH"
)

// Result es el resultado de una validación.
type Result struct {
	Accepted bool
	Reason   Reason // vacío cuando Accepted
}

var (
	// ErrInvalidPurpose se retorna ante un propósito fuera del enum.
	ErrInvalidPurpose = errors.New("otp: invalid purpose")
	// ErrInvalidSubject se retorna ante un subject vacío.
	ErrInvalidSubject = errors.New("otp: empty subject id")
)

// generateCode produce un código numérico uniforme de CodeLength dígitos
// usando crypto/rand. Nunca derivado del tiempo ni secuencial.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}
