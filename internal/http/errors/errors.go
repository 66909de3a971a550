// Package errors define el envelope estándar de errores de la API.
package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Error original (causa), útil para logs, no se expone al cliente
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// WithDetail agrega detalle al error. Devuelve una COPIA para no mutar las
// variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original (causa). Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

var (
	ErrBadRequest   = New(http.StatusBadRequest, "bad_request", "invalid request")
	ErrUnauthorized = New(http.StatusUnauthorized, "unauthorized", "missing or invalid service token")
	ErrRateLimited  = New(http.StatusTooManyRequests, "rate_limited", "too many requests")
	ErrInternal     = New(http.StatusInternalServerError, "internal_error", "internal server error")

	// Taxonomía propia del engine. TEMPLATE_ERROR es bug del caller (422);
	// DELIVERY_FAILURE es transitorio (502).
	ErrTemplate = New(http.StatusUnprocessableEntity, "TEMPLATE_ERROR", "event payload does not satisfy the template contract")
	ErrDelivery = New(http.StatusBadGateway, "DELIVERY_FAILURE", "mail transport failed")
)
