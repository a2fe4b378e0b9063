package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Conflictos "ya atendido": el caller puede tratarlos como éxito idempotente.
	ErrAlreadyProcessed = &conflictError{msg: "la referencia ya fue procesada"}
	ErrAlreadyCancelled = &conflictError{msg: "el movimiento ya estaba eliminado"}
	ErrShiftAlreadyOpen = &conflictError{msg: "el usuario ya tiene un turno abierto"}
	ErrShiftClosed      = &conflictError{msg: "el turno ya está cerrado"}
)

// conflictError es un conflicto específico que además responde a errors.Is(err, ErrConflict).
type conflictError struct {
	msg string
}

func (e *conflictError) Error() string { return e.msg }

func (e *conflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError rechazo previo a cualquier escritura; nombra el campo ofensor.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError construye un error de validación para un campo.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// IsAlreadyHandled indica si el error es un conflicto "ya atendido" (éxito si es idempotente).
func IsAlreadyHandled(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed) || errors.Is(err, ErrAlreadyCancelled)
}
