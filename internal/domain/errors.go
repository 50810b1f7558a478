package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("no encontrado")
	ErrValidation = errors.New("validación")
	// ErrDisabled marca una función apagada por configuración.
	ErrDisabled = errors.New("deshabilitado")
)

// ValidationError rechaza una operación que rompería un invariante del modelo.
// El modelo queda sin cambios.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

type DuplicateAttributeError struct {
	Name string
}

func (e *DuplicateAttributeError) Error() string {
	return fmt.Sprintf("atributo duplicado: %q", e.Name)
}

func (e *DuplicateAttributeError) Is(target error) bool { return target == ErrValidation }

// MissingPrimaryWarning no es fatal: el envío sigue pero sin imágenes.
type MissingPrimaryWarning struct {
	Reason string
}

func (e *MissingPrimaryWarning) Error() string {
	return "sin atributo principal: " + e.Reason
}

// ReconciliationMismatchError aborta el envío completo; no se manda payload parcial.
type ReconciliationMismatchError struct {
	Attribute string
	Reason    string
}

func (e *ReconciliationMismatchError) Error() string {
	return fmt.Sprintf("no se pudo reconciliar %q: %s", e.Attribute, e.Reason)
}

// TransportError envuelve fallas del backend remoto de forma opaca.
type TransportError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }
