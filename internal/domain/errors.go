package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNoApplicableLots  = errors.New("los lotes disponibles no cubren el stock registrado")
	ErrSequenceRace      = errors.New("colisión de consecutivo, reintente la operación")
)

// ValidationError describe un campo de entrada rechazado.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid construye un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError identifica el recurso que no existe.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound construye un NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError lleva la cantidad disponible para que el cliente la muestre.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en bodega %s: solicitado %d, disponible %d",
		e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NoApplicableLotsError indica que el stock agregado dice que hay unidades pero los lotes no las cubren.
// Es una falla de integridad, no un error del cliente.
type NoApplicableLotsError struct {
	ProductID   string
	WarehouseID string
	Requested   int64
	Missing     int64
}

func (e *NoApplicableLotsError) Error() string {
	return fmt.Sprintf("integridad de lotes: producto %s bodega %s, faltan %d de %d unidades",
		e.ProductID, e.WarehouseID, e.Missing, e.Requested)
}

func (e *NoApplicableLotsError) Unwrap() error { return ErrNoApplicableLots }

// ConflictError describe por qué la operación choca con el estado actual.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConflict.Error(), e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Conflict construye un ConflictError.
func Conflict(reason string) error {
	return &ConflictError{Reason: reason}
}
