package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("clave natural duplicada")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrRateUnavailable = errors.New("tasa de cambio no disponible")
)

// InsufficientStockError indica que la asignación no puede satisfacerse con el
// stock disponible del producto o materia prima. Shortfall es la cantidad faltante.
type InsufficientStockError struct {
	SKU       string
	Required  decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	if e.SKU != "" {
		return fmt.Sprintf("stock insuficiente de %s: requerido %s, disponible %s", e.SKU, e.Required, e.Available)
	}
	return fmt.Sprintf("stock insuficiente: requerido %s, disponible %s", e.Required, e.Available)
}

// NewInsufficientStock construye el error calculando el faltante.
func NewInsufficientStock(sku string, required, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		SKU:       sku,
		Required:  required,
		Available: available,
		Shortfall: required.Sub(available),
	}
}

// InsufficientQuantityError indica que un lote concreto ya no tiene la cantidad
// planificada al momento del commit (carrera entre planificación y descuento).
type InsufficientQuantityError struct {
	LotNumber string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("cantidad insuficiente en lote %s: solicitado %s, disponible %s", e.LotNumber, e.Requested, e.Available)
}
