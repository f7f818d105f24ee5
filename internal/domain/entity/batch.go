package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una tanda de producción (batch). Progresión hacia adelante;
// no hay transición definida hacia atrás.
const (
	BatchStatusPlanned      = "planned"
	BatchStatusInProgress   = "in_progress"
	BatchStatusCompleted    = "completed"
	BatchStatusQualityCheck = "quality_check"
	BatchStatusApproved     = "approved"
	BatchStatusRejected     = "rejected"
	BatchStatusShipped      = "shipped"
)

// Batch representa una tanda de producción de una receta.
// ActualQuantity y Wastage se fijan al completar la producción.
type Batch struct {
	ID             string
	BatchNumber    string // clave natural única; el lote resultante la hereda
	RecipeID       string
	ProductSKU     string
	Quantity       decimal.Decimal
	ActualQuantity decimal.Decimal
	Wastage        decimal.Decimal
	Unit           string
	Status         string
	TotalCost      decimal.Decimal
	Currency       string
	ProductionDate time.Time
	// Selección explícita de lotes por SKU de materia prima; vacío = FIFO automático.
	RawMaterialLots map[string][]LotSelection

	QualityCheckResult string
	QualityCheckedBy   string
	QualityCheckedAt   time.Time
	QualityCheckNotes  string

	Notes     string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LotSelection es una línea de selección manual de lote: cuánto tomar de qué lote.
type LotSelection struct {
	LotNumber string          `json:"lotNumber"`
	Quantity  decimal.Decimal `json:"quantity"`
}
