package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un lote. depleted y expired son derivados, no autoritativos:
// se recalculan en Normalize a partir de cantidad y fecha de caducidad.
const (
	LotStatusAvailable = "available"
	LotStatusReserved  = "reserved"
	LotStatusDepleted  = "depleted"
	LotStatusExpired   = "expired"
	LotStatusRecalled  = "recalled"
)

// Resultados de control de calidad de un lote.
const (
	QualityPending = "pending"
	QualityPassed  = "passed"
	QualityFailed  = "failed"
)

// Lot es una unidad trazable de producto o material producida en un momento dado,
// con su propia caducidad y costo. Invariante: 0 <= CurrentQuantity <= InitialQuantity.
// Para lotes alimentados por el ledger, CurrentQuantity debe coincidir con el saldo
// derivado del ledger para (SKU, lote); el barrido de conciliación corrige la deriva.
type Lot struct {
	ID                 string
	LotNumber          string // clave natural única
	ProductID          string
	BatchID            string // vacío para lotes de material comprado
	SKU                string
	ProductionDate     time.Time
	ExpiryDate         time.Time
	InitialQuantity    decimal.Decimal
	CurrentQuantity    decimal.Decimal
	Unit               string
	UnitCost           decimal.Decimal
	TotalCost          decimal.Decimal
	Status             string
	QualityCheckResult string
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Normalize deriva el estado a partir de cantidad y caducidad.
// currentQuantity <= 0 => depleted; expiryDate < now => expired (salvo recalled).
func (l *Lot) Normalize(now time.Time) {
	if l.Status == LotStatusRecalled {
		return
	}
	if l.CurrentQuantity.LessThanOrEqual(decimal.Zero) {
		l.Status = LotStatusDepleted
		return
	}
	if !l.ExpiryDate.IsZero() && l.ExpiryDate.Before(now) {
		l.Status = LotStatusExpired
		return
	}
	if l.Status == LotStatusDepleted || l.Status == LotStatusExpired {
		l.Status = LotStatusAvailable
	}
}

// QuantityUsed devuelve la cantidad consumida desde la creación del lote.
func (l *Lot) QuantityUsed() decimal.Decimal {
	return l.InitialQuantity.Sub(l.CurrentQuantity)
}
