package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawMaterial es una materia prima comprada. Su stock vive en el ledger por
// (SKU, lote); PricePerUnit y Currency son el último precio de compra conocido.
type RawMaterial struct {
	ID           string
	SKU          string
	Name         string
	Unit         string
	PricePerUnit decimal.Decimal
	Currency     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LedgerSKU devuelve la clave del material en el ledger: SKU si existe, si no el nombre.
func (m *RawMaterial) LedgerSKU() string {
	if m.SKU != "" {
		return m.SKU
	}
	return m.Name
}
