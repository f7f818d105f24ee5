package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe es la receta de un producto terminado: lista de ingredientes por unidad
// producida. Code actúa como SKU del producto terminado en el ledger.
type Recipe struct {
	ID          string
	Name        string
	Code        string // SKU del producto terminado
	BatchSize   decimal.Decimal
	TotalCost   decimal.Decimal // costo de una tanda de BatchSize unidades (USD)
	CostPerUnit decimal.Decimal // derivado: TotalCost / BatchSize
	Ingredients []Ingredient
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ingredient es una línea de receta: cantidad de materia prima por unidad producida.
type Ingredient struct {
	RawMaterialID string
	Quantity      decimal.Decimal
	Unit          string
}

// SKU devuelve la clave del producto en el ledger: el código si existe, si no el nombre.
func (r *Recipe) SKU() string {
	if r.Code != "" {
		return r.Code
	}
	return r.Name
}
