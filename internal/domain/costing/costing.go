// Package costing implementa el motor de costos: conversión de monedas con una
// foto explícita de tasas y cálculo de costos unitarios (servicio de dominio).
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// Convert convierte un monto entre monedas usando la foto de tasas dada.
// Las tasas se expresan relativas a la moneda ancla (TRY = 1):
// resultado = amount * rates[from] / rates[to]. Identidad si from == to.
// Devuelve ErrRateUnavailable si falta una tasa necesaria; la política de
// fallback la decide cada caller, nunca este paquete.
func Convert(amount decimal.Decimal, from, to string, snapshot entity.RateSnapshot) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate, ok := snapshot.Rate(from)
	if !ok || fromRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrRateUnavailable
	}
	toRate, ok := snapshot.Rate(to)
	if !ok || toRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrRateUnavailable
	}
	return amount.Mul(fromRate).Div(toRate), nil
}

// UnitCost calcula el costo por unidad. Cantidad <= 0 devuelve 0 por política
// explícita (no es un error): una tanda sin producción no tiene costo unitario.
func UnitCost(totalCost, quantity decimal.Decimal) decimal.Decimal {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return totalCost.Div(quantity)
}

// IngredientPrice es el precio de una materia prima en su moneda original.
type IngredientPrice struct {
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	Currency     string
}

// RecipeUnitCost suma el costo de los ingredientes de una unidad producida,
// convertido a la moneda de reporte. Un ingrediente sin tasa disponible
// propaga ErrRateUnavailable; el caller decide si aborta o usa tasas por defecto.
func RecipeUnitCost(ingredients []IngredientPrice, reportCurrency string, snapshot entity.RateSnapshot) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, ing := range ingredients {
		price, err := Convert(ing.PricePerUnit, ing.Currency, reportCurrency, snapshot)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(ing.Quantity.Mul(price))
	}
	return total, nil
}
