package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Monedas conocidas. TRY es la moneda ancla (tasa 1); USD es la moneda de
// reporte de costos de producción.
const (
	CurrencyTRY = "TRY"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
)

// RateSnapshot es una foto de tasas de cambio relativas a la moneda ancla,
// tomada una sola vez por operación lógica y pasada explícitamente a cualquier
// cálculo que la necesite (nunca se vuelve a consultar a mitad de operación).
type RateSnapshot struct {
	Rates     map[string]decimal.Decimal
	Fallback  bool // true si son tasas por defecto (el proveedor externo falló)
	FetchedAt time.Time
}

// Rate devuelve la tasa de una moneda y si está presente en la foto.
func (s RateSnapshot) Rate(currency string) (decimal.Decimal, bool) {
	r, ok := s.Rates[currency]
	return r, ok
}
