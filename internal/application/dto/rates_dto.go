package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RatesResponse respuesta de GET /api/exchange-rates.
type RatesResponse struct {
	Rates     map[string]decimal.Decimal `json:"rates"`
	Fallback  bool                       `json:"fallback"`
	FetchedAt time.Time                  `json:"fetched_at"`
}
