package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddStockRequest body para POST /api/stock.
type AddStockRequest struct {
	SKU          string          `json:"sku"`
	LotNumber    string          `json:"lot_number"`
	ProductID    string          `json:"product_id,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Currency     string          `json:"currency"`
	Supplier     string          `json:"supplier,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	PerformedBy  string          `json:"performed_by,omitempty"`
}

// DeductStockRequest body para POST /api/stock/deduct.
type DeductStockRequest struct {
	SKU             string          `json:"sku"`
	LotNumber       string          `json:"lot_number"`
	TransactionType string          `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	ReferenceType   string          `json:"reference_type,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	PerformedBy     string          `json:"performed_by,omitempty"`
}

// AdjustStockRequest body para POST /api/stock/adjust y POST /api/lots/:id/adjust.
type AdjustStockRequest struct {
	SKU         string          `json:"sku,omitempty"`
	LotNumber   string          `json:"lot_number,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Notes       string          `json:"notes,omitempty"`
	PerformedBy string          `json:"performed_by,omitempty"`
}

// BalanceResponse saldo total de un SKU.
type BalanceResponse struct {
	SKU     string          `json:"sku"`
	Balance decimal.Decimal `json:"balance"`
}

// LotBalanceDTO saldo derivado de un lote.
type LotBalanceDTO struct {
	LotNumber string          `json:"lot_number"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransactionIndexResponse posición de una transacción en el listado descendente.
type TransactionIndexResponse struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}
