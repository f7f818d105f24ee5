package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción del historial de stock (ledger append-only).
const (
	TxTypePurchase   = "purchase"   // compra de materia prima
	TxTypeProduction = "production" // producto terminado de una tanda
	TxTypeUsage      = "usage"      // consumo en producción
	TxTypeSale       = "sale"       // salida por pedido/venta
	TxTypeReturn     = "return"     // devolución (pedido cancelado)
	TxTypeWaste      = "waste"      // merma
	TxTypeAdjustment = "adjustment" // ajuste manual (tratado como salida)
	TxTypeTransfer   = "transfer"   // traslado
)

// Tipos de referencia para trazar el origen de la transacción.
const (
	RefTypeBatch          = "batch"
	RefTypeOrder          = "order"
	RefTypePurchase       = "purchase"
	RefTypeAdjustment     = "adjustment"
	RefTypeReconciliation = "reconciliation"
)

// StockTransaction es una entrada inmutable del ledger de stock por (SKU, lote).
// CurrentBalance es el saldo del par (SKU, lote) después de aplicar esta transacción;
// el ledger es la fuente de verdad, cualquier saldo cacheado es una proyección.
type StockTransaction struct {
	ID              string
	SKU             string
	LotNumber       string
	TransactionType string
	Quantity        decimal.Decimal // siempre >= 0; el signo lo da el tipo
	Unit            string
	PricePerUnit    decimal.Decimal
	Currency        string
	TotalCost       decimal.Decimal
	CurrentBalance  decimal.Decimal
	ReferenceType   string
	ReferenceNumber string
	Supplier        string
	Notes           string
	PerformedBy     string
	CreatedAt       time.Time
}
