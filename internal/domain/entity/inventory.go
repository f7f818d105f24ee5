package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory es la proyección desnormalizada del stock total de un producto,
// recalculada a partir de sus lotes no agotados. Eventualmente consistente;
// la fuente de verdad es el ledger.
type Inventory struct {
	ID          string
	ProductID   string
	Name        string
	Stock       decimal.Decimal
	LastUpdated time.Time
}
