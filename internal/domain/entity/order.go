package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pedido.
const (
	OrderStatusPending   = "pending"
	OrderStatusApproved  = "approved"
	OrderStatusPlanned   = "planned"
	OrderStatusReady     = "ready"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

// Métodos de cumplimiento de un pedido.
const (
	FulfillStock      = "stock"      // todo desde lotes existentes
	FulfillProduction = "production" // todo con producción nueva
	FulfillMixed      = "mixed"      // parte stock, parte producción
)

// Estado de cumplimiento derivado de los envíos parciales.
const (
	FulfillmentUnfulfilled        = "unfulfilled"
	FulfillmentPartiallyFulfilled = "partially_fulfilled"
	FulfillmentFulfilled          = "fulfilled"
)

// ShipmentEpsilon: el pedido se considera enviado cuando la cantidad restante
// queda dentro de esta tolerancia de cero.
var ShipmentEpsilon = decimal.NewFromFloat(0.01)

// LotAllocation es una línea de asignación: cantidad reservada de un lote concreto.
type LotAllocation struct {
	LotID     string          `json:"lotId"`
	LotNumber string          `json:"lotNumber"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// PartialShipment registra un envío parcial ya comprometido contra el ledger.
type PartialShipment struct {
	Quantity  decimal.Decimal `json:"quantity"`
	Lots      []LotAllocation `json:"lots"`
	ShippedBy string          `json:"shippedBy"`
	ShippedAt time.Time       `json:"shippedAt"`
}

// Order es un pedido de cliente. La asignación de lotes ocurre al aceptar el
// pedido (reserva); el descuento contra el ledger ocurre al enviar.
// Invariantes: sum(LotAllocations.Quantity) <= Quantity;
// ShippedQuantity + RemainingQuantity == Quantity una vez iniciado el envío.
type Order struct {
	ID                string
	OrderNumber       string // clave natural única
	RecipeID          string
	ProductSKU        string
	CustomerName      string
	CustomerContact   string
	Quantity          decimal.Decimal
	ShippedQuantity   decimal.Decimal
	RemainingQuantity decimal.Decimal
	Unit              string
	Status            string
	FulfillmentMethod string
	FulfillmentStatus string
	LotAllocations    []LotAllocation
	PartialShipments  []PartialShipment
	// Cantidad que quedó pendiente de stock y se programó como producción nueva
	// (solo con FulfillmentMethod = mixed o production).
	ProductionQuantity decimal.Decimal
	// ProductionBatch es el batchNumber de la tanda programada para ProductionQuantity.
	ProductionBatch string
	// StockDeducted indica que la asignación completa ya fue descontada del stock
	// (transición a ready); los envíos posteriores solo llevan la contabilidad.
	StockDeducted bool

	Notes     string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllocatedQuantity suma las líneas de asignación registradas.
func (o *Order) AllocatedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, a := range o.LotAllocations {
		total = total.Add(a.Quantity)
	}
	return total
}

// UnshippedAllocations devuelve, por lote, la asignación que aún no fue enviada:
// lo reservado menos lo ya comprometido en envíos parciales. Es lo único que debe
// devolverse al cancelar (devolver la asignación completa acreditaría de más el
// stock ya enviado físicamente).
func (o *Order) UnshippedAllocations() []LotAllocation {
	shipped := make(map[string]decimal.Decimal)
	for _, s := range o.PartialShipments {
		for _, line := range s.Lots {
			shipped[line.LotNumber] = shipped[line.LotNumber].Add(line.Quantity)
		}
	}
	var remaining []LotAllocation
	for _, a := range o.LotAllocations {
		left := a.Quantity.Sub(shipped[a.LotNumber])
		if left.GreaterThan(decimal.Zero) {
			remaining = append(remaining, LotAllocation{
				LotID:     a.LotID,
				LotNumber: a.LotNumber,
				Quantity:  left,
				UnitCost:  a.UnitCost,
			})
		}
	}
	return remaining
}
