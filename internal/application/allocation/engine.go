// Package allocation implementa el motor de asignación de lotes: planificación
// FIFO o manual (solo lectura) y commit de descuentos/devoluciones contra el
// registro de lotes y el ledger en una misma transacción.
package allocation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
	"github.com/jhoicas/produccion-api/pkg/logger"
	"github.com/jhoicas/produccion-api/pkg/metrics"
)

// Plan es una propuesta de asignación aún no confirmada: qué cantidad tomar de
// qué lotes. Planificar nunca muta estado; el plan es consultivo hasta el commit.
type Plan struct {
	ProductID string
	SKU       string
	Required  decimal.Decimal
	Lines     []entity.LotAllocation
}

// TotalAllocated suma las líneas del plan.
func (p *Plan) TotalAllocated() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// Reference traza el origen de un commit: qué tipo de transacción de ledger
// genera y contra qué documento (tanda, pedido, ajuste).
type Reference struct {
	TxType          string // usage, sale, waste...; return en commits de devolución
	ReferenceType   string
	ReferenceNumber string
	PerformedBy     string
	Notes           string
}

// Engine es el motor de asignación. Los Plan* leen; los Commit* escriben dentro
// de la transacción que provee el TxRunner.
type Engine struct {
	lots     repository.LotRepository
	txRunner TxRunner
	log      *logger.Logger
}

// NewEngine construye el motor.
func NewEngine(lots repository.LotRepository, txRunner TxRunner, log *logger.Logger) *Engine {
	return &Engine{lots: lots, txRunner: txRunner, log: log}
}

// PlanFIFO selecciona lotes del producto en orden FIFO (el triple orden lo
// garantiza el repositorio) y toma de cada uno min(disponible, restante) hasta
// cubrir la cantidad requerida. Si los lotes se agotan antes, devuelve
// InsufficientStockError con el faltante y no propone nada.
func (e *Engine) PlanFIFO(ctx context.Context, productID, sku string, required decimal.Decimal) (*Plan, error) {
	if required.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	lots, err := e.lots.FindAvailableByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	plan := &Plan{ProductID: productID, SKU: sku, Required: required}
	remaining := required
	for _, lot := range lots {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		take := decimal.Min(lot.CurrentQuantity, remaining)
		plan.Lines = append(plan.Lines, entity.LotAllocation{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Quantity:  take,
			UnitCost:  lot.UnitCost,
		})
		remaining = remaining.Sub(take)
	}

	if remaining.GreaterThan(decimal.Zero) {
		metrics.AllocationFailures.WithLabelValues("insufficient_stock").Inc()
		return nil, domain.NewInsufficientStock(sku, required, required.Sub(remaining))
	}
	return plan, nil
}

// PlanManual valida una selección explícita de lotes: cada lote debe existir y
// tener al menos la cantidad pedida. Los errores se agregan; el caller decide si
// una selección parcial es aceptable (cumplimiento mixto) o no.
func (e *Engine) PlanManual(ctx context.Context, productID, sku string, selections []entity.LotSelection) (*Plan, error) {
	if len(selections) == 0 {
		return nil, domain.ErrInvalidInput
	}
	plan := &Plan{ProductID: productID, SKU: sku}
	for _, sel := range selections {
		if sel.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		lot, err := e.lots.GetByNumber(ctx, sel.LotNumber)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, domain.ErrNotFound
		}
		if lot.CurrentQuantity.LessThan(sel.Quantity) {
			metrics.AllocationFailures.WithLabelValues("manual_selection").Inc()
			return nil, &domain.InsufficientQuantityError{
				LotNumber: lot.LotNumber,
				Requested: sel.Quantity,
				Available: lot.CurrentQuantity,
			}
		}
		plan.Lines = append(plan.Lines, entity.LotAllocation{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Quantity:  sel.Quantity,
			UnitCost:  lot.UnitCost,
		})
		plan.Required = plan.Required.Add(sel.Quantity)
	}
	return plan, nil
}

// CommitDeduction confirma un plan: por cada línea relee el lote bajo bloqueo,
// verifica de nuevo la suficiencia (una carrera desde la planificación se
// convierte en InsufficientQuantityError y aborta la operación completa, sin
// replanificar), descuenta, marca depleted al llegar exactamente a cero y
// agrega la transacción decreciente al ledger con el saldo resultante.
func (e *Engine) CommitDeduction(ctx context.Context, plan *Plan, ref Reference) error {
	if plan == nil || len(plan.Lines) == 0 {
		return domain.ErrInvalidInput
	}
	txType := ref.TxType
	if txType == "" {
		txType = entity.TxTypeUsage
	}
	now := time.Now()

	err := e.txRunner.Run(ctx, func(lots repository.LotRepository, history repository.StockHistoryRepository) error {
		for _, line := range plan.Lines {
			lot, err := lots.GetByNumberForUpdate(ctx, line.LotNumber)
			if err != nil {
				return err
			}
			if lot == nil {
				return domain.ErrNotFound
			}
			if lot.CurrentQuantity.LessThan(line.Quantity) {
				metrics.AllocationFailures.WithLabelValues("commit_race").Inc()
				return &domain.InsufficientQuantityError{
					LotNumber: lot.LotNumber,
					Requested: line.Quantity,
					Available: lot.CurrentQuantity,
				}
			}

			lot.CurrentQuantity = lot.CurrentQuantity.Sub(line.Quantity)
			if lot.CurrentQuantity.LessThanOrEqual(decimal.Zero) {
				lot.Status = entity.LotStatusDepleted
			}
			lot.UpdatedAt = now
			if err := lots.Update(ctx, lot); err != nil {
				return err
			}

			tx := &entity.StockTransaction{
				ID:              uuid.New().String(),
				SKU:             lot.SKU,
				LotNumber:       lot.LotNumber,
				TransactionType: txType,
				Quantity:        line.Quantity,
				Unit:            lot.Unit,
				PricePerUnit:    lot.UnitCost,
				Currency:        entity.CurrencyUSD,
				TotalCost:       lot.UnitCost.Mul(line.Quantity),
				CurrentBalance:  lot.CurrentQuantity,
				ReferenceType:   ref.ReferenceType,
				ReferenceNumber: ref.ReferenceNumber,
				PerformedBy:     ref.PerformedBy,
				Notes:           ref.Notes,
				CreatedAt:       now,
			}
			if err := history.Create(ctx, tx); err != nil {
				return err
			}
			metrics.LedgerTransactions.WithLabelValues(txType).Inc()

			e.log.Debug().
				Str("lot", lot.LotNumber).
				Str("quantity", line.Quantity.String()).
				Str("balance", lot.CurrentQuantity.String()).
				Msg("descuento confirmado en lote")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// CommitReturn es el inverso del descuento: incrementa cada lote, agrega la
// transacción return al ledger y deja el estado en available sin importar el
// estado previo (un lote con devolución nunca queda depleted).
func (e *Engine) CommitReturn(ctx context.Context, plan *Plan, ref Reference) error {
	if plan == nil || len(plan.Lines) == 0 {
		return domain.ErrInvalidInput
	}
	now := time.Now()

	return e.txRunner.Run(ctx, func(lots repository.LotRepository, history repository.StockHistoryRepository) error {
		for _, line := range plan.Lines {
			lot, err := lots.GetByNumberForUpdate(ctx, line.LotNumber)
			if err != nil {
				return err
			}
			if lot == nil {
				// Lote borrado entre medio: se omite la línea, la conciliación lo detecta.
				e.log.Warn().Str("lot", line.LotNumber).Msg("lote no encontrado al devolver, línea omitida")
				continue
			}

			lot.CurrentQuantity = lot.CurrentQuantity.Add(line.Quantity)
			lot.Status = entity.LotStatusAvailable
			lot.UpdatedAt = now
			if err := lots.Update(ctx, lot); err != nil {
				return err
			}

			tx := &entity.StockTransaction{
				ID:              uuid.New().String(),
				SKU:             lot.SKU,
				LotNumber:       lot.LotNumber,
				TransactionType: entity.TxTypeReturn,
				Quantity:        line.Quantity,
				Unit:            lot.Unit,
				PricePerUnit:    lot.UnitCost,
				Currency:        entity.CurrencyUSD,
				TotalCost:       lot.UnitCost.Mul(line.Quantity),
				CurrentBalance:  lot.CurrentQuantity,
				ReferenceType:   ref.ReferenceType,
				ReferenceNumber: ref.ReferenceNumber,
				PerformedBy:     ref.PerformedBy,
				Notes:           ref.Notes,
				CreatedAt:       now,
			}
			if err := history.Create(ctx, tx); err != nil {
				return err
			}
			metrics.LedgerTransactions.WithLabelValues(entity.TxTypeReturn).Inc()
		}
		return nil
	})
}
