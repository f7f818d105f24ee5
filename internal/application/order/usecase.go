// Package order implementa la máquina de estados de pedidos: asignación de
// lotes al aceptar, descuento de stock al preparar o enviar, envíos parciales y
// cancelación con devolución del remanente no enviado.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/application/allocation"
	batchuc "github.com/jhoicas/produccion-api/internal/application/batch"
	"github.com/jhoicas/produccion-api/internal/application/ports"
	"github.com/jhoicas/produccion-api/internal/application/sanitize"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
	"github.com/jhoicas/produccion-api/pkg/logger"
	"github.com/jhoicas/produccion-api/pkg/natural"
)

// Projector recalcula la proyección de inventario de un producto.
type Projector interface {
	Recompute(ctx context.Context, productID string) error
}

// statusRank ordena la progresión normal de estados; cancelled va aparte.
var statusRank = map[string]int{
	entity.OrderStatusPending:  0,
	entity.OrderStatusApproved: 1,
	entity.OrderStatusPlanned:  2,
	entity.OrderStatusReady:    3,
	entity.OrderStatusShipped:  4,
}

// patchTable repara los enums de entrada una sola vez, en la frontera.
var patchTable = sanitize.Table{
	"status": {Allowed: []string{
		entity.OrderStatusPending,
		entity.OrderStatusApproved,
		entity.OrderStatusPlanned,
		entity.OrderStatusReady,
		entity.OrderStatusShipped,
		entity.OrderStatusCancelled,
	}},
	"fulfillmentMethod": {
		Allowed: []string{entity.FulfillStock, entity.FulfillProduction, entity.FulfillMixed},
		Default: entity.FulfillStock,
	},
}

// UseCase agrupa las operaciones sobre pedidos.
type UseCase struct {
	orders    repository.OrderRepository
	recipes   repository.RecipeRepository
	engine    *allocation.Engine
	batches   *batchuc.UseCase
	projector Projector
	notifier  ports.Notifier
	log       *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	orders repository.OrderRepository,
	recipes repository.RecipeRepository,
	engine *allocation.Engine,
	batches *batchuc.UseCase,
	projector Projector,
	notifier ports.Notifier,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		orders:    orders,
		recipes:   recipes,
		engine:    engine,
		batches:   batches,
		projector: projector,
		notifier:  notifier,
		log:       log,
	}
}

// CreateInput son los datos de alta de un pedido.
type CreateInput struct {
	OrderNumber       string
	RecipeCode        string
	Quantity          decimal.Decimal
	Unit              string
	CustomerName      string
	CustomerContact   string
	FulfillmentMethod string
	// Selección manual de lotes; vacía = FIFO automático.
	ManualSelection []entity.LotSelection
	Notes           string
	CreatedBy       string
}

// Create da de alta un pedido en pending y asigna lotes según el método de
// cumplimiento: stock exige cubrir todo con lotes existentes, production
// programa una tanda por el total, mixed asigna lo que hay y programa una tanda
// por el resto. La asignación solo queda registrada en el pedido (reserva
// consultiva); el stock se descuenta al preparar o enviar.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.Order, error) {
	if in.OrderNumber == "" || in.RecipeCode == "" || in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	recipe, err := uc.recipes.GetByCode(ctx, in.RecipeCode)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, domain.ErrNotFound
	}

	clean, repaired := patchTable.Apply(map[string]string{"fulfillmentMethod": in.FulfillmentMethod})
	if len(repaired) > 0 {
		uc.log.Warn().Str("order", in.OrderNumber).Str("method", in.FulfillmentMethod).Msg("método de cumplimiento inválido, se usa stock")
	}
	method := clean["fulfillmentMethod"]

	now := time.Now()
	order := &entity.Order{
		ID:                uuid.New().String(),
		OrderNumber:       natural.Key(in.OrderNumber),
		RecipeID:          recipe.ID,
		ProductSKU:        recipe.SKU(),
		CustomerName:      in.CustomerName,
		CustomerContact:   in.CustomerContact,
		Quantity:          in.Quantity,
		RemainingQuantity: in.Quantity,
		Unit:              in.Unit,
		Status:            entity.OrderStatusPending,
		FulfillmentMethod: method,
		FulfillmentStatus: entity.FulfillmentUnfulfilled,
		Notes:             in.Notes,
		CreatedBy:         in.CreatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	switch method {
	case entity.FulfillStock:
		plan, err := uc.planAllocation(ctx, recipe, in.Quantity, in.ManualSelection)
		if err != nil {
			return nil, err
		}
		order.LotAllocations = plan.Lines

	case entity.FulfillProduction:
		order.ProductionQuantity = in.Quantity

	case entity.FulfillMixed:
		plan, shortfall, err := uc.planBestEffort(ctx, recipe, in.Quantity, in.ManualSelection)
		if err != nil {
			return nil, err
		}
		order.LotAllocations = plan
		order.ProductionQuantity = shortfall
	}

	// Primero el pedido: un número duplicado corta antes de programar la tanda.
	if err := uc.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if order.ProductionQuantity.GreaterThan(decimal.Zero) {
		batch, err := uc.scheduleProduction(ctx, order, recipe)
		if err != nil {
			return nil, err
		}
		order.ProductionBatch = batch.BatchNumber
		order.UpdatedAt = time.Now()
		if err := uc.orders.Update(ctx, order); err != nil {
			return nil, err
		}
	}
	uc.notifier.Publish("order.created", order)
	return order, nil
}

// planAllocation planifica la asignación completa, manual o FIFO.
func (uc *UseCase) planAllocation(ctx context.Context, recipe *entity.Recipe, required decimal.Decimal, manual []entity.LotSelection) (*allocation.Plan, error) {
	if len(manual) > 0 {
		plan, err := uc.engine.PlanManual(ctx, recipe.ID, recipe.SKU(), manual)
		if err != nil {
			return nil, err
		}
		if plan.TotalAllocated().GreaterThan(required) {
			return nil, domain.ErrInvalidInput
		}
		if plan.TotalAllocated().LessThan(required) {
			return nil, domain.NewInsufficientStock(recipe.SKU(), required, plan.TotalAllocated())
		}
		return plan, nil
	}
	return uc.engine.PlanFIFO(ctx, recipe.ID, recipe.SKU(), required)
}

// planBestEffort asigna lo que el stock permite y devuelve el faltante que debe
// cubrirse con producción nueva (cumplimiento mixto).
func (uc *UseCase) planBestEffort(ctx context.Context, recipe *entity.Recipe, required decimal.Decimal, manual []entity.LotSelection) ([]entity.LotAllocation, decimal.Decimal, error) {
	if len(manual) > 0 {
		plan, err := uc.engine.PlanManual(ctx, recipe.ID, recipe.SKU(), manual)
		if err != nil {
			return nil, decimal.Zero, err
		}
		shortfall := required.Sub(plan.TotalAllocated())
		if shortfall.IsNegative() {
			return nil, decimal.Zero, domain.ErrInvalidInput
		}
		return plan.Lines, shortfall, nil
	}

	plan, err := uc.engine.PlanFIFO(ctx, recipe.ID, recipe.SKU(), required)
	if err == nil {
		return plan.Lines, decimal.Zero, nil
	}
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		return nil, decimal.Zero, err
	}
	available := required.Sub(insufficient.Shortfall)
	if available.LessThanOrEqual(decimal.Zero) {
		return nil, required, nil
	}
	partial, err := uc.engine.PlanFIFO(ctx, recipe.ID, recipe.SKU(), available)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return partial.Lines, insufficient.Shortfall, nil
}

// scheduleProduction programa la tanda planned que cubre la cantidad a producir.
func (uc *UseCase) scheduleProduction(ctx context.Context, order *entity.Order, recipe *entity.Recipe) (*entity.Batch, error) {
	return uc.batches.Create(ctx, batchuc.CreateInput{
		BatchNumber: order.OrderNumber + "-PROD",
		RecipeCode:  recipe.Code,
		Quantity:    order.ProductionQuantity,
		Unit:        order.Unit,
		Notes:       "producción programada para el pedido " + order.OrderNumber,
		CreatedBy:   order.CreatedBy,
	})
}

// AllocateLots reemplaza la asignación del pedido por una selección manual.
// Solo antes de preparar el stock (pending, approved o planned).
func (uc *UseCase) AllocateLots(ctx context.Context, orderNumber string, selections []entity.LotSelection) (*entity.Order, error) {
	order, err := uc.getByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case entity.OrderStatusPending, entity.OrderStatusApproved, entity.OrderStatusPlanned:
	default:
		return nil, domain.ErrConflict
	}

	plan, err := uc.engine.PlanManual(ctx, order.RecipeID, order.ProductSKU, selections)
	if err != nil {
		return nil, err
	}
	if plan.TotalAllocated().GreaterThan(order.Quantity) {
		return nil, domain.ErrInvalidInput
	}

	order.LotAllocations = plan.Lines
	order.UpdatedAt = time.Now()
	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	uc.notifier.Publish("order.allocated", order)
	return order, nil
}

// UpdateStatusInput acompaña un cambio de estado.
type UpdateStatusInput struct {
	Status      string
	PerformedBy string
	Reason      string
}

// UpdateStatus mueve el pedido por la progresión pending → approved → planned →
// ready → shipped; cualquier estado no enviado admite cancelled. La transición a
// ready descuenta del stock la asignación completa aún no enviada (las entradas
// sale quedan referidas al pedido); ready → shipped es solo contable, el stock
// ya salió. Un salto hacia atrás o un shipped sin pasar por ready es ErrConflict.
func (uc *UseCase) UpdateStatus(ctx context.Context, orderNumber string, in UpdateStatusInput) (*entity.Order, error) {
	order, err := uc.getByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	clean, repaired := patchTable.Apply(map[string]string{"status": in.Status})
	if len(repaired) > 0 {
		uc.log.Warn().Str("order", order.OrderNumber).Str("status", in.Status).Msg("estado inválido descartado")
		return nil, domain.ErrInvalidInput
	}
	target := clean["status"]
	if target == order.Status {
		return order, nil
	}

	if target == entity.OrderStatusCancelled {
		return uc.cancel(ctx, order, in)
	}
	if order.Status == entity.OrderStatusCancelled || order.Status == entity.OrderStatusShipped {
		return nil, domain.ErrConflict
	}
	if statusRank[target] != statusRank[order.Status]+1 {
		return nil, domain.ErrConflict
	}

	switch target {
	case entity.OrderStatusReady:
		if err := uc.deductForReady(ctx, order, in.PerformedBy); err != nil {
			return nil, err
		}
	case entity.OrderStatusShipped:
		// El stock salió al preparar; acá solo se cierra la contabilidad.
		if !order.StockDeducted {
			return nil, domain.ErrConflict
		}
		order.ShippedQuantity = order.Quantity
		order.RemainingQuantity = decimal.Zero
		order.FulfillmentStatus = entity.FulfillmentFulfilled
	}

	order.Status = target
	order.UpdatedAt = time.Now()
	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	uc.notifier.Publish("order.status_changed", order)
	return order, nil
}

// deductForReady confirma el descuento de la asignación aún no enviada.
func (uc *UseCase) deductForReady(ctx context.Context, order *entity.Order, performedBy string) error {
	lines := order.UnshippedAllocations()
	if len(lines) == 0 {
		if order.AllocatedQuantity().IsZero() && order.ProductionQuantity.IsZero() {
			return domain.ErrConflict
		}
		order.StockDeducted = true
		return nil
	}
	plan := &allocation.Plan{
		ProductID: order.RecipeID,
		SKU:       order.ProductSKU,
		Lines:     lines,
	}
	err := uc.engine.CommitDeduction(ctx, plan, allocation.Reference{
		TxType:          entity.TxTypeSale,
		ReferenceType:   entity.RefTypeOrder,
		ReferenceNumber: order.OrderNumber,
		PerformedBy:     performedBy,
		Notes:           "preparación del pedido " + order.OrderNumber,
	})
	if err != nil {
		return err
	}
	order.StockDeducted = true
	if err := uc.projector.Recompute(ctx, order.RecipeID); err != nil {
		uc.log.Warn().Err(err).Str("product", order.RecipeID).Msg("no se pudo recalcular inventario")
	}
	return nil
}

// cancel marca el pedido cancelado y devuelve al stock el remanente descontado
// pero no enviado. Lo ya enviado nunca se acredita de vuelta: devolver la
// asignación completa inflaría el stock con cantidad que salió físicamente.
func (uc *UseCase) cancel(ctx context.Context, order *entity.Order, in UpdateStatusInput) (*entity.Order, error) {
	if order.Status == entity.OrderStatusShipped || order.Status == entity.OrderStatusCancelled {
		return nil, domain.ErrConflict
	}

	if order.StockDeducted {
		remainder := order.UnshippedAllocations()
		if len(remainder) > 0 {
			plan := &allocation.Plan{
				ProductID: order.RecipeID,
				SKU:       order.ProductSKU,
				Lines:     remainder,
			}
			err := uc.engine.CommitReturn(ctx, plan, allocation.Reference{
				TxType:          entity.TxTypeReturn,
				ReferenceType:   entity.RefTypeOrder,
				ReferenceNumber: order.OrderNumber,
				PerformedBy:     in.PerformedBy,
				Notes:           "devolución por cancelación del pedido " + order.OrderNumber,
			})
			if err != nil {
				return nil, err
			}
			if err := uc.projector.Recompute(ctx, order.RecipeID); err != nil {
				uc.log.Warn().Err(err).Str("product", order.RecipeID).Msg("no se pudo recalcular inventario")
			}
		}
	}

	order.Status = entity.OrderStatusCancelled
	if in.Reason != "" {
		if order.Notes != "" {
			order.Notes += "\n"
		}
		order.Notes += "cancelado: " + in.Reason
	}
	order.UpdatedAt = time.Now()
	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	uc.notifier.Publish("order.cancelled", order)
	return order, nil
}

// ShipPartialInput es un envío parcial: las líneas de lote que salen ahora.
type ShipPartialInput struct {
	Lines     []entity.LotSelection
	ShippedBy string
}

// ShipPartial envía una parte del pedido. Las líneas deben ser subconjunto del
// remanente no enviado de la asignación. Antes de ready cada envío descuenta sus
// líneas del stock; desde ready el stock ya salió al preparar y el envío solo
// lleva la contabilidad. El pedido queda shipped cuando el restante entra en la
// tolerancia de cero.
func (uc *UseCase) ShipPartial(ctx context.Context, orderNumber string, in ShipPartialInput) (*entity.Order, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	order, err := uc.getByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case entity.OrderStatusApproved, entity.OrderStatusPlanned, entity.OrderStatusReady:
	default:
		return nil, domain.ErrConflict
	}

	unshipped := make(map[string]entity.LotAllocation)
	for _, line := range order.UnshippedAllocations() {
		unshipped[line.LotNumber] = line
	}

	var shipmentLines []entity.LotAllocation
	total := decimal.Zero
	for _, sel := range in.Lines {
		if sel.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		lotNumber := natural.Key(sel.LotNumber)
		allocated, ok := unshipped[lotNumber]
		if !ok || allocated.Quantity.LessThan(sel.Quantity) {
			return nil, &domain.InsufficientQuantityError{
				LotNumber: lotNumber,
				Requested: sel.Quantity,
				Available: allocated.Quantity,
			}
		}
		shipmentLines = append(shipmentLines, entity.LotAllocation{
			LotID:     allocated.LotID,
			LotNumber: lotNumber,
			Quantity:  sel.Quantity,
			UnitCost:  allocated.UnitCost,
		})
		total = total.Add(sel.Quantity)
	}

	if !order.StockDeducted {
		plan := &allocation.Plan{
			ProductID: order.RecipeID,
			SKU:       order.ProductSKU,
			Lines:     shipmentLines,
		}
		err := uc.engine.CommitDeduction(ctx, plan, allocation.Reference{
			TxType:          entity.TxTypeSale,
			ReferenceType:   entity.RefTypeOrder,
			ReferenceNumber: order.OrderNumber,
			PerformedBy:     in.ShippedBy,
			Notes:           "envío parcial del pedido " + order.OrderNumber,
		})
		if err != nil {
			return nil, err
		}
		if err := uc.projector.Recompute(ctx, order.RecipeID); err != nil {
			uc.log.Warn().Err(err).Str("product", order.RecipeID).Msg("no se pudo recalcular inventario")
		}
	}

	now := time.Now()
	order.PartialShipments = append(order.PartialShipments, entity.PartialShipment{
		Quantity:  total,
		Lots:      shipmentLines,
		ShippedBy: in.ShippedBy,
		ShippedAt: now,
	})
	order.ShippedQuantity = order.ShippedQuantity.Add(total)
	order.RemainingQuantity = order.Quantity.Sub(order.ShippedQuantity)

	if order.RemainingQuantity.Abs().LessThanOrEqual(entity.ShipmentEpsilon) {
		order.RemainingQuantity = decimal.Zero
		order.Status = entity.OrderStatusShipped
		order.FulfillmentStatus = entity.FulfillmentFulfilled
	} else {
		order.FulfillmentStatus = entity.FulfillmentPartiallyFulfilled
	}
	order.UpdatedAt = now

	if err := uc.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	uc.notifier.Publish("order.shipped_partial", order)
	return order, nil
}

// GetByNumber devuelve un pedido por su clave natural.
func (uc *UseCase) GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	return uc.getByNumber(ctx, orderNumber)
}

func (uc *UseCase) getByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	order, err := uc.orders.GetByNumber(ctx, natural.Key(orderNumber))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// List pagina los pedidos.
func (uc *UseCase) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	return uc.orders.List(ctx, limit, offset)
}

// ListByLot devuelve los pedidos que tienen asignado el lote dado.
func (uc *UseCase) ListByLot(ctx context.Context, lotNumber string) ([]*entity.Order, error) {
	return uc.orders.ListByLot(ctx, natural.Key(lotNumber))
}
