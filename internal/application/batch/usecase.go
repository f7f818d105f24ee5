// Package batch implementa la máquina de estados de tandas de producción:
// creación con costeo por receta, arranque con descuento de ingredientes y
// finalización con creación del lote de producto terminado.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/application/allocation"
	"github.com/jhoicas/produccion-api/internal/application/ports"
	"github.com/jhoicas/produccion-api/internal/application/sanitize"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/costing"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
	"github.com/jhoicas/produccion-api/pkg/logger"
	"github.com/jhoicas/produccion-api/pkg/metrics"
	"github.com/jhoicas/produccion-api/pkg/natural"
)

// Projector recalcula la proyección de inventario de un producto.
type Projector interface {
	Recompute(ctx context.Context, productID string) error
}

// Transiciones válidas de estado. Progresión hacia adelante; cualquier otro
// salto es ErrConflict.
var allowedTransitions = map[string][]string{
	entity.BatchStatusPlanned:      {entity.BatchStatusInProgress},
	entity.BatchStatusInProgress:   {entity.BatchStatusCompleted},
	entity.BatchStatusCompleted:    {entity.BatchStatusQualityCheck},
	entity.BatchStatusQualityCheck: {entity.BatchStatusApproved, entity.BatchStatusRejected},
	entity.BatchStatusApproved:     {entity.BatchStatusShipped},
}

// patchTable repara los enums de entrada una sola vez, en la frontera.
var patchTable = sanitize.Table{
	"status": {Allowed: []string{
		entity.BatchStatusPlanned,
		entity.BatchStatusInProgress,
		entity.BatchStatusCompleted,
		entity.BatchStatusQualityCheck,
		entity.BatchStatusApproved,
		entity.BatchStatusRejected,
		entity.BatchStatusShipped,
	}},
	"qualityCheckResult": {Allowed: []string{
		entity.QualityPending,
		entity.QualityPassed,
		entity.QualityFailed,
	}},
}

// UseCase agrupa las operaciones sobre tandas de producción.
type UseCase struct {
	batches   repository.BatchRepository
	recipes   repository.RecipeRepository
	materials repository.RawMaterialRepository
	engine    *allocation.Engine
	txRunner  allocation.TxRunner
	rates     ports.RateProvider
	projector Projector
	notifier  ports.Notifier
	log       *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	batches repository.BatchRepository,
	recipes repository.RecipeRepository,
	materials repository.RawMaterialRepository,
	engine *allocation.Engine,
	txRunner allocation.TxRunner,
	rates ports.RateProvider,
	projector Projector,
	notifier ports.Notifier,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		batches:   batches,
		recipes:   recipes,
		materials: materials,
		engine:    engine,
		txRunner:  txRunner,
		rates:     rates,
		projector: projector,
		notifier:  notifier,
		log:       log,
	}
}

// CreateInput son los datos de alta de una tanda.
type CreateInput struct {
	BatchNumber     string
	RecipeCode      string
	Quantity        decimal.Decimal
	Unit            string
	ProductionDate  time.Time
	RawMaterialLots map[string][]entity.LotSelection
	Notes           string
	CreatedBy       string
}

// Create da de alta una tanda en estado planned. El costo total se calcula en el
// momento con el roll-up de la receta: Σ cantidad de ingrediente × precio
// convertido a USD, con una sola foto de tasas para toda la operación.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.Batch, error) {
	if in.BatchNumber == "" || in.RecipeCode == "" || in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	recipe, err := uc.recipes.GetByCode(ctx, in.RecipeCode)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, domain.ErrNotFound
	}

	snapshot, err := uc.rates.GetRates(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot.Fallback {
		uc.log.Warn().Msg("costeo de tanda con tasas por defecto")
	}

	unitCost, err := uc.recipeUnitCost(ctx, recipe, snapshot)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	productionDate := in.ProductionDate
	if productionDate.IsZero() {
		productionDate = now
	}
	batch := &entity.Batch{
		ID:              uuid.New().String(),
		BatchNumber:     natural.Key(in.BatchNumber),
		RecipeID:        recipe.ID,
		ProductSKU:      recipe.SKU(),
		Quantity:        in.Quantity,
		Unit:            in.Unit,
		Status:          entity.BatchStatusPlanned,
		TotalCost:       unitCost.Mul(in.Quantity),
		Currency:        entity.CurrencyUSD,
		ProductionDate:  productionDate,
		RawMaterialLots: in.RawMaterialLots,
		Notes:           in.Notes,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.batches.Create(ctx, batch); err != nil {
		return nil, err
	}

	uc.notifier.Publish("batch.created", batch)
	return batch, nil
}

// recipeUnitCost arma los precios de los ingredientes en su moneda original y
// los convierte a USD con la foto dada.
func (uc *UseCase) recipeUnitCost(ctx context.Context, recipe *entity.Recipe, snapshot entity.RateSnapshot) (decimal.Decimal, error) {
	prices := make([]costing.IngredientPrice, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		material, err := uc.materials.GetByID(ctx, ing.RawMaterialID)
		if err != nil {
			return decimal.Zero, err
		}
		if material == nil {
			return decimal.Zero, domain.ErrNotFound
		}
		currency := material.Currency
		if currency == "" {
			currency = entity.CurrencyUSD
		}
		prices = append(prices, costing.IngredientPrice{
			Quantity:     ing.Quantity,
			PricePerUnit: material.PricePerUnit,
			Currency:     currency,
		})
	}
	return costing.RecipeUnitCost(prices, entity.CurrencyUSD, snapshot)
}

// UpdatePatch son los campos modificables de una tanda. Los punteros nil no tocan
// el campo.
type UpdatePatch struct {
	Status             *string
	Notes              *string
	RawMaterialLots    map[string][]entity.LotSelection
	QualityCheckResult *string
	QualityCheckedBy   *string
	QualityCheckNotes  *string
	PerformedBy        string
}

// Update aplica un patch a la tanda. Los enums pasan una sola vez por la tabla
// de saneamiento; un cambio de estado fuera de la progresión definida es
// ErrConflict. La transición a in_progress descuenta los ingredientes de la
// receta contra los lotes de materia prima.
func (uc *UseCase) Update(ctx context.Context, batchNumber string, patch UpdatePatch) (*entity.Batch, error) {
	batch, err := uc.batches.GetByNumber(ctx, natural.Key(batchNumber))
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}

	enums := map[string]string{}
	if patch.Status != nil {
		enums["status"] = *patch.Status
	}
	if patch.QualityCheckResult != nil {
		enums["qualityCheckResult"] = *patch.QualityCheckResult
	}
	clean, repaired := patchTable.Apply(enums)
	for _, field := range repaired {
		uc.log.Warn().Str("batch", batch.BatchNumber).Str("field", field).Msg("valor de enum inválido descartado")
	}

	if patch.RawMaterialLots != nil {
		batch.RawMaterialLots = patch.RawMaterialLots
	}

	if status, ok := clean["status"]; ok && status != batch.Status {
		if !transitionAllowed(batch.Status, status) {
			return nil, domain.ErrConflict
		}
		if status == entity.BatchStatusInProgress {
			if err := uc.startProduction(ctx, batch, patch.PerformedBy); err != nil {
				return nil, err
			}
		}
		batch.Status = status
	}

	if result, ok := clean["qualityCheckResult"]; ok {
		batch.QualityCheckResult = result
		batch.QualityCheckedAt = time.Now()
	}
	if patch.QualityCheckedBy != nil {
		batch.QualityCheckedBy = *patch.QualityCheckedBy
	}
	if patch.QualityCheckNotes != nil {
		batch.QualityCheckNotes = *patch.QualityCheckNotes
	}
	if patch.Notes != nil {
		batch.Notes = *patch.Notes
	}
	batch.UpdatedAt = time.Now()

	if err := uc.batches.Update(ctx, batch); err != nil {
		return nil, err
	}
	uc.notifier.Publish("batch.updated", batch)
	return batch, nil
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// startProduction descuenta los ingredientes de la receta. Primero planifica
// todos los materiales (la insuficiencia de cualquiera aborta sin tocar nada) y
// recién después confirma los descuentos.
func (uc *UseCase) startProduction(ctx context.Context, batch *entity.Batch, performedBy string) error {
	recipe, err := uc.recipes.GetByID(ctx, batch.RecipeID)
	if err != nil {
		return err
	}
	if recipe == nil {
		return domain.ErrNotFound
	}

	type pending struct {
		plan      *allocation.Plan
		productID string
	}
	var plans []pending

	for _, ing := range recipe.Ingredients {
		material, err := uc.materials.GetByID(ctx, ing.RawMaterialID)
		if err != nil {
			return err
		}
		if material == nil {
			return domain.ErrNotFound
		}
		sku := material.LedgerSKU()
		required := ing.Quantity.Mul(batch.Quantity)

		var plan *allocation.Plan
		if selections := batch.RawMaterialLots[sku]; len(selections) > 0 {
			plan, err = uc.engine.PlanManual(ctx, material.ID, sku, selections)
			if err != nil {
				return err
			}
			if plan.TotalAllocated().LessThan(required) {
				return domain.NewInsufficientStock(sku, required, plan.TotalAllocated())
			}
		} else {
			plan, err = uc.engine.PlanFIFO(ctx, material.ID, sku, required)
			if err != nil {
				return err
			}
		}
		plans = append(plans, pending{plan: plan, productID: material.ID})
	}

	ref := allocation.Reference{
		TxType:          entity.TxTypeUsage,
		ReferenceType:   entity.RefTypeBatch,
		ReferenceNumber: batch.BatchNumber,
		PerformedBy:     performedBy,
		Notes:           "consumo de producción",
	}
	for _, p := range plans {
		if err := uc.engine.CommitDeduction(ctx, p.plan, ref); err != nil {
			return err
		}
		if err := uc.projector.Recompute(ctx, p.productID); err != nil {
			uc.log.Warn().Err(err).Str("product", p.productID).Msg("no se pudo recalcular inventario")
		}
	}
	return nil
}

// Complete cierra la producción de una tanda en in_progress: fija cantidades
// reales, crea el lote de producto terminado (lotNumber = batchNumber) y agrega
// la transacción production al ledger, todo en una transacción. Una colisión de
// lotNumber se reintenta una sola vez con sufijo de timestamp; si vuelve a
// chocar, se devuelve ErrDuplicate.
func (uc *UseCase) Complete(ctx context.Context, batchNumber string, actualQuantity, wastage decimal.Decimal, performedBy string) (*entity.Batch, error) {
	if actualQuantity.LessThan(decimal.Zero) || wastage.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	batch, err := uc.batches.GetByNumber(ctx, natural.Key(batchNumber))
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	if batch.Status != entity.BatchStatusInProgress {
		return nil, domain.ErrConflict
	}

	now := time.Now()
	unitCost := costing.UnitCost(batch.TotalCost, actualQuantity)
	productionDate := batch.ProductionDate
	if productionDate.IsZero() {
		productionDate = now
	}

	lot := &entity.Lot{
		ID:              uuid.New().String(),
		LotNumber:       batch.BatchNumber,
		ProductID:       batch.RecipeID,
		BatchID:         batch.ID,
		SKU:             batch.ProductSKU,
		ProductionDate:  productionDate,
		ExpiryDate:      productionDate.AddDate(1, 0, 0),
		InitialQuantity: actualQuantity,
		CurrentQuantity: actualQuantity,
		Unit:            batch.Unit,
		UnitCost:        unitCost,
		TotalCost:       batch.TotalCost,
		Status:          entity.LotStatusAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = uc.txRunner.Run(ctx, func(lots repository.LotRepository, history repository.StockHistoryRepository) error {
		// En postgres una violación de unicidad aborta la transacción entera,
		// así que la colisión se detecta con una consulta previa al insert.
		existing, err := lots.GetByNumber(ctx, lot.LotNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			lot.LotNumber = batch.BatchNumber + "-" + now.Format("20060102150405")
			uc.log.Warn().Str("lot", lot.LotNumber).Msg("colisión de número de lote, reintento con sufijo")
		}
		if err := lots.Create(ctx, lot); err != nil {
			return err
		}

		tx := &entity.StockTransaction{
			ID:              uuid.New().String(),
			SKU:             batch.ProductSKU,
			LotNumber:       lot.LotNumber,
			TransactionType: entity.TxTypeProduction,
			Quantity:        actualQuantity,
			Unit:            batch.Unit,
			PricePerUnit:    unitCost,
			Currency:        entity.CurrencyUSD,
			TotalCost:       unitCost.Mul(actualQuantity),
			CurrentBalance:  actualQuantity,
			ReferenceType:   entity.RefTypeBatch,
			ReferenceNumber: batch.BatchNumber,
			PerformedBy:     performedBy,
			CreatedAt:       now,
		}
		if err := history.Create(ctx, tx); err != nil {
			return err
		}
		metrics.LedgerTransactions.WithLabelValues(entity.TxTypeProduction).Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.ActualQuantity = actualQuantity
	batch.Wastage = wastage
	batch.Status = entity.BatchStatusCompleted
	batch.UpdatedAt = now
	if err := uc.batches.Update(ctx, batch); err != nil {
		return nil, err
	}

	if err := uc.projector.Recompute(ctx, batch.RecipeID); err != nil {
		uc.log.Warn().Err(err).Str("product", batch.RecipeID).Msg("no se pudo recalcular inventario")
	}
	uc.notifier.Publish("batch.completed", batch)
	return batch, nil
}

// GetByNumber devuelve una tanda por su clave natural.
func (uc *UseCase) GetByNumber(ctx context.Context, batchNumber string) (*entity.Batch, error) {
	batch, err := uc.batches.GetByNumber(ctx, natural.Key(batchNumber))
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	return batch, nil
}

// List pagina las tandas.
func (uc *UseCase) List(ctx context.Context, limit, offset int) ([]*entity.Batch, error) {
	return uc.batches.List(ctx, limit, offset)
}
