package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-api/internal/application/allocation"
	"github.com/jhoicas/produccion-api/internal/application/batch"
	"github.com/jhoicas/produccion-api/internal/application/inventory"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/infrastructure/memory"
	"github.com/jhoicas/produccion-api/internal/infrastructure/notify"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

// fixedRates devuelve siempre la misma foto de tasas (sin red).
type fixedRates struct{}

func (fixedRates) GetRates(context.Context) (entity.RateSnapshot, error) {
	return entity.RateSnapshot{
		Rates: map[string]decimal.Decimal{
			entity.CurrencyTRY: decimal.NewFromInt(1),
			entity.CurrencyUSD: decimal.NewFromFloat(34.5),
		},
		FetchedAt: time.Now(),
	}, nil
}

type batchFixture struct {
	uc      *batch.UseCase
	lots    *memory.LotRepository
	history *memory.StockHistoryRepository
	batches *memory.BatchRepository
}

// newBatchFixture arma el caso de uso con una receta PAN-001 (2 kg de harina
// por unidad, harina a 1 USD/kg => costo unitario 2 USD) y un lote de harina.
func newBatchFixture(t *testing.T, flourKg float64) *batchFixture {
	t.Helper()
	ctx := context.Background()
	lots := memory.NewLotRepository()
	history := memory.NewStockHistoryRepository()
	runner := memory.NewTxRunner(lots, history)
	log := logger.Nop()
	engine := allocation.NewEngine(lots, runner, log)
	projector := inventory.NewProjector(lots, memory.NewInventoryRepository(), log)

	materials := memory.NewRawMaterialRepository()
	require.NoError(t, materials.Create(ctx, &entity.RawMaterial{
		ID:           "mat-harina",
		SKU:          "HARINA-001",
		Name:         "Harina",
		Unit:         "kg",
		PricePerUnit: decimal.NewFromInt(1),
		Currency:     entity.CurrencyUSD,
	}))

	recipes := memory.NewRecipeRepository()
	require.NoError(t, recipes.Create(ctx, &entity.Recipe{
		ID:        "rec-pan",
		Name:      "Pan",
		Code:      "PAN-001",
		BatchSize: decimal.NewFromInt(1),
		Ingredients: []entity.Ingredient{
			{RawMaterialID: "mat-harina", Quantity: decimal.NewFromInt(2), Unit: "kg"},
		},
	}))

	if flourKg > 0 {
		qty := decimal.NewFromFloat(flourKg)
		require.NoError(t, lots.Create(ctx, &entity.Lot{
			ID:              "id-harina-1",
			LotNumber:       "HARINA-L1",
			ProductID:       "mat-harina",
			SKU:             "HARINA-001",
			ProductionDate:  time.Now().AddDate(0, -1, 0),
			ExpiryDate:      time.Now().AddDate(1, 0, 0),
			InitialQuantity: qty,
			CurrentQuantity: qty,
			Unit:            "kg",
			UnitCost:        decimal.NewFromInt(1),
			Status:          entity.LotStatusAvailable,
		}))
	}

	batches := memory.NewBatchRepository()
	uc := batch.NewUseCase(batches, recipes, materials, engine, runner, fixedRates{}, projector, notify.NewLogNotifier(log), log)
	return &batchFixture{uc: uc, lots: lots, history: history, batches: batches}
}

func (f *batchFixture) create(t *testing.T, number string, quantity float64) *entity.Batch {
	t.Helper()
	created, err := f.uc.Create(context.Background(), batch.CreateInput{
		BatchNumber: number,
		RecipeCode:  "PAN-001",
		Quantity:    decimal.NewFromFloat(quantity),
		Unit:        "unidad",
	})
	require.NoError(t, err)
	return created
}

func (f *batchFixture) setStatus(t *testing.T, number, status string) (*entity.Batch, error) {
	t.Helper()
	return f.uc.Update(context.Background(), number, batch.UpdatePatch{Status: &status})
}

func TestCreate_CosteaConLaReceta(t *testing.T) {
	f := newBatchFixture(t, 100)
	created := f.create(t, "BATCH-001", 40)

	assert.Equal(t, entity.BatchStatusPlanned, created.Status)
	// 2 kg de harina a 1 USD por unidad producida, 40 unidades => 80 USD.
	assert.True(t, created.TotalCost.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, entity.CurrencyUSD, created.Currency)
	assert.Equal(t, "PAN-001", created.ProductSKU)
}

func TestCreate_RecetaInexistente(t *testing.T) {
	f := newBatchFixture(t, 100)
	_, err := f.uc.Create(context.Background(), batch.CreateInput{
		BatchNumber: "BATCH-001",
		RecipeCode:  "NO-EXISTE",
		Quantity:    decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_InProgressDescuentaIngredientes(t *testing.T) {
	f := newBatchFixture(t, 100)
	f.create(t, "BATCH-001", 40)

	updated, err := f.setStatus(t, "BATCH-001", entity.BatchStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusInProgress, updated.Status)

	// 40 unidades * 2 kg = 80 kg consumidos del lote de harina.
	lot, err := f.lots.GetByNumber(context.Background(), "HARINA-L1")
	require.NoError(t, err)
	assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(20)))

	txs, err := f.history.ListBySKUAndLot(context.Background(), "HARINA-001", "HARINA-L1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.TxTypeUsage, txs[0].TransactionType)
	assert.Equal(t, "BATCH-001", txs[0].ReferenceNumber)
}

func TestUpdate_InsuficienciaAbortaSinTocarNada(t *testing.T) {
	f := newBatchFixture(t, 50) // solo 50 kg para 80 requeridos
	f.create(t, "BATCH-001", 40)

	_, err := f.setStatus(t, "BATCH-001", entity.BatchStatusInProgress)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	lot, err := f.lots.GetByNumber(context.Background(), "HARINA-L1")
	require.NoError(t, err)
	assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(50)), "la planificación fallida no descuenta nada")

	current, err := f.uc.GetByNumber(context.Background(), "BATCH-001")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusPlanned, current.Status)
}

func TestUpdate_TransicionFueraDeLaProgresion(t *testing.T) {
	f := newBatchFixture(t, 100)
	f.create(t, "BATCH-001", 10)

	// planned no puede saltar directo a completed ni a shipped.
	_, err := f.setStatus(t, "BATCH-001", entity.BatchStatusCompleted)
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.setStatus(t, "BATCH-001", entity.BatchStatusShipped)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdate_EnumInvalidoSeDescarta(t *testing.T) {
	f := newBatchFixture(t, 100)
	f.create(t, "BATCH-001", 10)

	updated, err := f.setStatus(t, "BATCH-001", "volando")
	require.NoError(t, err, "un enum inválido se descarta del patch, no es error")
	assert.Equal(t, entity.BatchStatusPlanned, updated.Status)
}

func TestComplete_CreaLoteYProduccion(t *testing.T) {
	f := newBatchFixture(t, 100)
	f.create(t, "BATCH-001", 40)
	_, err := f.setStatus(t, "BATCH-001", entity.BatchStatusInProgress)
	require.NoError(t, err)

	completed, err := f.uc.Complete(context.Background(), "BATCH-001", decimal.NewFromInt(40), decimal.NewFromInt(2), "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusCompleted, completed.Status)
	assert.True(t, completed.ActualQuantity.Equal(decimal.NewFromInt(40)))
	assert.True(t, completed.Wastage.Equal(decimal.NewFromInt(2)))

	// El lote hereda el número de la tanda; costo unitario = 80 USD / 40 = 2.
	lot, err := f.lots.GetByNumber(context.Background(), "BATCH-001")
	require.NoError(t, err)
	require.NotNil(t, lot)
	assert.Equal(t, "PAN-001", lot.SKU)
	assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(40)))
	assert.True(t, lot.UnitCost.Equal(decimal.NewFromInt(2)))

	txs, err := f.history.ListBySKUAndLot(context.Background(), "PAN-001", "BATCH-001")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.TxTypeProduction, txs[0].TransactionType)
	assert.True(t, txs[0].CurrentBalance.Equal(decimal.NewFromInt(40)))
}

func TestComplete_SoloDesdeInProgress(t *testing.T) {
	f := newBatchFixture(t, 100)
	f.create(t, "BATCH-001", 10)

	_, err := f.uc.Complete(context.Background(), "BATCH-001", decimal.NewFromInt(10), decimal.Zero, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestComplete_ColisionDeLoteReintentaConSufijo(t *testing.T) {
	f := newBatchFixture(t, 100)
	f.create(t, "BATCH-001", 10)
	_, err := f.setStatus(t, "BATCH-001", entity.BatchStatusInProgress)
	require.NoError(t, err)

	// Ya existe un lote con el número de la tanda.
	require.NoError(t, f.lots.Create(context.Background(), &entity.Lot{
		ID:              "id-colision",
		LotNumber:       "BATCH-001",
		SKU:             "PAN-001",
		InitialQuantity: decimal.NewFromInt(1),
		CurrentQuantity: decimal.NewFromInt(1),
		Status:          entity.LotStatusAvailable,
		ProductionDate:  time.Now(),
	}))

	completed, err := f.uc.Complete(context.Background(), "BATCH-001", decimal.NewFromInt(10), decimal.Zero, "")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusCompleted, completed.Status)

	txs, err := f.history.ListBySKU(context.Background(), "PAN-001", 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.NotEqual(t, "BATCH-001", txs[0].LotNumber, "el lote reintentado lleva sufijo de timestamp")
	assert.Contains(t, txs[0].LotNumber, "BATCH-001-")

	// La colisión se resuelve consultando antes de insertar, sin provocar la
	// violación de unicidad; el lote preexistente queda intacto.
	original, err := f.lots.GetByNumber(context.Background(), "BATCH-001")
	require.NoError(t, err)
	require.NotNil(t, original)
	assert.True(t, original.CurrentQuantity.Equal(decimal.NewFromInt(1)))

	suffixed, err := f.lots.GetByNumber(context.Background(), txs[0].LotNumber)
	require.NoError(t, err)
	require.NotNil(t, suffixed)
	assert.True(t, suffixed.CurrentQuantity.Equal(decimal.NewFromInt(10)))
}

func TestCicloCompleto_HastaShipped(t *testing.T) {
	f := newBatchFixture(t, 100)
	f.create(t, "BATCH-001", 10)

	_, err := f.setStatus(t, "BATCH-001", entity.BatchStatusInProgress)
	require.NoError(t, err)
	_, err = f.uc.Complete(context.Background(), "BATCH-001", decimal.NewFromInt(10), decimal.Zero, "")
	require.NoError(t, err)

	for _, status := range []string{
		entity.BatchStatusQualityCheck,
		entity.BatchStatusApproved,
		entity.BatchStatusShipped,
	} {
		_, err = f.setStatus(t, "BATCH-001", status)
		require.NoError(t, err, "transición a %s", status)
	}

	final, err := f.uc.GetByNumber(context.Background(), "BATCH-001")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusShipped, final.Status)
}
