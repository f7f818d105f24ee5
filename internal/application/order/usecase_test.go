package order_test

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
	"github.com/jhoicas/produccion-api/internal/application/order"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/infrastructure/memory"
	"github.com/jhoicas/produccion-api/internal/infrastructure/notify"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

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

type orderFixture struct {
	uc      *order.UseCase
	lots    *memory.LotRepository
	history *memory.StockHistoryRepository
	batches *memory.BatchRepository
}

// newOrderFixture arma el caso de uso con la receta PAN-001 (sin ingredientes:
// acá importa el producto terminado) y los lotes de producto dados.
func newOrderFixture(t *testing.T, lotQuantities map[string]float64) *orderFixture {
	t.Helper()
	ctx := context.Background()
	lots := memory.NewLotRepository()
	history := memory.NewStockHistoryRepository()
	runner := memory.NewTxRunner(lots, history)
	log := logger.Nop()
	engine := allocation.NewEngine(lots, runner, log)
	projector := inventory.NewProjector(lots, memory.NewInventoryRepository(), log)
	notifier := notify.NewLogNotifier(log)

	recipes := memory.NewRecipeRepository()
	require.NoError(t, recipes.Create(ctx, &entity.Recipe{
		ID:        "rec-pan",
		Name:      "Pan",
		Code:      "PAN-001",
		BatchSize: decimal.NewFromInt(1),
	}))

	produced := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for number, qty := range lotQuantities {
		q := decimal.NewFromFloat(qty)
		require.NoError(t, lots.Create(ctx, &entity.Lot{
			ID:              "id-" + number,
			LotNumber:       number,
			ProductID:       "rec-pan",
			SKU:             "PAN-001",
			ProductionDate:  produced,
			ExpiryDate:      produced.AddDate(1, 0, 0),
			InitialQuantity: q,
			CurrentQuantity: q,
			Unit:            "unidad",
			UnitCost:        decimal.NewFromInt(2),
			Status:          entity.LotStatusAvailable,
		}))
		produced = produced.AddDate(0, 0, 1)
	}

	batchRepo := memory.NewBatchRepository()
	batchUC := batch.NewUseCase(batchRepo, recipes, memory.NewRawMaterialRepository(), engine, runner, fixedRates{}, projector, notifier, log)
	orders := memory.NewOrderRepository()
	uc := order.NewUseCase(orders, recipes, engine, batchUC, projector, notifier, log)
	return &orderFixture{uc: uc, lots: lots, history: history, batches: batchRepo}
}

func (f *orderFixture) create(t *testing.T, number string, quantity float64, method string) *entity.Order {
	t.Helper()
	created, err := f.uc.Create(context.Background(), order.CreateInput{
		OrderNumber:       number,
		RecipeCode:        "PAN-001",
		Quantity:          decimal.NewFromFloat(quantity),
		Unit:              "unidad",
		CustomerName:      "Cliente Uno",
		FulfillmentMethod: method,
	})
	require.NoError(t, err)
	return created
}

func (f *orderFixture) advance(t *testing.T, number string, statuses ...string) *entity.Order {
	t.Helper()
	var current *entity.Order
	var err error
	for _, status := range statuses {
		current, err = f.uc.UpdateStatus(context.Background(), number, order.UpdateStatusInput{Status: status})
		require.NoError(t, err, "transición a %s", status)
	}
	return current
}

func (f *orderFixture) lotQuantity(t *testing.T, number string) decimal.Decimal {
	t.Helper()
	lot, err := f.lots.GetByNumber(context.Background(), number)
	require.NoError(t, err)
	require.NotNil(t, lot)
	return lot.CurrentQuantity
}

func TestCreate_AsignacionConsultivaNoTocaLotes(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	created := f.create(t, "ORD-001", 60, entity.FulfillStock)

	require.Len(t, created.LotAllocations, 1)
	assert.Equal(t, "LOTE-A", created.LotAllocations[0].LotNumber)
	assert.True(t, created.LotAllocations[0].Quantity.Equal(decimal.NewFromInt(60)))

	// La reserva es consultiva: el lote queda intacto hasta preparar o enviar.
	assert.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(100)))
	assert.False(t, created.StockDeducted)
}

func TestCreate_StockInsuficienteConMetodoStock(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 10})
	_, err := f.uc.Create(context.Background(), order.CreateInput{
		OrderNumber:       "ORD-001",
		RecipeCode:        "PAN-001",
		Quantity:          decimal.NewFromInt(60),
		FulfillmentMethod: entity.FulfillStock,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfall.Equal(decimal.NewFromInt(50)))
}

func TestCreate_MixedProgramaTandaPorElFaltante(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 40})
	created := f.create(t, "ORD-001", 100, entity.FulfillMixed)

	assert.True(t, created.AllocatedQuantity().Equal(decimal.NewFromInt(40)))
	assert.True(t, created.ProductionQuantity.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, "ORD-001-PROD", created.ProductionBatch)

	scheduled, err := f.batches.GetByNumber(context.Background(), "ORD-001-PROD")
	require.NoError(t, err)
	require.NotNil(t, scheduled)
	assert.Equal(t, entity.BatchStatusPlanned, scheduled.Status)
	assert.True(t, scheduled.Quantity.Equal(decimal.NewFromInt(60)))
}

func TestCreate_ProductionProgramaTodo(t *testing.T) {
	f := newOrderFixture(t, nil)
	created := f.create(t, "ORD-001", 30, entity.FulfillProduction)

	assert.Empty(t, created.LotAllocations)
	assert.True(t, created.ProductionQuantity.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "ORD-001-PROD", created.ProductionBatch)
}

func TestUpdateStatus_ReadyDescuentaLaAsignacion(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 60, entity.FulfillStock)

	ready := f.advance(t, "ORD-001", entity.OrderStatusApproved, entity.OrderStatusPlanned, entity.OrderStatusReady)
	assert.True(t, ready.StockDeducted)
	assert.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(40)))

	txs, err := f.history.ListBySKUAndLot(context.Background(), "PAN-001", "LOTE-A")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.TxTypeSale, txs[0].TransactionType)
	assert.Equal(t, "ORD-001", txs[0].ReferenceNumber)
}

func TestUpdateStatus_SaltoHaciaAdelanteEsConflicto(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 10, entity.FulfillStock)

	_, err := f.uc.UpdateStatus(context.Background(), "ORD-001", order.UpdateStatusInput{Status: entity.OrderStatusReady})
	assert.ErrorIs(t, err, domain.ErrConflict, "pending no puede saltar directo a ready")

	_, err = f.uc.UpdateStatus(context.Background(), "ORD-001", order.UpdateStatusInput{Status: entity.OrderStatusShipped})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateStatus_EstadoInvalido(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 10, entity.FulfillStock)

	_, err := f.uc.UpdateStatus(context.Background(), "ORD-001", order.UpdateStatusInput{Status: "volando"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCancel_EnReadyRestauraLosLotes(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 60, entity.FulfillStock)
	f.advance(t, "ORD-001", entity.OrderStatusApproved, entity.OrderStatusPlanned, entity.OrderStatusReady)
	require.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(40)))

	cancelled, err := f.uc.UpdateStatus(context.Background(), "ORD-001", order.UpdateStatusInput{
		Status: entity.OrderStatusCancelled,
		Reason: "cliente desistió",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "cliente desistió")

	// La cancelación devuelve lo descontado y el lote vuelve a estar asignable.
	assert.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(100)))
	lot, err := f.lots.GetByNumber(context.Background(), "LOTE-A")
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusAvailable, lot.Status)
}

func TestCancel_AntesDeReadyNoDevuelveNada(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 60, entity.FulfillStock)

	_, err := f.uc.UpdateStatus(context.Background(), "ORD-001", order.UpdateStatusInput{Status: entity.OrderStatusCancelled})
	require.NoError(t, err)

	// Nada se había descontado, así que no hay transacciones return.
	txs, err := f.history.ListBySKU(context.Background(), "PAN-001", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(100)))
}

func TestCancel_NoDevuelveLoYaEnviado(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 60, entity.FulfillStock)
	f.advance(t, "ORD-001", entity.OrderStatusApproved)

	// Envío parcial de 20 antes de preparar: descuenta sus líneas.
	_, err := f.uc.ShipPartial(context.Background(), "ORD-001", order.ShipPartialInput{
		Lines: []entity.LotSelection{{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(20)}},
	})
	require.NoError(t, err)
	require.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(80)))

	_, err = f.uc.UpdateStatus(context.Background(), "ORD-001", order.UpdateStatusInput{Status: entity.OrderStatusCancelled})
	require.NoError(t, err)

	// Lo enviado (20) salió físicamente: el lote no vuelve a 100.
	assert.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(80)))
}

func TestShipPartial_LlevaLaContabilidad(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 100, entity.FulfillStock)
	f.advance(t, "ORD-001", entity.OrderStatusApproved, entity.OrderStatusPlanned, entity.OrderStatusReady)

	shipped, err := f.uc.ShipPartial(context.Background(), "ORD-001", order.ShipPartialInput{
		Lines:     []entity.LotSelection{{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(30)}},
		ShippedBy: "ana",
	})
	require.NoError(t, err)

	assert.True(t, shipped.ShippedQuantity.Equal(decimal.NewFromInt(30)))
	assert.True(t, shipped.RemainingQuantity.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, entity.FulfillmentPartiallyFulfilled, shipped.FulfillmentStatus)
	assert.Equal(t, entity.OrderStatusReady, shipped.Status)
	require.Len(t, shipped.PartialShipments, 1)

	// El stock salió al preparar; el envío desde ready no vuelve a descontar.
	assert.True(t, f.lotQuantity(t, "LOTE-A").IsZero())
}

func TestShipPartial_CompletaElPedidoDentroDeLaTolerancia(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 50, entity.FulfillStock)
	f.advance(t, "ORD-001", entity.OrderStatusApproved, entity.OrderStatusPlanned, entity.OrderStatusReady)

	_, err := f.uc.ShipPartial(context.Background(), "ORD-001", order.ShipPartialInput{
		Lines: []entity.LotSelection{{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(30)}},
	})
	require.NoError(t, err)

	final, err := f.uc.ShipPartial(context.Background(), "ORD-001", order.ShipPartialInput{
		Lines: []entity.LotSelection{{LotNumber: "LOTE-A", Quantity: decimal.NewFromFloat(19.995)}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusShipped, final.Status)
	assert.Equal(t, entity.FulfillmentFulfilled, final.FulfillmentStatus)
	assert.True(t, final.RemainingQuantity.IsZero(), "un restante de 0.005 entra en la tolerancia")
}

func TestShipPartial_MasQueElRemanenteAsignado(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 50, entity.FulfillStock)
	f.advance(t, "ORD-001", entity.OrderStatusApproved)

	_, err := f.uc.ShipPartial(context.Background(), "ORD-001", order.ShipPartialInput{
		Lines: []entity.LotSelection{{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(60)}},
	})
	var insufficient *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
}

func TestShipPartial_AntesDeAprobarEsConflicto(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 50, entity.FulfillStock)

	_, err := f.uc.ShipPartial(context.Background(), "ORD-001", order.ShipPartialInput{
		Lines: []entity.LotSelection{{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(10)}},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAllocateLots_ReemplazaLaSeleccion(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100, "LOTE-B": 100})
	f.create(t, "ORD-001", 50, entity.FulfillStock)

	updated, err := f.uc.AllocateLots(context.Background(), "ORD-001", []entity.LotSelection{
		{LotNumber: "LOTE-B", Quantity: decimal.NewFromInt(50)},
	})
	require.NoError(t, err)
	require.Len(t, updated.LotAllocations, 1)
	assert.Equal(t, "LOTE-B", updated.LotAllocations[0].LotNumber)
}

func TestAllocateLots_MasQueLaCantidadDelPedido(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 50, entity.FulfillStock)

	_, err := f.uc.AllocateLots(context.Background(), "ORD-001", []entity.LotSelection{
		{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(80)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListByLot_Trazabilidad(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 30, entity.FulfillStock)
	f.create(t, "ORD-002", 30, entity.FulfillStock)

	orders, err := f.uc.ListByLot(context.Background(), "LOTE-A")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestCreate_SeleccionManualPorEncimaDeLaCantidad(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})

	_, err := f.uc.Create(context.Background(), order.CreateInput{
		OrderNumber:       "ORD-001",
		RecipeCode:        "PAN-001",
		Quantity:          decimal.NewFromInt(50),
		Unit:              "unidad",
		FulfillmentMethod: entity.FulfillStock,
		ManualSelection: []entity.LotSelection{
			{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(80)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "la selección no puede superar la cantidad del pedido")
	assert.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(100)), "la planificación no toca el lote")

	// En cumplimiento mixto la sobreselección se rechaza igual.
	_, err = f.uc.Create(context.Background(), order.CreateInput{
		OrderNumber:       "ORD-002",
		RecipeCode:        "PAN-001",
		Quantity:          decimal.NewFromInt(50),
		Unit:              "unidad",
		FulfillmentMethod: entity.FulfillMixed,
		ManualSelection: []entity.LotSelection{
			{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(80)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_SeleccionManualExactaDescuentaLoAsignado(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})

	created, err := f.uc.Create(context.Background(), order.CreateInput{
		OrderNumber:       "ORD-001",
		RecipeCode:        "PAN-001",
		Quantity:          decimal.NewFromInt(50),
		Unit:              "unidad",
		FulfillmentMethod: entity.FulfillStock,
		ManualSelection: []entity.LotSelection{
			{LotNumber: "LOTE-A", Quantity: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)
	assert.True(t, created.AllocatedQuantity().Equal(decimal.NewFromInt(50)))

	f.advance(t, "ORD-001", entity.OrderStatusApproved, entity.OrderStatusPlanned, entity.OrderStatusReady)
	assert.True(t, f.lotQuantity(t, "LOTE-A").Equal(decimal.NewFromInt(50)), "se descuenta exactamente la cantidad del pedido")
}

func TestCreate_NumeroDuplicadoNoProgramaTanda(t *testing.T) {
	f := newOrderFixture(t, map[string]float64{"LOTE-A": 100})
	f.create(t, "ORD-001", 50, entity.FulfillStock)

	_, err := f.uc.Create(context.Background(), order.CreateInput{
		OrderNumber:       "ORD-001",
		RecipeCode:        "PAN-001",
		Quantity:          decimal.NewFromInt(30),
		Unit:              "unidad",
		FulfillmentMethod: entity.FulfillProduction,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	orphan, err := f.batches.GetByNumber(context.Background(), "ORD-001-PROD")
	require.NoError(t, err)
	assert.Nil(t, orphan, "el duplicado corta antes de programar la tanda")
}
