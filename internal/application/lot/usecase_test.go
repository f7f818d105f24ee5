package lot_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-api/internal/application/inventory"
	"github.com/jhoicas/produccion-api/internal/application/lot"
	"github.com/jhoicas/produccion-api/internal/application/stock"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/infrastructure/memory"
	"github.com/jhoicas/produccion-api/internal/infrastructure/notify"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

type lotFixture struct {
	uc     *lot.UseCase
	stock  *stock.UseCase
	lots   *memory.LotRepository
	orders *memory.OrderRepository
}

func newLotFixture(t *testing.T) *lotFixture {
	t.Helper()
	lots := memory.NewLotRepository()
	history := memory.NewStockHistoryRepository()
	runner := memory.NewTxRunner(lots, history)
	orders := memory.NewOrderRepository()
	log := logger.Nop()
	projector := inventory.NewProjector(lots, memory.NewInventoryRepository(), log)
	stockUC := stock.NewUseCase(history, lots, runner, projector, notify.NewLogNotifier(log), log)
	return &lotFixture{
		uc:     lot.NewUseCase(lots, history, orders, stockUC, log),
		stock:  stockUC,
		lots:   lots,
		orders: orders,
	}
}

func (f *lotFixture) addStock(t *testing.T, lotNumber string, quantity float64, expiry time.Time) {
	t.Helper()
	_, err := f.stock.AddStock(context.Background(), stock.AddStockInput{
		SKU:          "HARINA-001",
		LotNumber:    lotNumber,
		ProductID:    "mat-harina",
		Quantity:     decimal.NewFromFloat(quantity),
		Unit:         "kg",
		PricePerUnit: decimal.NewFromInt(2),
		Currency:     entity.CurrencyUSD,
		ExpiryDate:   expiry,
	})
	require.NoError(t, err)
}

func TestGet_PorIdOPorNumero(t *testing.T) {
	f := newLotFixture(t)
	f.addStock(t, "L-1", 50, time.Now().AddDate(1, 0, 0))

	byNumber, err := f.uc.Get(context.Background(), "l 1")
	require.NoError(t, err, "el número se normaliza antes de buscar")
	assert.Equal(t, "L-1", byNumber.LotNumber)

	byID, err := f.uc.Get(context.Background(), byNumber.ID)
	require.NoError(t, err)
	assert.Equal(t, byNumber.LotNumber, byID.LotNumber)

	_, err = f.uc.Get(context.Background(), "NO-EXISTE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpiring_SoloDentroDelHorizonte(t *testing.T) {
	f := newLotFixture(t)
	f.addStock(t, "L-CERCA", 10, time.Now().AddDate(0, 0, 10))
	f.addStock(t, "L-LEJOS", 10, time.Now().AddDate(0, 6, 0))

	expiring, err := f.uc.Expiring(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "L-CERCA", expiring[0].LotNumber)
}

func TestAdjust_ResuelveElLoteYDescuenta(t *testing.T) {
	f := newLotFixture(t)
	f.addStock(t, "L-1", 50, time.Now().AddDate(1, 0, 0))

	tx, err := f.uc.Adjust(context.Background(), "L-1", decimal.NewFromInt(3), "rotura", "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.TxTypeAdjustment, tx.TransactionType)
	assert.True(t, tx.CurrentBalance.Equal(decimal.NewFromInt(47)))
}

func TestTraceHistory_LoteTransaccionesYPedidos(t *testing.T) {
	f := newLotFixture(t)
	f.addStock(t, "L-1", 50, time.Now().AddDate(1, 0, 0))
	_, err := f.uc.Adjust(context.Background(), "L-1", decimal.NewFromInt(5), "", "")
	require.NoError(t, err)

	require.NoError(t, f.orders.Create(context.Background(), &entity.Order{
		ID:          "ord-id",
		OrderNumber: "ORD-001",
		ProductSKU:  "HARINA-001",
		Quantity:    decimal.NewFromInt(10),
		Status:      entity.OrderStatusPending,
		LotAllocations: []entity.LotAllocation{
			{LotNumber: "L-1", Quantity: decimal.NewFromInt(10)},
		},
	}))

	trace, err := f.uc.TraceHistory(context.Background(), "L-1")
	require.NoError(t, err)
	assert.Equal(t, "L-1", trace.Lot.LotNumber)
	assert.Len(t, trace.Transactions, 2, "la compra y el ajuste")
	require.Len(t, trace.Orders, 1)
	assert.Equal(t, "ORD-001", trace.Orders[0].OrderNumber)
}
