package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-api/internal/application/inventory"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/infrastructure/memory"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

func seed(t *testing.T, lots *memory.LotRepository, number, status string, quantity float64) {
	t.Helper()
	qty := decimal.NewFromFloat(quantity)
	require.NoError(t, lots.Create(context.Background(), &entity.Lot{
		ID:              "id-" + number,
		LotNumber:       number,
		ProductID:       "prod-1",
		SKU:             "PAN-001",
		ProductionDate:  time.Now(),
		InitialQuantity: qty,
		CurrentQuantity: qty,
		Status:          status,
	}))
}

func TestRecompute_SumaSoloLotesVivos(t *testing.T) {
	lots := memory.NewLotRepository()
	inventoryRepo := memory.NewInventoryRepository()
	projector := inventory.NewProjector(lots, inventoryRepo, logger.Nop())

	seed(t, lots, "L-1", entity.LotStatusAvailable, 60)
	seed(t, lots, "L-2", entity.LotStatusReserved, 15)
	seed(t, lots, "L-3", entity.LotStatusDepleted, 0)
	seed(t, lots, "L-4", entity.LotStatusRecalled, 99)

	require.NoError(t, projector.Recompute(context.Background(), "prod-1"))

	row, err := projector.GetByProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.Stock.Equal(decimal.NewFromInt(75)), "available + reserved; depleted y recalled no cuentan")
	assert.Equal(t, "PAN-001", row.Name)
}

func TestRecompute_EsIdempotente(t *testing.T) {
	lots := memory.NewLotRepository()
	inventoryRepo := memory.NewInventoryRepository()
	projector := inventory.NewProjector(lots, inventoryRepo, logger.Nop())
	seed(t, lots, "L-1", entity.LotStatusAvailable, 40)

	require.NoError(t, projector.Recompute(context.Background(), "prod-1"))
	require.NoError(t, projector.Recompute(context.Background(), "prod-1"))

	row, err := projector.GetByProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.True(t, row.Stock.Equal(decimal.NewFromInt(40)), "recalcular dos veces no acumula")

	all, err := projector.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecompute_ProductoSinLotes(t *testing.T) {
	projector := inventory.NewProjector(memory.NewLotRepository(), memory.NewInventoryRepository(), logger.Nop())

	require.NoError(t, projector.Recompute(context.Background(), "prod-x"))

	row, err := projector.GetByProduct(context.Background(), "prod-x")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.Stock.IsZero())
}
