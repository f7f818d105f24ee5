package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-api/internal/application/inventory"
	"github.com/jhoicas/produccion-api/internal/application/stock"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/ledger"
	"github.com/jhoicas/produccion-api/internal/infrastructure/memory"
	"github.com/jhoicas/produccion-api/internal/infrastructure/notify"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

type stockFixture struct {
	uc      *stock.UseCase
	lots    *memory.LotRepository
	history *memory.StockHistoryRepository
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()
	lots := memory.NewLotRepository()
	history := memory.NewStockHistoryRepository()
	runner := memory.NewTxRunner(lots, history)
	log := logger.Nop()
	projector := inventory.NewProjector(lots, memory.NewInventoryRepository(), log)
	uc := stock.NewUseCase(history, lots, runner, projector, notify.NewLogNotifier(log), log)
	return &stockFixture{uc: uc, lots: lots, history: history}
}

func (f *stockFixture) addStock(t *testing.T, lotNumber string, quantity float64) {
	t.Helper()
	_, err := f.uc.AddStock(context.Background(), stock.AddStockInput{
		SKU:          "HARINA-001",
		LotNumber:    lotNumber,
		ProductID:    "prod-harina",
		Quantity:     decimal.NewFromFloat(quantity),
		Unit:         "kg",
		PricePerUnit: decimal.NewFromInt(2),
		Currency:     entity.CurrencyUSD,
	})
	require.NoError(t, err)
}

func TestAddStock_CreaLoteYEntradaPurchase(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)

	lot, err := f.lots.GetByNumber(context.Background(), "L-1")
	require.NoError(t, err)
	require.NotNil(t, lot)
	assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, entity.LotStatusAvailable, lot.Status)

	balance, err := f.uc.CurrentBalance(context.Background(), "HARINA-001", "L-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))
}

func TestAddStock_LoteExistenteSeIncrementa(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)
	f.addStock(t, "L-1", 50)

	lot, err := f.lots.GetByNumber(context.Background(), "L-1")
	require.NoError(t, err)
	assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(150)))

	balance, err := f.uc.CurrentBalance(context.Background(), "HARINA-001", "L-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(150)), "el saldo de la segunda compra acumula la primera")
}

func TestDeductStock_RegistraSalidaConSaldo(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)

	tx, err := f.uc.DeductStock(context.Background(), stock.DeductStockInput{
		SKU:             "HARINA-001",
		LotNumber:       "L-1",
		TransactionType: entity.TxTypeWaste,
		Quantity:        decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	assert.True(t, tx.CurrentBalance.Equal(decimal.NewFromInt(70)))

	lot, err := f.lots.GetByNumber(context.Background(), "L-1")
	require.NoError(t, err)
	assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(70)))
}

func TestDeductStock_TipoCrecienteEsInvalido(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)

	// El ledger no repara tipos: una "salida" purchase es un error del caller.
	_, err := f.uc.DeductStock(context.Background(), stock.DeductStockInput{
		SKU:             "HARINA-001",
		LotNumber:       "L-1",
		TransactionType: entity.TxTypePurchase,
		Quantity:        decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeductStock_MasDeLoDisponible(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 20)

	_, err := f.uc.DeductStock(context.Background(), stock.DeductStockInput{
		SKU:             "HARINA-001",
		LotNumber:       "L-1",
		TransactionType: entity.TxTypeUsage,
		Quantity:        decimal.NewFromInt(21),
	})
	var insufficient *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
}

func TestAdjustStock_SiempreDecrece(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)

	tx, err := f.uc.AdjustStock(context.Background(), "HARINA-001", "L-1", decimal.NewFromInt(5), "conteo físico", "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.TxTypeAdjustment, tx.TransactionType)
	assert.True(t, tx.CurrentBalance.Equal(decimal.NewFromInt(95)))
}

// El invariante central del ledger: para cualquier (SKU, lote), reproducir la
// historia completa coincide con el CurrentBalance de la última transacción.
func TestLedger_ReplayCoincideConUltimoSaldo(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)
	_, err := f.uc.DeductStock(context.Background(), stock.DeductStockInput{
		SKU: "HARINA-001", LotNumber: "L-1", TransactionType: entity.TxTypeUsage, Quantity: decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	f.addStock(t, "L-1", 25)

	txs, err := f.history.ListBySKUAndLot(context.Background(), "HARINA-001", "L-1")
	require.NoError(t, err)
	require.NotEmpty(t, txs)

	last := txs[len(txs)-1]
	assert.True(t, ledger.Replay(txs).Equal(last.CurrentBalance),
		"replay de la historia = saldo de la última transacción")
	assert.True(t, last.CurrentBalance.Equal(decimal.NewFromInt(85)))
}

func TestBalanceAcrossLots_SumaPorLote(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 60)
	f.addStock(t, "L-2", 40)
	_, err := f.uc.DeductStock(context.Background(), stock.DeductStockInput{
		SKU: "HARINA-001", LotNumber: "L-1", TransactionType: entity.TxTypeSale, Quantity: decimal.NewFromInt(60),
	})
	require.NoError(t, err)

	total, err := f.uc.BalanceAcrossLots(context.Background(), "HARINA-001")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(40)))
}

func TestTransactionIndex_PosicionEnElListado(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 10)
	tx, err := f.uc.DeductStock(context.Background(), stock.DeductStockInput{
		SKU: "HARINA-001", LotNumber: "L-1", TransactionType: entity.TxTypeUsage, Quantity: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	f.addStock(t, "L-1", 5)
	f.addStock(t, "L-1", 5)

	index, err := f.uc.TransactionIndex(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, index, "dos transacciones se crearon después de ella")
}

func TestTransactionIndex_NoExiste(t *testing.T) {
	f := newStockFixture(t)
	_, err := f.uc.TransactionIndex(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcile_SinDerivaNoCorrige(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.LotsChecked)
	assert.Empty(t, report.Corrections)
}

func TestReconcile_LoteAdelantadoEmiteUsage(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)

	// Deriva: alguien descontó el lote por fuera del ledger.
	lot, err := f.lots.GetByNumber(context.Background(), "L-1")
	require.NoError(t, err)
	lot.CurrentQuantity = decimal.NewFromInt(80)
	require.NoError(t, f.lots.Update(context.Background(), lot))

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Corrections, 1)
	correction := report.Corrections[0]
	assert.Equal(t, entity.TxTypeUsage, correction.TransactionType)
	assert.True(t, correction.Difference.Equal(decimal.NewFromInt(-20)))

	// Tras la corrección, el replay vuelve a coincidir con el lote.
	txs, err := f.history.ListBySKUAndLot(context.Background(), "HARINA-001", "L-1")
	require.NoError(t, err)
	assert.True(t, ledger.Replay(txs).Equal(decimal.NewFromInt(80)))

	// Y un segundo barrido no tiene nada que corregir.
	second, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Corrections)
}

func TestReconcile_LedgerAdelantadoEmiteReturn(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)

	lot, err := f.lots.GetByNumber(context.Background(), "L-1")
	require.NoError(t, err)
	lot.CurrentQuantity = decimal.NewFromFloat(105.5)
	require.NoError(t, f.lots.Update(context.Background(), lot))

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Corrections, 1)
	assert.Equal(t, entity.TxTypeReturn, report.Corrections[0].TransactionType)

	txs, err := f.history.ListBySKUAndLot(context.Background(), "HARINA-001", "L-1")
	require.NoError(t, err)
	assert.True(t, ledger.Replay(txs).Equal(decimal.NewFromFloat(105.5)))
}

func TestReconcile_DerivaDentroDeLaTolerancia(t *testing.T) {
	f := newStockFixture(t)
	f.addStock(t, "L-1", 100)

	lot, err := f.lots.GetByNumber(context.Background(), "L-1")
	require.NoError(t, err)
	lot.CurrentQuantity = decimal.NewFromFloat(99.995)
	require.NoError(t, f.lots.Update(context.Background(), lot))

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Corrections, "una deriva de 0.005 queda dentro de la banda de 0.01")
}

func TestReconcile_LoteSinHistoriaSeOmite(t *testing.T) {
	f := newStockFixture(t)
	require.NoError(t, f.lots.Create(context.Background(), &entity.Lot{
		ID:              "id-legacy",
		LotNumber:       "LEGACY-1",
		SKU:             "HARINA-001",
		CurrentQuantity: decimal.NewFromInt(10),
		InitialQuantity: decimal.NewFromInt(10),
		Status:          entity.LotStatusAvailable,
		ProductionDate:  time.Now(),
	}))

	report, err := f.uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.LotsChecked)
	assert.Empty(t, report.Corrections, "un lote anterior al ledger no tiene contra qué conciliarse")
}
