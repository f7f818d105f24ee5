package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/ledger"
)

func tx(txType, lotNumber string, quantity float64) *entity.StockTransaction {
	return &entity.StockTransaction{
		SKU:             "HARINA-001",
		LotNumber:       lotNumber,
		TransactionType: txType,
		Quantity:        decimal.NewFromFloat(quantity),
	}
}

func TestIsIncreasing_SoloEntradasSuman(t *testing.T) {
	assert.True(t, ledger.IsIncreasing(entity.TxTypePurchase))
	assert.True(t, ledger.IsIncreasing(entity.TxTypeProduction))
	assert.True(t, ledger.IsIncreasing(entity.TxTypeReturn))

	// adjustment se trata uniformemente como salida, igual que usage, sale,
	// waste y transfer; un tipo desconocido también resta.
	assert.False(t, ledger.IsIncreasing(entity.TxTypeAdjustment))
	assert.False(t, ledger.IsIncreasing(entity.TxTypeUsage))
	assert.False(t, ledger.IsIncreasing(entity.TxTypeSale))
	assert.False(t, ledger.IsIncreasing(entity.TxTypeWaste))
	assert.False(t, ledger.IsIncreasing(entity.TxTypeTransfer))
	assert.False(t, ledger.IsIncreasing("algo-raro"))
}

func TestReplay_SecuenciaMixta(t *testing.T) {
	txs := []*entity.StockTransaction{
		tx(entity.TxTypePurchase, "L-1", 100),
		tx(entity.TxTypeUsage, "L-1", 30),
		tx(entity.TxTypeReturn, "L-1", 10),
		tx(entity.TxTypeWaste, "L-1", 5),
	}
	assert.True(t, ledger.Replay(txs).Equal(decimal.NewFromInt(75)),
		"100 - 30 + 10 - 5 = 75")
}

func TestReplay_Vacio(t *testing.T) {
	assert.True(t, ledger.Replay(nil).IsZero())
}

// Un lote que pasó por cero y volvió a subir no debe contarse dos veces: el
// saldo del SKU es la suma de los saldos por lote, no la suma ingenua con signo
// truncada en cero.
func TestBalancesByLot_LotePorCeroNoSeDuplica(t *testing.T) {
	txs := []*entity.StockTransaction{
		tx(entity.TxTypePurchase, "L-1", 50),
		tx(entity.TxTypeUsage, "L-1", 50), // L-1 queda en cero
		tx(entity.TxTypeReturn, "L-1", 20),
		tx(entity.TxTypePurchase, "L-2", 40),
		tx(entity.TxTypeSale, "L-2", 15),
	}

	balances := ledger.BalancesByLot(txs)

	assert.True(t, balances["L-1"].Equal(decimal.NewFromInt(20)))
	assert.True(t, balances["L-2"].Equal(decimal.NewFromInt(25)))

	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(45)))
}

func TestSignedQuantity(t *testing.T) {
	assert.True(t, ledger.SignedQuantity(tx(entity.TxTypePurchase, "L-1", 7)).Equal(decimal.NewFromInt(7)))
	assert.True(t, ledger.SignedQuantity(tx(entity.TxTypeAdjustment, "L-1", 7)).Equal(decimal.NewFromInt(-7)))
}
