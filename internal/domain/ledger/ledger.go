// Package ledger contiene las reglas puras del historial de stock: clasificación
// de tipos de transacción y derivación de saldos por reproducción (servicio de dominio).
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// IsIncreasing indica si el tipo de transacción suma al saldo.
// Solo purchase, production y return suman; todo lo demás resta
// (adjustment se trata uniformemente como salida).
func IsIncreasing(transactionType string) bool {
	switch transactionType {
	case entity.TxTypePurchase, entity.TxTypeProduction, entity.TxTypeReturn:
		return true
	default:
		return false
	}
}

// SignedQuantity devuelve la cantidad con el signo que le da su tipo.
func SignedQuantity(tx *entity.StockTransaction) decimal.Decimal {
	if IsIncreasing(tx.TransactionType) {
		return tx.Quantity
	}
	return tx.Quantity.Neg()
}

// Replay acumula las cantidades con signo de una secuencia de transacciones en
// orden de creación. Para un (SKU, lote) fijo el resultado debe coincidir con el
// CurrentBalance de la última transacción: el ledger es la fuente de verdad.
func Replay(txs []*entity.StockTransaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		balance = balance.Add(SignedQuantity(tx))
	}
	return balance
}

// LotBalance es el saldo derivado de un lote dentro de un SKU.
type LotBalance struct {
	LotNumber string
	Balance   decimal.Decimal
}

// BalancesByLot agrupa transacciones de un SKU por lote y reproduce el saldo de
// cada uno. Sumar estos saldos (y no la suma ingenua de todas las transacciones
// con signo) evita contar dos veces un lote que pasó por cero y volvió a subir.
func BalancesByLot(txs []*entity.StockTransaction) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		balances[tx.LotNumber] = balances[tx.LotNumber].Add(SignedQuantity(tx))
	}
	return balances
}
