package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// StockHistoryRepository define el puerto de persistencia del ledger de stock.
// Las transacciones son append-only: nunca se actualizan ni se borran.
type StockHistoryRepository interface {
	Create(ctx context.Context, tx *entity.StockTransaction) error
	GetByID(ctx context.Context, id string) (*entity.StockTransaction, error)

	// LatestBalance devuelve el saldo registrado en la última transacción del par
	// (SKU, lote); cero si no existe ninguna.
	LatestBalance(ctx context.Context, sku, lotNumber string) (decimal.Decimal, error)

	// ListBySKU lista transacciones de un SKU en orden descendente de creación.
	ListBySKU(ctx context.Context, sku string, limit, offset int) ([]*entity.StockTransaction, error)

	// ListBySKUAndLot lista transacciones del par (SKU, lote) en orden ascendente
	// de creación (el orden de reproducción del ledger).
	ListBySKUAndLot(ctx context.Context, sku, lotNumber string) ([]*entity.StockTransaction, error)

	// CountNewerThan cuenta las transacciones creadas después del instante dado;
	// es el índice de una transacción dentro del listado descendente.
	CountNewerThan(ctx context.Context, createdAt time.Time) (int, error)
}
