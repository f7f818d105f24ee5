package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.StockHistoryRepository = (*StockHistoryRepository)(nil)

// StockHistoryRepository almacena el ledger en memoria, append-only.
type StockHistoryRepository struct {
	mu  sync.RWMutex
	txs []*entity.StockTransaction
	seq int64
}

// NewStockHistoryRepository construye el repositorio vacío.
func NewStockHistoryRepository() *StockHistoryRepository {
	return &StockHistoryRepository{}
}

// Create agrega una transacción. Asigna un CreatedAt estrictamente creciente si
// viene repetido, para que el orden de reproducción sea estable.
func (r *StockHistoryRepository) Create(_ context.Context, tx *entity.StockTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *tx
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.seq++
	c.CreatedAt = c.CreatedAt.Add(time.Duration(r.seq) * time.Nanosecond)
	r.txs = append(r.txs, &c)
	return nil
}

// GetByID busca una transacción por id.
func (r *StockHistoryRepository) GetByID(_ context.Context, id string) (*entity.StockTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tx := range r.txs {
		if tx.ID == id {
			c := *tx
			return &c, nil
		}
	}
	return nil, nil
}

// LatestBalance devuelve el saldo de la última transacción del par (SKU, lote).
func (r *StockHistoryRepository) LatestBalance(_ context.Context, sku, lotNumber string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.txs) - 1; i >= 0; i-- {
		tx := r.txs[i]
		if tx.SKU == sku && tx.LotNumber == lotNumber {
			return tx.CurrentBalance, nil
		}
	}
	return decimal.Zero, nil
}

// ListBySKU lista descendente por creación, con paginación.
func (r *StockHistoryRepository) ListBySKU(_ context.Context, sku string, limit, offset int) ([]*entity.StockTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.StockTransaction
	for _, tx := range r.txs {
		if tx.SKU == sku {
			c := *tx
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ListBySKUAndLot lista ascendente por creación (orden de reproducción).
func (r *StockHistoryRepository) ListBySKUAndLot(_ context.Context, sku, lotNumber string) ([]*entity.StockTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.StockTransaction
	for _, tx := range r.txs {
		if tx.SKU == sku && tx.LotNumber == lotNumber {
			c := *tx
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CountNewerThan cuenta transacciones posteriores al instante dado.
func (r *StockHistoryRepository) CountNewerThan(_ context.Context, createdAt time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, tx := range r.txs {
		if tx.CreatedAt.After(createdAt) {
			count++
		}
	}
	return count, nil
}
