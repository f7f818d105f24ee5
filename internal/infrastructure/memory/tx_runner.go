package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

// TxRunner serializa las "transacciones" en memoria con un mutex global y pasa
// los mismos repositorios a la función. No hay rollback: los tests que necesitan
// verificar atomicidad real usan la implementación de postgres.
type TxRunner struct {
	mu      sync.Mutex
	lots    repository.LotRepository
	history repository.StockHistoryRepository
}

// NewTxRunner construye el runner sobre los repositorios dados.
func NewTxRunner(lots repository.LotRepository, history repository.StockHistoryRepository) *TxRunner {
	return &TxRunner{lots: lots, history: history}
}

// Run ejecuta fn con los repositorios compartidos, una operación a la vez.
func (t *TxRunner) Run(_ context.Context, fn func(
	lots repository.LotRepository,
	history repository.StockHistoryRepository,
) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.lots, t.history)
}
