package allocation

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando los
// repositorios de lotes y ledger atados a esa tx. Es la unidad de trabajo que
// garantiza que el descuento del lote y su transacción de ledger se confirman
// juntos (o ninguno).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lots repository.LotRepository,
		history repository.StockHistoryRepository,
	) error) error
}
