package repository

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para tandas de producción.
// Create devuelve domain.ErrDuplicate ante una violación de batchNumber.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetByNumber(ctx context.Context, batchNumber string) (*entity.Batch, error)
	Update(ctx context.Context, batch *entity.Batch) error
	List(ctx context.Context, limit, offset int) ([]*entity.Batch, error)
}
