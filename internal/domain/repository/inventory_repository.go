package repository

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// InventoryRepository define el puerto para la proyección de stock por producto.
// Derivada de los lotes; puede recalcularse de forma idempotente en cualquier momento.
type InventoryRepository interface {
	GetByProduct(ctx context.Context, productID string) (*entity.Inventory, error)
	Upsert(ctx context.Context, inv *entity.Inventory) error
	List(ctx context.Context, limit, offset int) ([]*entity.Inventory, error)
}
