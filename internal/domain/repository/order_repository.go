package repository

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para pedidos.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	List(ctx context.Context, limit, offset int) ([]*entity.Order, error)

	// ListByLot devuelve los pedidos cuya asignación incluye el lote dado
	// (historial de trazabilidad de un lote).
	ListByLot(ctx context.Context, lotNumber string) ([]*entity.Order, error)
}
