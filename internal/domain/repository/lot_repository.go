package repository

import (
	"context"
	"time"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para lotes.
// Create devuelve domain.ErrDuplicate ante una violación de la clave natural lotNumber.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	GetByNumber(ctx context.Context, lotNumber string) (*entity.Lot, error)

	// GetByNumberForUpdate bloquea la fila del lote (SELECT FOR UPDATE) para el
	// camino de commit de asignaciones; usar solo dentro de una transacción.
	GetByNumberForUpdate(ctx context.Context, lotNumber string) (*entity.Lot, error)

	Update(ctx context.Context, lot *entity.Lot) error

	// FindAvailableByProduct devuelve los lotes asignables de un producto
	// (status = available y currentQuantity > 0) ordenados por
	// (productionDate asc, expiryDate asc, id asc). El triple orden es
	// obligatorio: las fechas pueden colisionar entre lotes de la misma tanda y
	// el desempate final por identidad garantiza asignación determinista.
	FindAvailableByProduct(ctx context.Context, productID string) ([]*entity.Lot, error)

	// FindByProduct filtra por producto y estados (proyector de inventario).
	FindByProduct(ctx context.Context, productID string, statuses []string) ([]*entity.Lot, error)

	// FindExpiring devuelve lotes con caducidad entre hoy y el horizonte dado,
	// aún con cantidad, ordenados por caducidad ascendente.
	FindExpiring(ctx context.Context, until time.Time) ([]*entity.Lot, error)

	// List pagina todos los lotes (barrido de conciliación).
	List(ctx context.Context, limit, offset int) ([]*entity.Lot, error)
}
