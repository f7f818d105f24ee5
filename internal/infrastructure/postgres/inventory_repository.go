package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo implementación de la proyección de inventario sobre PostgreSQL.
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de inventario. Pasar pool o tx.
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// GetByProduct devuelve la fila proyectada de un producto; nil si nunca se proyectó.
func (r *InventoryRepo) GetByProduct(ctx context.Context, productID string) (*entity.Inventory, error) {
	query := `
		SELECT id, product_id, name, stock, last_updated
		FROM inventory WHERE product_id = $1`
	var inv entity.Inventory
	err := r.q.QueryRow(ctx, query, productID).Scan(
		&inv.ID, &inv.ProductID, &inv.Name, &inv.Stock, &inv.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &inv, nil
}

// Upsert inserta o reemplaza la fila proyectada del producto.
func (r *InventoryRepo) Upsert(ctx context.Context, inv *entity.Inventory) error {
	query := `
		INSERT INTO inventory (id, product_id, name, stock, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id)
		DO UPDATE SET name = EXCLUDED.name, stock = EXCLUDED.stock, last_updated = EXCLUDED.last_updated`
	_, err := r.q.Exec(ctx, query, inv.ID, inv.ProductID, inv.Name, inv.Stock, inv.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert inventory: %w", err)
	}
	return nil
}

// List pagina la proyección por producto.
func (r *InventoryRepo) List(ctx context.Context, limit, offset int) ([]*entity.Inventory, error) {
	query := `
		SELECT id, product_id, name, stock, last_updated
		FROM inventory
		ORDER BY product_id ASC
		LIMIT NULLIF($1, 0) OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()
	var out []*entity.Inventory
	for rows.Next() {
		var inv entity.Inventory
		if err := rows.Scan(&inv.ID, &inv.ProductID, &inv.Name, &inv.Stock, &inv.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}
