package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL. Asignaciones y
// envíos parciales se guardan como JSONB en la fila del pedido.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de pedidos. Pasar pool o tx.
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `
	id, order_number, recipe_id, product_sku, customer_name, customer_contact,
	quantity, shipped_quantity, remaining_quantity, unit, status,
	fulfillment_method, fulfillment_status, lot_allocations, partial_shipments,
	production_quantity, production_batch, stock_deducted, notes, created_by,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	var allocations, shipments []byte
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.RecipeID, &o.ProductSKU, &o.CustomerName,
		&o.CustomerContact, &o.Quantity, &o.ShippedQuantity, &o.RemainingQuantity,
		&o.Unit, &o.Status, &o.FulfillmentMethod, &o.FulfillmentStatus,
		&allocations, &shipments, &o.ProductionQuantity, &o.ProductionBatch,
		&o.StockDeducted, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(allocations) > 0 {
		if err := json.Unmarshal(allocations, &o.LotAllocations); err != nil {
			return nil, fmt.Errorf("decode lot_allocations: %w", err)
		}
	}
	if len(shipments) > 0 {
		if err := json.Unmarshal(shipments, &o.PartialShipments); err != nil {
			return nil, fmt.Errorf("decode partial_shipments: %w", err)
		}
	}
	return &o, nil
}

func encodeOrderJSON(o *entity.Order) (allocations, shipments []byte, err error) {
	allocations, err = json.Marshal(o.LotAllocations)
	if err != nil {
		return nil, nil, fmt.Errorf("encode lot_allocations: %w", err)
	}
	shipments, err = json.Marshal(o.PartialShipments)
	if err != nil {
		return nil, nil, fmt.Errorf("encode partial_shipments: %w", err)
	}
	return allocations, shipments, nil
}

// Create inserta un pedido; order_number duplicado devuelve domain.ErrDuplicate.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	allocations, shipments, err := encodeOrderJSON(order)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`
	_, err = r.q.Exec(ctx, query,
		order.ID, order.OrderNumber, order.RecipeID, order.ProductSKU,
		order.CustomerName, order.CustomerContact, order.Quantity,
		order.ShippedQuantity, order.RemainingQuantity, order.Unit, order.Status,
		order.FulfillmentMethod, order.FulfillmentStatus, allocations, shipments,
		order.ProductionQuantity, order.ProductionBatch, order.StockDeducted,
		order.Notes, order.CreatedBy, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID busca un pedido por id; nil si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// GetByNumber busca un pedido por su clave natural; nil si no existe.
func (r *OrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	order, err := scanOrder(r.q.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}
	return order, nil
}

// Update reemplaza los campos mutables del pedido.
func (r *OrderRepo) Update(ctx context.Context, order *entity.Order) error {
	allocations, shipments, err := encodeOrderJSON(order)
	if err != nil {
		return err
	}
	query := `
		UPDATE orders SET
			status = $2, shipped_quantity = $3, remaining_quantity = $4,
			fulfillment_method = $5, fulfillment_status = $6, lot_allocations = $7,
			partial_shipments = $8, production_quantity = $9, production_batch = $10,
			stock_deducted = $11, notes = $12, updated_at = $13
		WHERE order_number = $1`
	tag, err := r.q.Exec(ctx, query,
		order.OrderNumber, order.Status, order.ShippedQuantity,
		order.RemainingQuantity, order.FulfillmentMethod, order.FulfillmentStatus,
		allocations, shipments, order.ProductionQuantity, order.ProductionBatch,
		order.StockDeducted, order.Notes, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List pagina los pedidos por fecha de creación.
func (r *OrderRepo) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at ASC
		LIMIT NULLIF($1, 0) OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return collectOrders(rows)
}

// ListByLot devuelve los pedidos cuya asignación incluye el lote dado (búsqueda
// dentro del JSONB de asignaciones).
func (r *OrderRepo) ListByLot(ctx context.Context, lotNumber string) ([]*entity.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE lot_allocations @> jsonb_build_array(jsonb_build_object('lotNumber', $1::text))
		ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, lotNumber)
	if err != nil {
		return nil, fmt.Errorf("list orders by lot: %w", err)
	}
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]*entity.Order, error) {
	defer rows.Close()
	var out []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, order)
	}
	return out, rows.Err()
}
