package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `
	id, lot_number, product_id, batch_id, sku, production_date, expiry_date,
	initial_quantity, current_quantity, unit, unit_cost, total_cost, status,
	quality_check_result, notes, created_at, updated_at`

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(
		&l.ID, &l.LotNumber, &l.ProductID, &l.BatchID, &l.SKU, &l.ProductionDate,
		&l.ExpiryDate, &l.InitialQuantity, &l.CurrentQuantity, &l.Unit, &l.UnitCost,
		&l.TotalCost, &l.Status, &l.QualityCheckResult, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLots(rows pgx.Rows) ([]*entity.Lot, error) {
	defer rows.Close()
	var out []*entity.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		out = append(out, lot)
	}
	return out, rows.Err()
}

// Create inserta un lote; lot_number duplicado devuelve domain.ErrDuplicate.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.LotNumber, lot.ProductID, lot.BatchID, lot.SKU, lot.ProductionDate,
		lot.ExpiryDate, lot.InitialQuantity, lot.CurrentQuantity, lot.Unit, lot.UnitCost,
		lot.TotalCost, lot.Status, lot.QualityCheckResult, lot.Notes, lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// GetByID busca un lote por id; nil si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`
	lot, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

// GetByNumber busca un lote por su clave natural; nil si no existe.
func (r *LotRepo) GetByNumber(ctx context.Context, lotNumber string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE lot_number = $1`
	lot, err := scanLot(r.q.QueryRow(ctx, query, lotNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot by number: %w", err)
	}
	return lot, nil
}

// GetByNumberForUpdate bloquea la fila del lote (SELECT FOR UPDATE).
func (r *LotRepo) GetByNumberForUpdate(ctx context.Context, lotNumber string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE lot_number = $1 FOR UPDATE`
	lot, err := scanLot(r.q.QueryRow(ctx, query, lotNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot for update: %w", err)
	}
	return lot, nil
}

// Update reemplaza los campos mutables del lote.
func (r *LotRepo) Update(ctx context.Context, lot *entity.Lot) error {
	query := `
		UPDATE lots SET
			current_quantity = $2, status = $3, quality_check_result = $4,
			notes = $5, expiry_date = $6, initial_quantity = $7, updated_at = $8
		WHERE lot_number = $1`
	tag, err := r.q.Exec(ctx, query,
		lot.LotNumber, lot.CurrentQuantity, lot.Status, lot.QualityCheckResult,
		lot.Notes, lot.ExpiryDate, lot.InitialQuantity, lot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindAvailableByProduct devuelve los lotes asignables de un producto en orden
// FIFO. El triple orden es obligatorio: fechas de producción y caducidad pueden
// coincidir entre lotes de una misma tanda y el id desempata de forma estable.
func (r *LotRepo) FindAvailableByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE product_id = $1 AND status = 'available' AND current_quantity > 0
		ORDER BY production_date ASC, expiry_date ASC, id ASC`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("find available lots: %w", err)
	}
	return collectLots(rows)
}

// FindByProduct filtra por producto y estados (todos si la lista viene vacía).
func (r *LotRepo) FindByProduct(ctx context.Context, productID string, statuses []string) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE product_id = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2))
		ORDER BY production_date ASC, expiry_date ASC, id ASC`
	rows, err := r.q.Query(ctx, query, productID, statuses)
	if err != nil {
		return nil, fmt.Errorf("find lots by product: %w", err)
	}
	return collectLots(rows)
}

// FindExpiring devuelve lotes con cantidad que caducan entre hoy y el horizonte.
func (r *LotRepo) FindExpiring(ctx context.Context, until time.Time) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE status IN ('available','reserved')
		  AND current_quantity > 0
		  AND expiry_date >= CURRENT_DATE AND expiry_date <= $1
		ORDER BY expiry_date ASC`
	rows, err := r.q.Query(ctx, query, until)
	if err != nil {
		return nil, fmt.Errorf("find expiring lots: %w", err)
	}
	return collectLots(rows)
}

// List pagina todos los lotes por fecha de creación.
func (r *LotRepo) List(ctx context.Context, limit, offset int) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		ORDER BY created_at ASC
		LIMIT NULLIF($1, 0) OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return collectLots(rows)
}
