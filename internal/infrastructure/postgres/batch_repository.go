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

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL. La selección
// manual de lotes por materia prima se guarda como JSONB.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de tandas. Pasar pool o tx.
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `
	id, batch_number, recipe_id, product_sku, quantity, actual_quantity, wastage,
	unit, status, total_cost, currency, production_date, raw_material_lots,
	quality_check_result, quality_checked_by, quality_checked_at, quality_check_notes,
	notes, created_by, created_at, updated_at`

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	var rawLots []byte
	err := row.Scan(
		&b.ID, &b.BatchNumber, &b.RecipeID, &b.ProductSKU, &b.Quantity,
		&b.ActualQuantity, &b.Wastage, &b.Unit, &b.Status, &b.TotalCost,
		&b.Currency, &b.ProductionDate, &rawLots, &b.QualityCheckResult,
		&b.QualityCheckedBy, &b.QualityCheckedAt, &b.QualityCheckNotes,
		&b.Notes, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rawLots) > 0 {
		if err := json.Unmarshal(rawLots, &b.RawMaterialLots); err != nil {
			return nil, fmt.Errorf("decode raw_material_lots: %w", err)
		}
	}
	return &b, nil
}

func encodeRawLots(b *entity.Batch) ([]byte, error) {
	if b.RawMaterialLots == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b.RawMaterialLots)
}

// Create inserta una tanda; batch_number duplicado devuelve domain.ErrDuplicate.
func (r *BatchRepo) Create(ctx context.Context, batch *entity.Batch) error {
	rawLots, err := encodeRawLots(batch)
	if err != nil {
		return fmt.Errorf("encode raw_material_lots: %w", err)
	}
	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`
	_, err = r.q.Exec(ctx, query,
		batch.ID, batch.BatchNumber, batch.RecipeID, batch.ProductSKU, batch.Quantity,
		batch.ActualQuantity, batch.Wastage, batch.Unit, batch.Status, batch.TotalCost,
		batch.Currency, batch.ProductionDate, rawLots, batch.QualityCheckResult,
		batch.QualityCheckedBy, batch.QualityCheckedAt, batch.QualityCheckNotes,
		batch.Notes, batch.CreatedBy, batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID busca una tanda por id; nil si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`
	batch, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return batch, nil
}

// GetByNumber busca una tanda por su clave natural; nil si no existe.
func (r *BatchRepo) GetByNumber(ctx context.Context, batchNumber string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE batch_number = $1`
	batch, err := scanBatch(r.q.QueryRow(ctx, query, batchNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch by number: %w", err)
	}
	return batch, nil
}

// Update reemplaza los campos mutables de la tanda.
func (r *BatchRepo) Update(ctx context.Context, batch *entity.Batch) error {
	rawLots, err := encodeRawLots(batch)
	if err != nil {
		return fmt.Errorf("encode raw_material_lots: %w", err)
	}
	query := `
		UPDATE batches SET
			status = $2, actual_quantity = $3, wastage = $4, total_cost = $5,
			raw_material_lots = $6, quality_check_result = $7, quality_checked_by = $8,
			quality_checked_at = $9, quality_check_notes = $10, notes = $11, updated_at = $12
		WHERE batch_number = $1`
	tag, err := r.q.Exec(ctx, query,
		batch.BatchNumber, batch.Status, batch.ActualQuantity, batch.Wastage,
		batch.TotalCost, rawLots, batch.QualityCheckResult, batch.QualityCheckedBy,
		batch.QualityCheckedAt, batch.QualityCheckNotes, batch.Notes, batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List pagina las tandas por fecha de creación.
func (r *BatchRepo) List(ctx context.Context, limit, offset int) ([]*entity.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		ORDER BY created_at ASC
		LIMIT NULLIF($1, 0) OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	var out []*entity.Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, batch)
	}
	return out, rows.Err()
}
