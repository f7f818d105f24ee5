package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.RawMaterialRepository = (*RawMaterialRepo)(nil)

// RawMaterialRepo implementación de RawMaterialRepository sobre PostgreSQL.
type RawMaterialRepo struct {
	q Querier
}

// NewRawMaterialRepository construye el adaptador de materias primas. Pasar pool o tx.
func NewRawMaterialRepository(q Querier) *RawMaterialRepo {
	return &RawMaterialRepo{q: q}
}

const materialColumns = `
	id, sku, name, unit, price_per_unit, currency, created_at, updated_at`

func scanMaterial(row pgx.Row) (*entity.RawMaterial, error) {
	var m entity.RawMaterial
	err := row.Scan(
		&m.ID, &m.SKU, &m.Name, &m.Unit, &m.PricePerUnit, &m.Currency,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserta una materia prima; SKU duplicado devuelve domain.ErrDuplicate.
func (r *RawMaterialRepo) Create(ctx context.Context, material *entity.RawMaterial) error {
	query := `
		INSERT INTO raw_materials (` + materialColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.q.Exec(ctx, query,
		material.ID, material.SKU, material.Name, material.Unit,
		material.PricePerUnit, material.Currency, material.CreatedAt, material.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert raw material: %w", err)
	}
	return nil
}

// GetByID busca una materia prima por id; nil si no existe.
func (r *RawMaterialRepo) GetByID(ctx context.Context, id string) (*entity.RawMaterial, error) {
	query := `SELECT ` + materialColumns + ` FROM raw_materials WHERE id = $1`
	material, err := scanMaterial(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get raw material: %w", err)
	}
	return material, nil
}

// GetBySKU busca una materia prima por SKU; nil si no existe.
func (r *RawMaterialRepo) GetBySKU(ctx context.Context, sku string) (*entity.RawMaterial, error) {
	query := `SELECT ` + materialColumns + ` FROM raw_materials WHERE sku = $1`
	material, err := scanMaterial(r.q.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get raw material by sku: %w", err)
	}
	return material, nil
}

// Update reemplaza los campos mutables de la materia prima.
func (r *RawMaterialRepo) Update(ctx context.Context, material *entity.RawMaterial) error {
	query := `
		UPDATE raw_materials SET
			name = $2, unit = $3, price_per_unit = $4, currency = $5, updated_at = $6
		WHERE sku = $1`
	tag, err := r.q.Exec(ctx, query,
		material.SKU, material.Name, material.Unit, material.PricePerUnit,
		material.Currency, material.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update raw material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List pagina las materias primas por fecha de creación.
func (r *RawMaterialRepo) List(ctx context.Context, limit, offset int) ([]*entity.RawMaterial, error) {
	query := `
		SELECT ` + materialColumns + `
		FROM raw_materials
		ORDER BY created_at ASC
		LIMIT NULLIF($1, 0) OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list raw materials: %w", err)
	}
	defer rows.Close()
	var out []*entity.RawMaterial
	for rows.Next() {
		material, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan raw material: %w", err)
		}
		out = append(out, material)
	}
	return out, rows.Err()
}
