package repository

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// RawMaterialRepository define el puerto de persistencia para materias primas.
type RawMaterialRepository interface {
	Create(ctx context.Context, material *entity.RawMaterial) error
	GetByID(ctx context.Context, id string) (*entity.RawMaterial, error)
	GetBySKU(ctx context.Context, sku string) (*entity.RawMaterial, error)
	Update(ctx context.Context, material *entity.RawMaterial) error
	List(ctx context.Context, limit, offset int) ([]*entity.RawMaterial, error)
}
