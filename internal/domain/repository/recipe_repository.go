package repository

import (
	"context"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// RecipeRepository define el puerto de persistencia para recetas (con ingredientes).
type RecipeRepository interface {
	Create(ctx context.Context, recipe *entity.Recipe) error
	GetByID(ctx context.Context, id string) (*entity.Recipe, error)
	GetByCode(ctx context.Context, code string) (*entity.Recipe, error)
	Update(ctx context.Context, recipe *entity.Recipe) error
	List(ctx context.Context, limit, offset int) ([]*entity.Recipe, error)
}
