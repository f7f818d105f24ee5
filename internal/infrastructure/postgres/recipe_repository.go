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

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo implementación de RecipeRepository sobre PostgreSQL. Los
// ingredientes viven como JSONB en la fila de la receta.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador de recetas. Pasar pool o tx.
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

const recipeColumns = `
	id, name, code, batch_size, total_cost, cost_per_unit, ingredients,
	created_at, updated_at`

func scanRecipe(row pgx.Row) (*entity.Recipe, error) {
	var rc entity.Recipe
	var ingredients []byte
	err := row.Scan(
		&rc.ID, &rc.Name, &rc.Code, &rc.BatchSize, &rc.TotalCost, &rc.CostPerUnit,
		&ingredients, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(ingredients) > 0 {
		if err := json.Unmarshal(ingredients, &rc.Ingredients); err != nil {
			return nil, fmt.Errorf("decode ingredients: %w", err)
		}
	}
	return &rc, nil
}

// Create inserta una receta; code duplicado devuelve domain.ErrDuplicate.
func (r *RecipeRepo) Create(ctx context.Context, recipe *entity.Recipe) error {
	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("encode ingredients: %w", err)
	}
	query := `
		INSERT INTO recipes (` + recipeColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.q.Exec(ctx, query,
		recipe.ID, recipe.Name, recipe.Code, recipe.BatchSize, recipe.TotalCost,
		recipe.CostPerUnit, ingredients, recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

// GetByID busca una receta por id; nil si no existe.
func (r *RecipeRepo) GetByID(ctx context.Context, id string) (*entity.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`
	recipe, err := scanRecipe(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// GetByCode busca una receta por código; nil si no existe.
func (r *RecipeRepo) GetByCode(ctx context.Context, code string) (*entity.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE code = $1`
	recipe, err := scanRecipe(r.q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recipe by code: %w", err)
	}
	return recipe, nil
}

// Update reemplaza los campos mutables de la receta.
func (r *RecipeRepo) Update(ctx context.Context, recipe *entity.Recipe) error {
	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("encode ingredients: %w", err)
	}
	query := `
		UPDATE recipes SET
			name = $2, batch_size = $3, total_cost = $4, cost_per_unit = $5,
			ingredients = $6, updated_at = $7
		WHERE code = $1`
	tag, err := r.q.Exec(ctx, query,
		recipe.Code, recipe.Name, recipe.BatchSize, recipe.TotalCost,
		recipe.CostPerUnit, ingredients, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List pagina las recetas por fecha de creación.
func (r *RecipeRepo) List(ctx context.Context, limit, offset int) ([]*entity.Recipe, error) {
	query := `
		SELECT ` + recipeColumns + `
		FROM recipes
		ORDER BY created_at ASC
		LIMIT NULLIF($1, 0) OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()
	var out []*entity.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		out = append(out, recipe)
	}
	return out, rows.Err()
}
