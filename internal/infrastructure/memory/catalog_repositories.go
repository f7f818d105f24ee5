package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var (
	_ repository.RecipeRepository      = (*RecipeRepository)(nil)
	_ repository.RawMaterialRepository = (*RawMaterialRepository)(nil)
	_ repository.InventoryRepository   = (*InventoryRepository)(nil)
)

// RecipeRepository almacena recetas en memoria, indexadas por código.
type RecipeRepository struct {
	mu      sync.RWMutex
	recipes map[string]*entity.Recipe
}

// NewRecipeRepository construye el repositorio vacío.
func NewRecipeRepository() *RecipeRepository {
	return &RecipeRepository{recipes: make(map[string]*entity.Recipe)}
}

func cloneRecipe(rc *entity.Recipe) *entity.Recipe {
	c := *rc
	c.Ingredients = append([]entity.Ingredient(nil), rc.Ingredients...)
	return &c
}

// Create guarda una receta; código duplicado devuelve domain.ErrDuplicate.
func (r *RecipeRepository) Create(_ context.Context, recipe *entity.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.recipes[recipe.Code]; exists {
		return domain.ErrDuplicate
	}
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = time.Now()
	}
	r.recipes[recipe.Code] = cloneRecipe(recipe)
	return nil
}

// GetByID busca por id surrogate.
func (r *RecipeRepository) GetByID(_ context.Context, id string) (*entity.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rc := range r.recipes {
		if rc.ID == id {
			return cloneRecipe(rc), nil
		}
	}
	return nil, nil
}

// GetByCode busca por código de receta.
func (r *RecipeRepository) GetByCode(_ context.Context, code string) (*entity.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rc, ok := r.recipes[code]; ok {
		return cloneRecipe(rc), nil
	}
	return nil, nil
}

// Update reemplaza la receta por su código.
func (r *RecipeRepository) Update(_ context.Context, recipe *entity.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recipes[recipe.Code]; !ok {
		return domain.ErrNotFound
	}
	r.recipes[recipe.Code] = cloneRecipe(recipe)
	return nil
}

// List pagina en orden de creación.
func (r *RecipeRepository) List(_ context.Context, limit, offset int) ([]*entity.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.Recipe
	for _, rc := range r.recipes {
		all = append(all, cloneRecipe(rc))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return paginateRecipes(all, limit, offset), nil
}

func paginateRecipes(all []*entity.Recipe, limit, offset int) []*entity.Recipe {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// RawMaterialRepository almacena materias primas en memoria, indexadas por SKU.
type RawMaterialRepository struct {
	mu        sync.RWMutex
	materials map[string]*entity.RawMaterial
}

// NewRawMaterialRepository construye el repositorio vacío.
func NewRawMaterialRepository() *RawMaterialRepository {
	return &RawMaterialRepository{materials: make(map[string]*entity.RawMaterial)}
}

// Create guarda una materia prima; SKU duplicado devuelve domain.ErrDuplicate.
func (r *RawMaterialRepository) Create(_ context.Context, material *entity.RawMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.materials[material.SKU]; exists {
		return domain.ErrDuplicate
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now()
	}
	c := *material
	r.materials[material.SKU] = &c
	return nil
}

// GetByID busca por id surrogate.
func (r *RawMaterialRepository) GetByID(_ context.Context, id string) (*entity.RawMaterial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.materials {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

// GetBySKU busca por SKU.
func (r *RawMaterialRepository) GetBySKU(_ context.Context, sku string) (*entity.RawMaterial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.materials[sku]; ok {
		c := *m
		return &c, nil
	}
	return nil, nil
}

// Update reemplaza la materia prima por su SKU.
func (r *RawMaterialRepository) Update(_ context.Context, material *entity.RawMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.materials[material.SKU]; !ok {
		return domain.ErrNotFound
	}
	c := *material
	r.materials[material.SKU] = &c
	return nil
}

// List pagina en orden de creación.
func (r *RawMaterialRepository) List(_ context.Context, limit, offset int) ([]*entity.RawMaterial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.RawMaterial
	for _, m := range r.materials {
		c := *m
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// InventoryRepository almacena la proyección de stock por producto.
type InventoryRepository struct {
	mu   sync.RWMutex
	rows map[string]*entity.Inventory // por productID
}

// NewInventoryRepository construye el repositorio vacío.
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{rows: make(map[string]*entity.Inventory)}
}

// GetByProduct devuelve la fila del producto, o nil si nunca se proyectó.
func (r *InventoryRepository) GetByProduct(_ context.Context, productID string) (*entity.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if row, ok := r.rows[productID]; ok {
		c := *row
		return &c, nil
	}
	return nil, nil
}

// Upsert inserta o reemplaza la fila del producto.
func (r *InventoryRepository) Upsert(_ context.Context, inv *entity.Inventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *inv
	r.rows[inv.ProductID] = &c
	return nil
}

// List pagina por productID.
func (r *InventoryRepository) List(_ context.Context, limit, offset int) ([]*entity.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.Inventory
	for _, row := range r.rows {
		c := *row
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ProductID < all[j].ProductID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
