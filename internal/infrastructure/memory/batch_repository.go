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

var _ repository.BatchRepository = (*BatchRepository)(nil)

// BatchRepository almacena tandas de producción en memoria.
type BatchRepository struct {
	mu      sync.RWMutex
	batches map[string]*entity.Batch // por batchNumber
}

// NewBatchRepository construye el repositorio vacío.
func NewBatchRepository() *BatchRepository {
	return &BatchRepository{batches: make(map[string]*entity.Batch)}
}

func cloneBatch(b *entity.Batch) *entity.Batch {
	c := *b
	if b.RawMaterialLots != nil {
		c.RawMaterialLots = make(map[string][]entity.LotSelection, len(b.RawMaterialLots))
		for sku, sels := range b.RawMaterialLots {
			c.RawMaterialLots[sku] = append([]entity.LotSelection(nil), sels...)
		}
	}
	return &c
}

// Create guarda una tanda; batchNumber duplicado devuelve domain.ErrDuplicate.
func (r *BatchRepository) Create(_ context.Context, batch *entity.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.batches[batch.BatchNumber]; exists {
		return domain.ErrDuplicate
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now()
	}
	r.batches[batch.BatchNumber] = cloneBatch(batch)
	return nil
}

// GetByID busca por id surrogate.
func (r *BatchRepository) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.batches {
		if b.ID == id {
			return cloneBatch(b), nil
		}
	}
	return nil, nil
}

// GetByNumber busca por clave natural.
func (r *BatchRepository) GetByNumber(_ context.Context, batchNumber string) (*entity.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.batches[batchNumber]; ok {
		return cloneBatch(b), nil
	}
	return nil, nil
}

// Update reemplaza la tanda por su batchNumber.
func (r *BatchRepository) Update(_ context.Context, batch *entity.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[batch.BatchNumber]; !ok {
		return domain.ErrNotFound
	}
	r.batches[batch.BatchNumber] = cloneBatch(batch)
	return nil
}

// List pagina en orden de creación.
func (r *BatchRepository) List(_ context.Context, limit, offset int) ([]*entity.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.Batch
	for _, b := range r.batches {
		all = append(all, cloneBatch(b))
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
