// Package memory implementa los puertos de persistencia en memoria, con la misma
// semántica que los adaptadores de PostgreSQL (orden, bloqueos lógicos, claves
// únicas). Se usa en tests y para correr la API sin base de datos.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepository)(nil)

// LotRepository almacena lotes en memoria.
type LotRepository struct {
	mu   sync.RWMutex
	lots map[string]*entity.Lot // por lotNumber
	seq  int
}

// NewLotRepository construye el repositorio vacío.
func NewLotRepository() *LotRepository {
	return &LotRepository{lots: make(map[string]*entity.Lot)}
}

func (r *LotRepository) clone(l *entity.Lot) *entity.Lot {
	c := *l
	return &c
}

// Create guarda un lote; lotNumber duplicado devuelve domain.ErrDuplicate.
func (r *LotRepository) Create(_ context.Context, lot *entity.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.lots[lot.LotNumber]; exists {
		return domain.ErrDuplicate
	}
	r.seq++
	if lot.CreatedAt.IsZero() {
		lot.CreatedAt = time.Now()
	}
	r.lots[lot.LotNumber] = r.clone(lot)
	return nil
}

// GetByID busca por id surrogate.
func (r *LotRepository) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.lots {
		if l.ID == id {
			return r.clone(l), nil
		}
	}
	return nil, nil
}

// GetByNumber busca por clave natural.
func (r *LotRepository) GetByNumber(_ context.Context, lotNumber string) (*entity.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.lots[lotNumber]; ok {
		return r.clone(l), nil
	}
	return nil, nil
}

// GetByNumberForUpdate equivale a GetByNumber: en memoria el mutex del
// repositorio hace de bloqueo de fila.
func (r *LotRepository) GetByNumberForUpdate(ctx context.Context, lotNumber string) (*entity.Lot, error) {
	return r.GetByNumber(ctx, lotNumber)
}

// Update reemplaza el lote por su lotNumber.
func (r *LotRepository) Update(_ context.Context, lot *entity.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[lot.LotNumber]; !ok {
		return domain.ErrNotFound
	}
	r.lots[lot.LotNumber] = r.clone(lot)
	return nil
}

// FindAvailableByProduct devuelve lotes asignables con el triple orden FIFO.
func (r *LotRepository) FindAvailableByProduct(_ context.Context, productID string) ([]*entity.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Lot
	for _, l := range r.lots {
		if l.ProductID == productID && l.Status == entity.LotStatusAvailable && l.CurrentQuantity.GreaterThan(decimal.Zero) {
			out = append(out, r.clone(l))
		}
	}
	sortFIFO(out)
	return out, nil
}

// FindByProduct filtra por producto y estados.
func (r *LotRepository) FindByProduct(_ context.Context, productID string, statuses []string) ([]*entity.Lot, error) {
	allowed := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Lot
	for _, l := range r.lots {
		if l.ProductID == productID && (len(statuses) == 0 || allowed[l.Status]) {
			out = append(out, r.clone(l))
		}
	}
	sortFIFO(out)
	return out, nil
}

// FindExpiring devuelve lotes con caducidad entre hoy y el horizonte, con cantidad.
func (r *LotRepository) FindExpiring(_ context.Context, until time.Time) ([]*entity.Lot, error) {
	now := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Lot
	for _, l := range r.lots {
		if l.ExpiryDate.IsZero() || l.CurrentQuantity.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if (l.Status == entity.LotStatusAvailable || l.Status == entity.LotStatusReserved) &&
			!l.ExpiryDate.After(until) && !l.ExpiryDate.Before(now.Truncate(24*time.Hour)) {
			out = append(out, r.clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}

// List pagina todos los lotes en orden de creación.
func (r *LotRepository) List(_ context.Context, limit, offset int) ([]*entity.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.Lot
	for _, l := range r.lots {
		all = append(all, r.clone(l))
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

// sortFIFO ordena por (productionDate, expiryDate, id): el orden de asignación.
func sortFIFO(lots []*entity.Lot) {
	sort.Slice(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.ProductionDate.Equal(b.ProductionDate) {
			return a.ProductionDate.Before(b.ProductionDate)
		}
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		return a.ID < b.ID
	})
}
