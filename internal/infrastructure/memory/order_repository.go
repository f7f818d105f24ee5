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

var _ repository.OrderRepository = (*OrderRepository)(nil)

// OrderRepository almacena pedidos en memoria.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*entity.Order // por orderNumber
}

// NewOrderRepository construye el repositorio vacío.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*entity.Order)}
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.LotAllocations = append([]entity.LotAllocation(nil), o.LotAllocations...)
	c.PartialShipments = make([]entity.PartialShipment, len(o.PartialShipments))
	for i, s := range o.PartialShipments {
		cs := s
		cs.Lots = append([]entity.LotAllocation(nil), s.Lots...)
		c.PartialShipments[i] = cs
	}
	return &c
}

// Create guarda un pedido; orderNumber duplicado devuelve domain.ErrDuplicate.
func (r *OrderRepository) Create(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.OrderNumber]; exists {
		return domain.ErrDuplicate
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	r.orders[order.OrderNumber] = cloneOrder(order)
	return nil
}

// GetByID busca por id surrogate.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

// GetByNumber busca por clave natural.
func (r *OrderRepository) GetByNumber(_ context.Context, orderNumber string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.orders[orderNumber]; ok {
		return cloneOrder(o), nil
	}
	return nil, nil
}

// Update reemplaza el pedido por su orderNumber.
func (r *OrderRepository) Update(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.OrderNumber]; !ok {
		return domain.ErrNotFound
	}
	r.orders[order.OrderNumber] = cloneOrder(order)
	return nil
}

// List pagina en orden de creación.
func (r *OrderRepository) List(_ context.Context, limit, offset int) ([]*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.Order
	for _, o := range r.orders {
		all = append(all, cloneOrder(o))
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

// ListByLot devuelve los pedidos cuya asignación incluye el lote dado.
func (r *OrderRepository) ListByLot(_ context.Context, lotNumber string) ([]*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Order
	for _, o := range r.orders {
		for _, a := range o.LotAllocations {
			if a.LotNumber == lotNumber {
				out = append(out, cloneOrder(o))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
