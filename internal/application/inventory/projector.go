// Package inventory implementa el proyector de inventario: la fila
// desnormalizada de stock total por producto, derivada de sus lotes.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

// Projector recalcula la proyección de inventario. Es idempotente y seguro de
// ejecutar en concurrencia: siempre recalcula desde los lotes, nunca acumula.
type Projector struct {
	lots      repository.LotRepository
	inventory repository.InventoryRepository
	log       *logger.Logger
}

// NewProjector construye el proyector.
func NewProjector(lots repository.LotRepository, inventory repository.InventoryRepository, log *logger.Logger) *Projector {
	return &Projector{lots: lots, inventory: inventory, log: log}
}

// Recompute recalcula el stock total de un producto: la suma de CurrentQuantity
// de sus lotes en estado available o reserved. Los lotes expired, recalled y
// depleted no cuentan como disponibles.
func (p *Projector) Recompute(ctx context.Context, productID string) error {
	lots, err := p.lots.FindByProduct(ctx, productID, []string{
		entity.LotStatusAvailable,
		entity.LotStatusReserved,
	})
	if err != nil {
		return err
	}

	total := decimal.Zero
	name := ""
	for _, lot := range lots {
		total = total.Add(lot.CurrentQuantity)
		if name == "" {
			name = lot.SKU
		}
	}

	row, err := p.inventory.GetByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if row == nil {
		row = &entity.Inventory{ID: uuid.New().String(), ProductID: productID}
	}
	row.Stock = total
	if name != "" {
		row.Name = name
	}
	row.LastUpdated = time.Now()

	if err := p.inventory.Upsert(ctx, row); err != nil {
		return err
	}
	p.log.Debug().Str("product", productID).Str("stock", total.String()).Msg("inventario recalculado")
	return nil
}

// List devuelve las filas de la proyección.
func (p *Projector) List(ctx context.Context, limit, offset int) ([]*entity.Inventory, error) {
	return p.inventory.List(ctx, limit, offset)
}

// GetByProduct devuelve la fila de un producto, o nil si nunca se proyectó.
func (p *Projector) GetByProduct(ctx context.Context, productID string) (*entity.Inventory, error) {
	return p.inventory.GetByProduct(ctx, productID)
}
