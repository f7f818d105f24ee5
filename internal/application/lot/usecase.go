// Package lot implementa las consultas y ajustes sobre el registro de lotes.
// Los lotes nacen solo de la finalización de una tanda o de una entrada de
// compra; acá no hay alta directa.
package lot

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/application/stock"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
	"github.com/jhoicas/produccion-api/pkg/logger"
	"github.com/jhoicas/produccion-api/pkg/natural"
)

// UseCase agrupa las operaciones de consulta y ajuste de lotes.
type UseCase struct {
	lots    repository.LotRepository
	history repository.StockHistoryRepository
	orders  repository.OrderRepository
	stock   *stock.UseCase
	log     *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	lots repository.LotRepository,
	history repository.StockHistoryRepository,
	orders repository.OrderRepository,
	stockUC *stock.UseCase,
	log *logger.Logger,
) *UseCase {
	return &UseCase{lots: lots, history: history, orders: orders, stock: stockUC, log: log}
}

// Get devuelve un lote por id o por número.
func (uc *UseCase) Get(ctx context.Context, idOrNumber string) (*entity.Lot, error) {
	lot, err := uc.lots.GetByID(ctx, idOrNumber)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		lot, err = uc.lots.GetByNumber(ctx, natural.Key(idOrNumber))
		if err != nil {
			return nil, err
		}
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	return lot, nil
}

// List pagina los lotes.
func (uc *UseCase) List(ctx context.Context, limit, offset int) ([]*entity.Lot, error) {
	return uc.lots.List(ctx, limit, offset)
}

// ByProduct devuelve los lotes de un producto, opcionalmente filtrados por estado.
func (uc *UseCase) ByProduct(ctx context.Context, productID string, statuses []string) ([]*entity.Lot, error) {
	return uc.lots.FindByProduct(ctx, productID, statuses)
}

// Expiring devuelve los lotes con cantidad que caducan dentro del horizonte dado.
func (uc *UseCase) Expiring(ctx context.Context, days int) ([]*entity.Lot, error) {
	if days <= 0 {
		days = 30
	}
	until := time.Now().AddDate(0, 0, days)
	return uc.lots.FindExpiring(ctx, until)
}

// Adjust registra un ajuste manual decreciente contra el lote, con su entrada
// en el ledger.
func (uc *UseCase) Adjust(ctx context.Context, idOrNumber string, quantity decimal.Decimal, notes, performedBy string) (*entity.StockTransaction, error) {
	lot, err := uc.Get(ctx, idOrNumber)
	if err != nil {
		return nil, err
	}
	return uc.stock.AdjustStock(ctx, lot.SKU, lot.LotNumber, quantity, notes, performedBy)
}

// History es la trazabilidad completa de un lote: su estado actual, sus
// transacciones de ledger en orden de reproducción y los pedidos que lo tienen
// asignado.
type History struct {
	Lot          *entity.Lot                `json:"lot"`
	Transactions []*entity.StockTransaction `json:"transactions"`
	Orders       []*entity.Order            `json:"orders"`
}

// TraceHistory arma la trazabilidad de un lote.
func (uc *UseCase) TraceHistory(ctx context.Context, idOrNumber string) (*History, error) {
	lot, err := uc.Get(ctx, idOrNumber)
	if err != nil {
		return nil, err
	}
	txs, err := uc.history.ListBySKUAndLot(ctx, lot.SKU, lot.LotNumber)
	if err != nil {
		return nil, err
	}
	orders, err := uc.orders.ListByLot(ctx, lot.LotNumber)
	if err != nil {
		return nil, err
	}
	return &History{Lot: lot, Transactions: txs, Orders: orders}, nil
}
