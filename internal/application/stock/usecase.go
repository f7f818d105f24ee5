// Package stock implementa los casos de uso del ledger de stock: entradas de
// compra, salidas directas, consultas de saldo y el barrido de conciliación
// lote vs ledger.
package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/application/allocation"
	"github.com/jhoicas/produccion-api/internal/application/ports"
	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/ledger"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
	"github.com/jhoicas/produccion-api/pkg/logger"
	"github.com/jhoicas/produccion-api/pkg/metrics"
	"github.com/jhoicas/produccion-api/pkg/natural"
)

// Projector recalcula la proyección de inventario de un producto.
type Projector interface {
	Recompute(ctx context.Context, productID string) error
}

// decreasingTypes son los tipos admitidos en una salida directa de stock.
var decreasingTypes = map[string]bool{
	entity.TxTypeUsage:      true,
	entity.TxTypeSale:       true,
	entity.TxTypeWaste:      true,
	entity.TxTypeAdjustment: true,
	entity.TxTypeTransfer:   true,
}

// UseCase agrupa las operaciones del ledger de stock.
type UseCase struct {
	history   repository.StockHistoryRepository
	lots      repository.LotRepository
	txRunner  allocation.TxRunner
	projector Projector
	notifier  ports.Notifier
	log       *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	history repository.StockHistoryRepository,
	lots repository.LotRepository,
	txRunner allocation.TxRunner,
	projector Projector,
	notifier ports.Notifier,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		history:   history,
		lots:      lots,
		txRunner:  txRunner,
		projector: projector,
		notifier:  notifier,
		log:       log,
	}
}

// AddStockInput es una entrada de compra de materia prima o producto.
type AddStockInput struct {
	SKU          string
	LotNumber    string
	ProductID    string
	Quantity     decimal.Decimal
	Unit         string
	PricePerUnit decimal.Decimal
	Currency     string
	Supplier     string
	ExpiryDate   time.Time
	Notes        string
	PerformedBy  string
}

// AddStock registra una entrada de compra: crea el lote si no existe (o lo
// incrementa si existe) y agrega la transacción purchase con el saldo del par
// (SKU, lote) después de la entrada. Lote y ledger se escriben en una misma
// transacción.
func (uc *UseCase) AddStock(ctx context.Context, in AddStockInput) (*entity.StockTransaction, error) {
	if in.SKU == "" || in.LotNumber == "" || in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	lotNumber := natural.Key(in.LotNumber)
	now := time.Now()
	var created *entity.StockTransaction

	err := uc.txRunner.Run(ctx, func(lots repository.LotRepository, history repository.StockHistoryRepository) error {
		lot, err := lots.GetByNumberForUpdate(ctx, lotNumber)
		if err != nil {
			return err
		}
		if lot == nil {
			lot = &entity.Lot{
				ID:              uuid.New().String(),
				LotNumber:       lotNumber,
				ProductID:       in.ProductID,
				SKU:             in.SKU,
				ProductionDate:  now,
				ExpiryDate:      in.ExpiryDate,
				InitialQuantity: in.Quantity,
				CurrentQuantity: in.Quantity,
				Unit:            in.Unit,
				UnitCost:        in.PricePerUnit,
				TotalCost:       in.PricePerUnit.Mul(in.Quantity),
				Status:          entity.LotStatusAvailable,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := lots.Create(ctx, lot); err != nil {
				return err
			}
		} else {
			lot.CurrentQuantity = lot.CurrentQuantity.Add(in.Quantity)
			lot.InitialQuantity = lot.InitialQuantity.Add(in.Quantity)
			lot.Normalize(now)
			lot.UpdatedAt = now
			if err := lots.Update(ctx, lot); err != nil {
				return err
			}
		}

		previous, err := history.LatestBalance(ctx, in.SKU, lotNumber)
		if err != nil {
			return err
		}
		tx := &entity.StockTransaction{
			ID:              uuid.New().String(),
			SKU:             in.SKU,
			LotNumber:       lotNumber,
			TransactionType: entity.TxTypePurchase,
			Quantity:        in.Quantity,
			Unit:            in.Unit,
			PricePerUnit:    in.PricePerUnit,
			Currency:        in.Currency,
			TotalCost:       in.PricePerUnit.Mul(in.Quantity),
			CurrentBalance:  previous.Add(in.Quantity),
			ReferenceType:   entity.RefTypePurchase,
			Supplier:        in.Supplier,
			Notes:           in.Notes,
			PerformedBy:     in.PerformedBy,
			CreatedAt:       now,
		}
		if err := history.Create(ctx, tx); err != nil {
			return err
		}
		metrics.LedgerTransactions.WithLabelValues(entity.TxTypePurchase).Inc()
		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.ProductID != "" {
		if err := uc.projector.Recompute(ctx, in.ProductID); err != nil {
			uc.log.Warn().Err(err).Str("product", in.ProductID).Msg("no se pudo recalcular inventario")
		}
	}
	uc.notifier.Publish("stock.added", created)
	return created, nil
}

// DeductStockInput es una salida directa de stock contra un lote concreto.
type DeductStockInput struct {
	SKU             string
	LotNumber       string
	TransactionType string // usage, sale, waste, adjustment, transfer
	Quantity        decimal.Decimal
	ReferenceType   string
	ReferenceNumber string
	Notes           string
	PerformedBy     string
}

// DeductStock registra una salida: relee el lote bajo bloqueo, verifica la
// suficiencia, descuenta y agrega la transacción decreciente. Un tipo creciente
// o desconocido es ErrInvalidInput: el ledger no repara tipos, eso es política
// de las máquinas de estado.
func (uc *UseCase) DeductStock(ctx context.Context, in DeductStockInput) (*entity.StockTransaction, error) {
	if in.SKU == "" || in.LotNumber == "" || in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if !decreasingTypes[in.TransactionType] {
		return nil, domain.ErrInvalidInput
	}
	lotNumber := natural.Key(in.LotNumber)
	now := time.Now()
	var created *entity.StockTransaction
	var productID string

	err := uc.txRunner.Run(ctx, func(lots repository.LotRepository, history repository.StockHistoryRepository) error {
		lot, err := lots.GetByNumberForUpdate(ctx, lotNumber)
		if err != nil {
			return err
		}
		if lot == nil {
			return domain.ErrNotFound
		}
		if lot.CurrentQuantity.LessThan(in.Quantity) {
			return &domain.InsufficientQuantityError{
				LotNumber: lot.LotNumber,
				Requested: in.Quantity,
				Available: lot.CurrentQuantity,
			}
		}

		lot.CurrentQuantity = lot.CurrentQuantity.Sub(in.Quantity)
		lot.Normalize(now)
		lot.UpdatedAt = now
		if err := lots.Update(ctx, lot); err != nil {
			return err
		}
		productID = lot.ProductID

		previous, err := history.LatestBalance(ctx, in.SKU, lotNumber)
		if err != nil {
			return err
		}
		tx := &entity.StockTransaction{
			ID:              uuid.New().String(),
			SKU:             in.SKU,
			LotNumber:       lotNumber,
			TransactionType: in.TransactionType,
			Quantity:        in.Quantity,
			Unit:            lot.Unit,
			PricePerUnit:    lot.UnitCost,
			Currency:        entity.CurrencyUSD,
			TotalCost:       lot.UnitCost.Mul(in.Quantity),
			CurrentBalance:  previous.Sub(in.Quantity),
			ReferenceType:   in.ReferenceType,
			ReferenceNumber: in.ReferenceNumber,
			Notes:           in.Notes,
			PerformedBy:     in.PerformedBy,
			CreatedAt:       now,
		}
		if err := history.Create(ctx, tx); err != nil {
			return err
		}
		metrics.LedgerTransactions.WithLabelValues(in.TransactionType).Inc()
		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	if productID != "" {
		if err := uc.projector.Recompute(ctx, productID); err != nil {
			uc.log.Warn().Err(err).Str("product", productID).Msg("no se pudo recalcular inventario")
		}
	}
	uc.notifier.Publish("stock.deducted", created)
	return created, nil
}

// AdjustStock registra un ajuste manual. Los ajustes son uniformemente
// decrecientes en el saldo.
func (uc *UseCase) AdjustStock(ctx context.Context, sku, lotNumber string, quantity decimal.Decimal, notes, performedBy string) (*entity.StockTransaction, error) {
	return uc.DeductStock(ctx, DeductStockInput{
		SKU:             sku,
		LotNumber:       lotNumber,
		TransactionType: entity.TxTypeAdjustment,
		Quantity:        quantity,
		ReferenceType:   entity.RefTypeAdjustment,
		Notes:           notes,
		PerformedBy:     performedBy,
	})
}

// CurrentBalance devuelve el saldo del par (SKU, lote) según la última
// transacción del ledger.
func (uc *UseCase) CurrentBalance(ctx context.Context, sku, lotNumber string) (decimal.Decimal, error) {
	return uc.history.LatestBalance(ctx, sku, natural.Key(lotNumber))
}

// BalanceAcrossLots devuelve el stock total de un SKU: la suma de los saldos
// derivados por lote, no la suma ingenua de transacciones (un lote que pasó por
// cero y volvió a subir se contaría dos veces).
func (uc *UseCase) BalanceAcrossLots(ctx context.Context, sku string) (decimal.Decimal, error) {
	txs, err := uc.history.ListBySKU(ctx, sku, 0, 0)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, balance := range ledger.BalancesByLot(txs) {
		total = total.Add(balance)
	}
	return total, nil
}

// StockByLots devuelve el saldo derivado de cada lote de un SKU.
func (uc *UseCase) StockByLots(ctx context.Context, sku string) ([]ledger.LotBalance, error) {
	txs, err := uc.history.ListBySKU(ctx, sku, 0, 0)
	if err != nil {
		return nil, err
	}
	balances := ledger.BalancesByLot(txs)
	out := make([]ledger.LotBalance, 0, len(balances))
	for lotNumber, balance := range balances {
		out = append(out, ledger.LotBalance{LotNumber: lotNumber, Balance: balance})
	}
	return out, nil
}

// History lista las transacciones de un SKU, más recientes primero.
func (uc *UseCase) History(ctx context.Context, sku string, limit, offset int) ([]*entity.StockTransaction, error) {
	return uc.history.ListBySKU(ctx, sku, limit, offset)
}

// TransactionIndex devuelve la posición de una transacción dentro del listado
// descendente global: cuántas transacciones se crearon después de ella.
func (uc *UseCase) TransactionIndex(ctx context.Context, id string) (int, error) {
	tx, err := uc.history.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if tx == nil {
		return 0, domain.ErrNotFound
	}
	return uc.history.CountNewerThan(ctx, tx.CreatedAt)
}
