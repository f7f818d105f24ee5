package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
)

var _ repository.StockHistoryRepository = (*StockHistoryRepo)(nil)

// StockHistoryRepo implementación del ledger sobre PostgreSQL. Solo inserta y
// lee: el historial nunca se actualiza ni se borra.
type StockHistoryRepo struct {
	q Querier
}

// NewStockHistoryRepository construye el adaptador del ledger. Pasar pool o tx.
func NewStockHistoryRepository(q Querier) *StockHistoryRepo {
	return &StockHistoryRepo{q: q}
}

const historyColumns = `
	id, sku, lot_number, transaction_type, quantity, unit, price_per_unit,
	currency, total_cost, current_balance, reference_type, reference_number,
	supplier, notes, performed_by, created_at`

func scanTransaction(row pgx.Row) (*entity.StockTransaction, error) {
	var t entity.StockTransaction
	err := row.Scan(
		&t.ID, &t.SKU, &t.LotNumber, &t.TransactionType, &t.Quantity, &t.Unit,
		&t.PricePerUnit, &t.Currency, &t.TotalCost, &t.CurrentBalance,
		&t.ReferenceType, &t.ReferenceNumber, &t.Supplier, &t.Notes,
		&t.PerformedBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserta una transacción del ledger.
func (r *StockHistoryRepo) Create(ctx context.Context, tx *entity.StockTransaction) error {
	query := `
		INSERT INTO stock_history (` + historyColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.q.Exec(ctx, query,
		tx.ID, tx.SKU, tx.LotNumber, tx.TransactionType, tx.Quantity, tx.Unit,
		tx.PricePerUnit, tx.Currency, tx.TotalCost, tx.CurrentBalance,
		tx.ReferenceType, tx.ReferenceNumber, tx.Supplier, tx.Notes,
		tx.PerformedBy, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock transaction: %w", err)
	}
	return nil
}

// GetByID busca una transacción por id; nil si no existe.
func (r *StockHistoryRepo) GetByID(ctx context.Context, id string) (*entity.StockTransaction, error) {
	query := `SELECT ` + historyColumns + ` FROM stock_history WHERE id = $1`
	tx, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock transaction: %w", err)
	}
	return tx, nil
}

// LatestBalance devuelve el saldo de la última transacción del par (SKU, lote);
// cero si no hay ninguna.
func (r *StockHistoryRepo) LatestBalance(ctx context.Context, sku, lotNumber string) (decimal.Decimal, error) {
	query := `
		SELECT current_balance
		FROM stock_history
		WHERE sku = $1 AND lot_number = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, sku, lotNumber).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("latest balance: %w", err)
	}
	return balance, nil
}

// ListBySKU lista transacciones de un SKU, más recientes primero. limit 0 = sin tope.
func (r *StockHistoryRepo) ListBySKU(ctx context.Context, sku string, limit, offset int) ([]*entity.StockTransaction, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM stock_history
		WHERE sku = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, sku, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock history: %w", err)
	}
	return collectTransactions(rows)
}

// ListBySKUAndLot lista el par (SKU, lote) en orden de reproducción (ascendente).
func (r *StockHistoryRepo) ListBySKUAndLot(ctx context.Context, sku, lotNumber string) ([]*entity.StockTransaction, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM stock_history
		WHERE sku = $1 AND lot_number = $2
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query, sku, lotNumber)
	if err != nil {
		return nil, fmt.Errorf("list stock history by lot: %w", err)
	}
	return collectTransactions(rows)
}

// CountNewerThan cuenta transacciones creadas después del instante dado.
func (r *StockHistoryRepo) CountNewerThan(ctx context.Context, createdAt time.Time) (int, error) {
	query := `SELECT count(*) FROM stock_history WHERE created_at > $1`
	var count int
	if err := r.q.QueryRow(ctx, query, createdAt).Scan(&count); err != nil {
		return 0, fmt.Errorf("count stock history: %w", err)
	}
	return count, nil
}

func collectTransactions(rows pgx.Rows) ([]*entity.StockTransaction, error) {
	defer rows.Close()
	var out []*entity.StockTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
