package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/internal/domain/ledger"
	"github.com/jhoicas/produccion-api/internal/domain/repository"
	"github.com/jhoicas/produccion-api/pkg/metrics"
)

// reconcileTolerance: una deriva dentro de esta banda no genera corrección.
var reconcileTolerance = decimal.NewFromFloat(0.01)

// Correction describe una corrección emitida por el barrido de conciliación.
type Correction struct {
	SKU             string          `json:"sku"`
	LotNumber       string          `json:"lotNumber"`
	LotQuantity     decimal.Decimal `json:"lotQuantity"`
	LedgerBalance   decimal.Decimal `json:"ledgerBalance"`
	Difference      decimal.Decimal `json:"difference"`
	TransactionType string          `json:"transactionType"`
}

// ReconcileReport es el resultado de un barrido completo.
type ReconcileReport struct {
	LotsChecked int          `json:"lotsChecked"`
	Corrections []Correction `json:"corrections"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
}

// Reconcile recorre todos los lotes y compara la cantidad de cada uno contra el
// saldo derivado del ledger para su par (SKU, lote). Si difieren más que la
// tolerancia, emite una transacción correctiva que deja al ledger de acuerdo con
// el lote: usage si el lote consumió más de lo registrado, return si registró
// consumo de más. La corrección queda en el ledger, nunca se edita historia.
func (uc *UseCase) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{StartedAt: time.Now()}

	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		lots, err := uc.lots.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(lots) == 0 {
			break
		}
		for _, lot := range lots {
			if lot.SKU == "" {
				continue
			}
			report.LotsChecked++
			if err := uc.reconcileLot(ctx, lot, report); err != nil {
				return nil, err
			}
		}
		if len(lots) < pageSize {
			break
		}
	}

	report.FinishedAt = time.Now()
	uc.log.Info().
		Int("lots", report.LotsChecked).
		Int("corrections", len(report.Corrections)).
		Msg("barrido de conciliación terminado")
	if len(report.Corrections) > 0 {
		uc.notifier.Publish("stock.reconciled", report)
	}
	return report, nil
}

func (uc *UseCase) reconcileLot(ctx context.Context, snapshot *entity.Lot, report *ReconcileReport) error {
	now := time.Now()
	return uc.txRunner.Run(ctx, func(lots repository.LotRepository, history repository.StockHistoryRepository) error {
		lot, err := lots.GetByNumberForUpdate(ctx, snapshot.LotNumber)
		if err != nil {
			return err
		}
		if lot == nil {
			return nil
		}

		txs, err := history.ListBySKUAndLot(ctx, lot.SKU, lot.LotNumber)
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			// Lote sin historia (alta anterior al ledger): no hay contra qué conciliar.
			return nil
		}
		derived := ledger.Replay(txs)
		diff := lot.CurrentQuantity.Sub(derived)
		if diff.Abs().LessThanOrEqual(reconcileTolerance) {
			return nil
		}

		txType := entity.TxTypeReturn
		if diff.IsNegative() {
			txType = entity.TxTypeUsage
		}
		correction := &entity.StockTransaction{
			ID:              uuid.New().String(),
			SKU:             lot.SKU,
			LotNumber:       lot.LotNumber,
			TransactionType: txType,
			Quantity:        diff.Abs(),
			Unit:            lot.Unit,
			PricePerUnit:    lot.UnitCost,
			Currency:        entity.CurrencyUSD,
			TotalCost:       lot.UnitCost.Mul(diff.Abs()),
			CurrentBalance:  lot.CurrentQuantity,
			ReferenceType:   entity.RefTypeReconciliation,
			ReferenceNumber: lot.LotNumber,
			Notes:           "corrección de conciliación lote vs ledger",
			PerformedBy:     "reconciliation",
			CreatedAt:       now,
		}
		if err := history.Create(ctx, correction); err != nil {
			return err
		}
		metrics.ReconciliationCorrections.Inc()
		metrics.LedgerTransactions.WithLabelValues(txType).Inc()

		uc.log.Warn().
			Str("sku", lot.SKU).
			Str("lot", lot.LotNumber).
			Str("lot_quantity", lot.CurrentQuantity.String()).
			Str("ledger_balance", derived.String()).
			Msg("deriva detectada entre lote y ledger")

		report.Corrections = append(report.Corrections, Correction{
			SKU:             lot.SKU,
			LotNumber:       lot.LotNumber,
			LotQuantity:     lot.CurrentQuantity,
			LedgerBalance:   derived,
			Difference:      diff,
			TransactionType: txType,
		})
		return nil
	})
}
