// Package metrics expone los contadores Prometheus del motor de lotes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerTransactions cuenta las transacciones agregadas al ledger por tipo.
	LedgerTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Transacciones de stock agregadas al ledger, por tipo.",
	}, []string{"type"})

	// AllocationFailures cuenta planificaciones o commits de asignación fallidos.
	AllocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_failures_total",
		Help: "Asignaciones de lotes fallidas, por motivo.",
	}, []string{"reason"})

	// ReconciliationCorrections cuenta transacciones correctivas del barrido.
	ReconciliationCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_corrections_total",
		Help: "Correcciones emitidas por el barrido de conciliación lote vs ledger.",
	})
)
