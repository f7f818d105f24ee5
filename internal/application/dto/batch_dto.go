package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotSelectionDTO línea de selección manual de lote.
type LotSelectionDTO struct {
	LotNumber string          `json:"lot_number"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateBatchRequest body para POST /api/batches.
type CreateBatchRequest struct {
	BatchNumber     string                       `json:"batch_number"`
	RecipeCode      string                       `json:"recipe_code"`
	Quantity        decimal.Decimal              `json:"quantity"`
	Unit            string                       `json:"unit"`
	ProductionDate  *time.Time                   `json:"production_date,omitempty"`
	RawMaterialLots map[string][]LotSelectionDTO `json:"raw_material_lots,omitempty"`
	Notes           string                       `json:"notes,omitempty"`
	CreatedBy       string                       `json:"created_by,omitempty"`
}

// UpdateBatchRequest body para PUT /api/batches/:id. Campos nil no se tocan.
type UpdateBatchRequest struct {
	Status             *string                      `json:"status,omitempty"`
	Notes              *string                      `json:"notes,omitempty"`
	RawMaterialLots    map[string][]LotSelectionDTO `json:"raw_material_lots,omitempty"`
	QualityCheckResult *string                      `json:"quality_check_result,omitempty"`
	QualityCheckedBy   *string                      `json:"quality_checked_by,omitempty"`
	QualityCheckNotes  *string                      `json:"quality_check_notes,omitempty"`
	PerformedBy        string                       `json:"performed_by,omitempty"`
}

// CompleteBatchRequest body para POST /api/batches/:id/complete.
type CompleteBatchRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	Wastage        decimal.Decimal `json:"wastage"`
	PerformedBy    string          `json:"performed_by,omitempty"`
}
