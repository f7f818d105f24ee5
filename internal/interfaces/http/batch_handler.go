package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-api/internal/application/batch"
	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// BatchHandler maneja las peticiones HTTP de tandas de producción.
type BatchHandler struct {
	uc *batch.UseCase
}

// NewBatchHandler construye el handler.
func NewBatchHandler(uc *batch.UseCase) *BatchHandler {
	return &BatchHandler{uc: uc}
}

// toSelections convierte líneas DTO a selecciones de dominio.
func toSelections(in []dto.LotSelectionDTO) []entity.LotSelection {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.LotSelection, 0, len(in))
	for _, s := range in {
		out = append(out, entity.LotSelection{LotNumber: s.LotNumber, Quantity: s.Quantity})
	}
	return out
}

// toSelectionMap convierte el mapa por SKU de líneas DTO a dominio.
func toSelectionMap(in map[string][]dto.LotSelectionDTO) map[string][]entity.LotSelection {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]entity.LotSelection, len(in))
	for sku, lines := range in {
		out[sku] = toSelections(lines)
	}
	return out
}

// Create da de alta una tanda en estado planned.
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input := batch.CreateInput{
		BatchNumber:     in.BatchNumber,
		RecipeCode:      in.RecipeCode,
		Quantity:        in.Quantity,
		Unit:            in.Unit,
		ProductionDate:  time.Now(),
		RawMaterialLots: toSelectionMap(in.RawMaterialLots),
		Notes:           in.Notes,
		CreatedBy:       in.CreatedBy,
	}
	if in.ProductionDate != nil {
		input.ProductionDate = *in.ProductionDate
	}
	created, err := h.uc.Create(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List pagina las tandas.
func (h *BatchHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	batches, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	if batches == nil {
		batches = []*entity.Batch{}
	}
	return c.JSON(fiber.Map{
		"batches": batches,
		"page":    dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(batches)},
	})
}

// GetByNumber devuelve una tanda por su número.
func (h *BatchHandler) GetByNumber(c *fiber.Ctx) error {
	found, err := h.uc.GetByNumber(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(found)
}

// Update aplica un patch a la tanda; un cambio de status dispara la máquina de
// estados (in_progress descuenta ingredientes).
func (h *BatchHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	updated, err := h.uc.Update(c.Context(), c.Params("id"), batch.UpdatePatch{
		Status:             in.Status,
		Notes:              in.Notes,
		RawMaterialLots:    toSelectionMap(in.RawMaterialLots),
		QualityCheckResult: in.QualityCheckResult,
		QualityCheckedBy:   in.QualityCheckedBy,
		QualityCheckNotes:  in.QualityCheckNotes,
		PerformedBy:        in.PerformedBy,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(updated)
}

// Complete cierra la producción: crea el lote de producto terminado y la
// transacción production.
func (h *BatchHandler) Complete(c *fiber.Ctx) error {
	var in dto.CompleteBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	completed, err := h.uc.Complete(c.Context(), c.Params("id"), in.ActualQuantity, in.Wastage, in.PerformedBy)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(completed)
}
