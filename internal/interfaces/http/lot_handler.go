package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/application/lot"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// LotHandler maneja las peticiones HTTP de consulta y ajuste de lotes.
type LotHandler struct {
	uc *lot.UseCase
}

// NewLotHandler construye el handler.
func NewLotHandler(uc *lot.UseCase) *LotHandler {
	return &LotHandler{uc: uc}
}

// List pagina los lotes.
func (h *LotHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	lots, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	if lots == nil {
		lots = []*entity.Lot{}
	}
	return c.JSON(fiber.Map{
		"lots": lots,
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(lots)},
	})
}

// Get devuelve un lote por id o por número.
func (h *LotHandler) Get(c *fiber.Ctx) error {
	found, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(found)
}

// ByProduct lista los lotes de un producto; ?status=available,depleted filtra.
func (h *LotHandler) ByProduct(c *fiber.Ctx) error {
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	lots, err := h.uc.ByProduct(c.Context(), c.Params("productId"), statuses)
	if err != nil {
		return fail(c, err)
	}
	if lots == nil {
		lots = []*entity.Lot{}
	}
	return c.JSON(fiber.Map{"lots": lots, "total": len(lots)})
}

// Expiring lista los lotes que vencen dentro de ?days= días (30 por defecto).
func (h *LotHandler) Expiring(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days"))
	lots, err := h.uc.Expiring(c.Context(), days)
	if err != nil {
		return fail(c, err)
	}
	if lots == nil {
		lots = []*entity.Lot{}
	}
	return c.JSON(fiber.Map{"lots": lots, "total": len(lots)})
}

// Adjust registra un ajuste manual contra el lote.
func (h *LotHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	tx, err := h.uc.Adjust(c.Context(), c.Params("id"), in.Quantity, in.Notes, in.PerformedBy)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

// History devuelve la trazabilidad del lote: sus transacciones y los pedidos
// que lo asignaron.
func (h *LotHandler) History(c *fiber.Ctx) error {
	trace, err := h.uc.TraceHistory(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(trace)
}
