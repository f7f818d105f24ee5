package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/application/inventory"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// InventoryHandler maneja las consultas de la proyección de inventario.
type InventoryHandler struct {
	projector *inventory.Projector
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(projector *inventory.Projector) *InventoryHandler {
	return &InventoryHandler{projector: projector}
}

// List pagina la proyección de inventario por producto.
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	items, err := h.projector.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []*entity.Inventory{}
	}
	return c.JSON(fiber.Map{
		"inventory": items,
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(items)},
	})
}

// GetByProduct devuelve la fila proyectada de un producto.
func (h *InventoryHandler) GetByProduct(c *fiber.Ctx) error {
	item, err := h.projector.GetByProduct(c.Context(), c.Params("productId"))
	if err != nil {
		return fail(c, err)
	}
	if item == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto sin proyección"})
	}
	return c.JSON(item)
}
