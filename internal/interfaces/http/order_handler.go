package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/application/order"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// OrderHandler maneja las peticiones HTTP de pedidos.
type OrderHandler struct {
	uc *order.UseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *order.UseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Create da de alta un pedido y asigna lotes según el método de cumplimiento.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	created, err := h.uc.Create(c.Context(), order.CreateInput{
		OrderNumber:       in.OrderNumber,
		RecipeCode:        in.RecipeCode,
		Quantity:          in.Quantity,
		Unit:              in.Unit,
		CustomerName:      in.CustomerName,
		CustomerContact:   in.CustomerContact,
		FulfillmentMethod: in.FulfillmentMethod,
		ManualSelection:   toSelections(in.ManualSelection),
		Notes:             in.Notes,
		CreatedBy:         in.CreatedBy,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List pagina los pedidos; con ?lot= devuelve los pedidos que asignaron ese lote.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	if lot := c.Query("lot"); lot != "" {
		orders, err := h.uc.ListByLot(c.Context(), lot)
		if err != nil {
			return fail(c, err)
		}
		if orders == nil {
			orders = []*entity.Order{}
		}
		return c.JSON(fiber.Map{"orders": orders, "total": len(orders)})
	}

	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	orders, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	if orders == nil {
		orders = []*entity.Order{}
	}
	return c.JSON(fiber.Map{
		"orders": orders,
		"page":   dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(orders)},
	})
}

// GetByNumber devuelve un pedido por su número.
func (h *OrderHandler) GetByNumber(c *fiber.Ctx) error {
	found, err := h.uc.GetByNumber(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(found)
}

// Update mueve el pedido de estado (incluida la cancelación con devolución).
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	updated, err := h.uc.UpdateStatus(c.Context(), c.Params("id"), order.UpdateStatusInput{
		Status:      in.Status,
		PerformedBy: in.PerformedBy,
		Reason:      in.Reason,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(updated)
}

// AllocateLots reemplaza la asignación del pedido con una selección manual.
func (h *OrderHandler) AllocateLots(c *fiber.Ctx) error {
	var in dto.AllocateLotsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	updated, err := h.uc.AllocateLots(c.Context(), c.Params("id"), toSelections(in.Selections))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(updated)
}

// ShipPartial envía una parte del pedido contra líneas de lote concretas.
func (h *OrderHandler) ShipPartial(c *fiber.Ctx) error {
	var in dto.ShipPartialRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	updated, err := h.uc.ShipPartial(c.Context(), c.Params("id"), order.ShipPartialInput{
		Lines:     toSelections(in.Lines),
		ShippedBy: in.ShippedBy,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(updated)
}
