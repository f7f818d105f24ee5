package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/application/stock"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del ledger de stock y la conciliación.
type StockHandler struct {
	uc *stock.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// AddStock registra una entrada de compra (crea o incrementa el lote).
func (h *StockHandler) AddStock(c *fiber.Ctx) error {
	var in dto.AddStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input := stock.AddStockInput{
		SKU:          in.SKU,
		LotNumber:    in.LotNumber,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		PricePerUnit: in.PricePerUnit,
		Currency:     in.Currency,
		Supplier:     in.Supplier,
		Notes:        in.Notes,
		PerformedBy:  in.PerformedBy,
	}
	if in.ExpiryDate != nil {
		input.ExpiryDate = *in.ExpiryDate
	}
	tx, err := h.uc.AddStock(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

// DeductStock registra una salida directa contra un lote concreto.
func (h *StockHandler) DeductStock(c *fiber.Ctx) error {
	var in dto.DeductStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	tx, err := h.uc.DeductStock(c.Context(), stock.DeductStockInput{
		SKU:             in.SKU,
		LotNumber:       in.LotNumber,
		TransactionType: in.TransactionType,
		Quantity:        in.Quantity,
		ReferenceType:   in.ReferenceType,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		PerformedBy:     in.PerformedBy,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

// AdjustStock registra un ajuste manual (siempre decreciente en el ledger).
func (h *StockHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	tx, err := h.uc.AdjustStock(c.Context(), in.SKU, in.LotNumber, in.Quantity, in.Notes, in.PerformedBy)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

// History lista las transacciones de un SKU, más reciente primero.
func (h *StockHandler) History(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	txs, err := h.uc.History(c.Context(), c.Params("sku"), page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	if txs == nil {
		txs = []*entity.StockTransaction{}
	}
	return c.JSON(fiber.Map{
		"transactions": txs,
		"page":         dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(txs)},
	})
}

// Balance devuelve el saldo total de un SKU derivado del ledger.
func (h *StockHandler) Balance(c *fiber.Ctx) error {
	sku := c.Params("sku")
	balance, err := h.uc.BalanceAcrossLots(c.Context(), sku)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.BalanceResponse{SKU: sku, Balance: balance})
}

// Lots devuelve el saldo derivado por lote de un SKU.
func (h *StockHandler) Lots(c *fiber.Ctx) error {
	sku := c.Params("sku")
	balances, err := h.uc.StockByLots(c.Context(), sku)
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.LotBalanceDTO, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.LotBalanceDTO{LotNumber: b.LotNumber, Balance: b.Balance})
	}
	return c.JSON(fiber.Map{"sku": sku, "lots": out})
}

// TransactionIndex devuelve la posición de una transacción en el listado
// descendente de su SKU (0 = la más reciente).
func (h *StockHandler) TransactionIndex(c *fiber.Ctx) error {
	id := c.Params("id")
	index, err := h.uc.TransactionIndex(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.TransactionIndexResponse{ID: id, Index: index})
}

// Reconcile ejecuta el barrido de conciliación lote contra ledger.
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.uc.Reconcile(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}
