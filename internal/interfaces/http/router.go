package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/produccion-api/internal/application/batch"
	"github.com/jhoicas/produccion-api/internal/application/inventory"
	"github.com/jhoicas/produccion-api/internal/application/lot"
	"github.com/jhoicas/produccion-api/internal/application/order"
	"github.com/jhoicas/produccion-api/internal/application/ports"
	"github.com/jhoicas/produccion-api/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC   *stock.UseCase
	BatchUC   *batch.UseCase
	OrderUC   *order.UseCase
	LotUC     *lot.UseCase
	Projector *inventory.Projector
	Rates     ports.RateProvider
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Stock (ledger)
	stockGroup := api.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC)
	stockGroup.Post("/", stockHandler.AddStock)
	stockGroup.Post("/deduct", stockHandler.DeductStock)
	stockGroup.Post("/adjust", stockHandler.AdjustStock)
	stockGroup.Get("/history/:id/index", stockHandler.TransactionIndex)
	stockGroup.Get("/:sku/history", stockHandler.History)
	stockGroup.Get("/:sku/balance", stockHandler.Balance)
	stockGroup.Get("/:sku/lots", stockHandler.Lots)

	// Lotes
	lots := api.Group("/lots")
	lotHandler := NewLotHandler(deps.LotUC)
	lots.Get("/", lotHandler.List)
	lots.Get("/expiring", lotHandler.Expiring)
	lots.Get("/by-product/:productId", lotHandler.ByProduct)
	lots.Get("/:id", lotHandler.Get)
	lots.Get("/:id/history", lotHandler.History)
	lots.Post("/:id/adjust", lotHandler.Adjust)

	// Tandas de producción
	batches := api.Group("/batches")
	batchHandler := NewBatchHandler(deps.BatchUC)
	batches.Post("/", batchHandler.Create)
	batches.Get("/", batchHandler.List)
	batches.Get("/:id", batchHandler.GetByNumber)
	batches.Put("/:id", batchHandler.Update)
	batches.Post("/:id/complete", batchHandler.Complete)

	// Pedidos
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByNumber)
	orders.Put("/:id", orderHandler.Update)
	orders.Post("/:id/allocate-lots", orderHandler.AllocateLots)
	orders.Post("/:id/ship-partial", orderHandler.ShipPartial)

	// Proyección de inventario (solo lectura)
	inventoryGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Projector)
	inventoryGroup.Get("/", inventoryHandler.List)
	inventoryGroup.Get("/:productId", inventoryHandler.GetByProduct)

	// Tasas de cambio
	ratesHandler := NewRatesHandler(deps.Rates)
	api.Get("/exchange-rates", ratesHandler.GetRates)

	// Conciliación
	reconciliation := api.Group("/reconciliation")
	reconciliation.Post("/run", stockHandler.Reconcile)
}
