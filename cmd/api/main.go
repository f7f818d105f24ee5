package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/produccion-api/internal/application/allocation"
	"github.com/jhoicas/produccion-api/internal/application/batch"
	"github.com/jhoicas/produccion-api/internal/application/inventory"
	"github.com/jhoicas/produccion-api/internal/application/lot"
	"github.com/jhoicas/produccion-api/internal/application/order"
	"github.com/jhoicas/produccion-api/internal/application/stock"
	"github.com/jhoicas/produccion-api/internal/infrastructure/notify"
	"github.com/jhoicas/produccion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/produccion-api/internal/infrastructure/rates"
	httpRouter "github.com/jhoicas/produccion-api/internal/interfaces/http"
	"github.com/jhoicas/produccion-api/pkg/config"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	lotRepo := postgres.NewLotRepository(pool)
	historyRepo := postgres.NewStockHistoryRepository(pool)
	batchRepo := postgres.NewBatchRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	recipeRepo := postgres.NewRecipeRepository(pool)
	materialRepo := postgres.NewRawMaterialRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	notifier := notify.NewLogNotifier(log)
	rateProvider := rates.NewTCMBClient(cfg.Rates, log)
	engine := allocation.NewEngine(lotRepo, txRunner, log)
	projector := inventory.NewProjector(lotRepo, inventoryRepo, log)

	stockUC := stock.NewUseCase(historyRepo, lotRepo, txRunner, projector, notifier, log)
	batchUC := batch.NewUseCase(batchRepo, recipeRepo, materialRepo, engine, txRunner, rateProvider, projector, notifier, log)
	orderUC := order.NewUseCase(orderRepo, recipeRepo, engine, batchUC, projector, notifier, log)
	lotUC := lot.NewUseCase(lotRepo, historyRepo, orderRepo, stockUC, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:   stockUC,
		BatchUC:   batchUC,
		OrderUC:   orderUC,
		LotUC:     lotUC,
		Projector: projector,
		Rates:     rateProvider,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
