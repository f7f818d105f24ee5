package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-api/internal/application/dto"
	"github.com/jhoicas/produccion-api/internal/application/ports"
)

// RatesHandler expone la foto de tasas de cambio del día.
type RatesHandler struct {
	rates ports.RateProvider
}

// NewRatesHandler construye el handler.
func NewRatesHandler(rates ports.RateProvider) *RatesHandler {
	return &RatesHandler{rates: rates}
}

// GetRates devuelve las tasas vigentes; fallback=true indica servicio degradado.
func (h *RatesHandler) GetRates(c *fiber.Ctx) error {
	snapshot, err := h.rates.GetRates(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.RatesResponse{
		Rates:     snapshot.Rates,
		Fallback:  snapshot.Fallback,
		FetchedAt: snapshot.FetchedAt,
	})
}
