// Package rates implementa el proveedor de tasas de cambio contra el servicio
// XML del TCMB (banco central turco). Las tasas quedan expresadas relativas a
// TRY (tasa 1), la moneda ancla del dominio.
package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/produccion-api/internal/application/ports"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
	"github.com/jhoicas/produccion-api/pkg/config"
	"github.com/jhoicas/produccion-api/pkg/logger"
)

var _ ports.RateProvider = (*TCMBClient)(nil)

// TCMBClient consulta el XML diario del TCMB con timeout acotado. Si la
// consulta o el parseo fallan, devuelve la foto de tasas por defecto con
// Fallback=true: servicio degradado aceptado, nunca reintento indefinido.
type TCMBClient struct {
	cfg    config.RatesConfig
	client *http.Client
	log    *logger.Logger
}

// NewTCMBClient construye el cliente con la configuración dada.
func NewTCMBClient(cfg config.RatesConfig, log *logger.Logger) *TCMBClient {
	return &TCMBClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// GetRates devuelve la foto de tasas del día, o la foto por defecto si el
// proveedor externo no responde.
func (c *TCMBClient) GetRates(ctx context.Context) (entity.RateSnapshot, error) {
	snapshot, err := c.fetch(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("TCMB no disponible, se usan tasas por defecto")
		return c.fallback(), nil
	}
	return snapshot, nil
}

func (c *TCMBClient) fetch(ctx context.Context) (entity.RateSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return entity.RateSnapshot{}, fmt.Errorf("crear request TCMB: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return entity.RateSnapshot{}, fmt.Errorf("consultar TCMB: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return entity.RateSnapshot{}, fmt.Errorf("TCMB respondió %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return entity.RateSnapshot{}, fmt.Errorf("leer respuesta TCMB: %w", err)
	}
	return parseTCMB(body)
}

// parseTCMB extrae ForexSelling/Unit por moneda del XML diario del TCMB.
func parseTCMB(body []byte) (entity.RateSnapshot, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return entity.RateSnapshot{}, fmt.Errorf("parsear XML TCMB: %w", err)
	}

	rates := map[string]decimal.Decimal{
		entity.CurrencyTRY: decimal.NewFromInt(1),
	}
	for _, currency := range doc.FindElements("//Currency") {
		code := currency.SelectAttrValue("CurrencyCode", "")
		if code == "" {
			continue
		}
		selling := currency.SelectElement("ForexSelling")
		if selling == nil || selling.Text() == "" {
			continue
		}
		rate, err := decimal.NewFromString(selling.Text())
		if err != nil {
			continue
		}
		if unitEl := currency.SelectElement("Unit"); unitEl != nil && unitEl.Text() != "" {
			if unit, err := decimal.NewFromString(unitEl.Text()); err == nil && unit.GreaterThan(decimal.Zero) {
				rate = rate.Div(unit)
			}
		}
		if rate.GreaterThan(decimal.Zero) {
			rates[code] = rate
		}
	}

	if len(rates) == 1 {
		return entity.RateSnapshot{}, fmt.Errorf("XML TCMB sin monedas")
	}
	return entity.RateSnapshot{Rates: rates, FetchedAt: time.Now()}, nil
}

// fallback construye la foto de tasas por defecto de la configuración.
func (c *TCMBClient) fallback() entity.RateSnapshot {
	return entity.RateSnapshot{
		Rates: map[string]decimal.Decimal{
			entity.CurrencyTRY: decimal.NewFromInt(1),
			entity.CurrencyUSD: decimal.NewFromFloat(c.cfg.FallbackUSD),
			entity.CurrencyEUR: decimal.NewFromFloat(c.cfg.FallbackEUR),
			entity.CurrencyGBP: decimal.NewFromFloat(c.cfg.FallbackGBP),
		},
		Fallback:  true,
		FetchedAt: time.Now(),
	}
}
