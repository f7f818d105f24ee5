package costing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/produccion-api/internal/domain"
	"github.com/jhoicas/produccion-api/internal/domain/costing"
	"github.com/jhoicas/produccion-api/internal/domain/entity"
)

func snapshot() entity.RateSnapshot {
	return entity.RateSnapshot{
		Rates: map[string]decimal.Decimal{
			entity.CurrencyTRY: decimal.NewFromInt(1),
			entity.CurrencyUSD: decimal.NewFromFloat(34.5),
			entity.CurrencyEUR: decimal.NewFromFloat(37.8),
		},
	}
}

func TestConvert_Identidad(t *testing.T) {
	amount := decimal.NewFromFloat(123.45)
	got, err := costing.Convert(amount, entity.CurrencyUSD, entity.CurrencyUSD, entity.RateSnapshot{})
	require.NoError(t, err, "misma moneda no necesita tasas")
	assert.True(t, got.Equal(amount))
}

func TestConvert_UsdATry(t *testing.T) {
	got, err := costing.Convert(decimal.NewFromInt(10), entity.CurrencyUSD, entity.CurrencyTRY, snapshot())
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromFloat(345)), "10 USD * 34.5 = 345 TRY")
}

func TestConvert_IdaYVuelta(t *testing.T) {
	original := decimal.NewFromFloat(250)
	tries, err := costing.Convert(original, entity.CurrencyEUR, entity.CurrencyTRY, snapshot())
	require.NoError(t, err)
	back, err := costing.Convert(tries, entity.CurrencyTRY, entity.CurrencyEUR, snapshot())
	require.NoError(t, err)
	assert.True(t, back.Equal(original), "EUR -> TRY -> EUR debe devolver el monto original")
}

func TestConvert_TasaFaltante(t *testing.T) {
	_, err := costing.Convert(decimal.NewFromInt(10), entity.CurrencyGBP, entity.CurrencyTRY, snapshot())
	assert.ErrorIs(t, err, domain.ErrRateUnavailable)

	_, err = costing.Convert(decimal.NewFromInt(10), entity.CurrencyTRY, entity.CurrencyGBP, snapshot())
	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestUnitCost_CantidadCeroEsCostoCero(t *testing.T) {
	// Política explícita: una tanda sin producción no tiene costo unitario.
	assert.True(t, costing.UnitCost(decimal.NewFromInt(120), decimal.Zero).IsZero())
	assert.True(t, costing.UnitCost(decimal.NewFromInt(120), decimal.NewFromInt(-1)).IsZero())
}

func TestUnitCost_Division(t *testing.T) {
	got := costing.UnitCost(decimal.NewFromInt(120), decimal.NewFromInt(40))
	assert.True(t, got.Equal(decimal.NewFromInt(3)))
}

func TestRecipeUnitCost_ConversionPorIngrediente(t *testing.T) {
	ingredients := []costing.IngredientPrice{
		{Quantity: decimal.NewFromInt(2), PricePerUnit: decimal.NewFromFloat(34.5), Currency: entity.CurrencyTRY},
		{Quantity: decimal.NewFromInt(1), PricePerUnit: decimal.NewFromInt(3), Currency: entity.CurrencyUSD},
	}
	got, err := costing.RecipeUnitCost(ingredients, entity.CurrencyUSD, snapshot())
	require.NoError(t, err)
	// 2 * (34.5 TRY -> 1 USD) + 1 * 3 USD = 5 USD
	assert.True(t, got.Equal(decimal.NewFromInt(5)))
}

func TestRecipeUnitCost_PropagaTasaFaltante(t *testing.T) {
	ingredients := []costing.IngredientPrice{
		{Quantity: decimal.NewFromInt(1), PricePerUnit: decimal.NewFromInt(10), Currency: entity.CurrencyGBP},
	}
	_, err := costing.RecipeUnitCost(ingredients, entity.CurrencyUSD, snapshot())
	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
}
