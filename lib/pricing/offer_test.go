package pricing

import (
	"testing"

	"precoradar/lib/retailer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBuildOffer(t *testing.T) {
	offer, ok := BuildOffer("Bacon", retailer.Candidate{
		Retailer:    "tenda",
		DisplayName: "Bacon Defumado 500g",
		PriceText:   "R$ 24,90",
	})
	require.True(t, ok)
	require.Equal(t, "tenda", offer.Retailer)
	require.Equal(t, "Bacon", offer.Query)
	require.True(t, offer.Price.Equal(decimal.RequireFromString("24.90")))
	require.True(t, offer.WeightKg.Equal(decimal.RequireFromString("0.5")))
	require.True(t, offer.PricePerKg.Equal(decimal.RequireFromString("49.80")))
}

func TestBuildOfferDefaultWeight(t *testing.T) {
	offer, ok := BuildOffer("Picanha", retailer.Candidate{
		Retailer:    "arena",
		DisplayName: "Picanha Bovina Peça",
		PriceText:   "R$ 79,90",
	})
	require.True(t, ok)
	require.True(t, offer.WeightKg.Equal(decimal.NewFromInt(1)))
	require.True(t, offer.PricePerKg.Equal(offer.Price.Round(2)))
}

func TestBuildOfferSkips(t *testing.T) {
	_, ok := BuildOffer("Bacon", retailer.Candidate{
		DisplayName: "Bacon 500g",
		PriceText:   "sob consulta",
	})
	require.False(t, ok)

	_, ok = BuildOffer("Bacon", retailer.Candidate{
		DisplayName: "Bacon 500g",
		PriceText:   "R$ -1,00",
	})
	require.False(t, ok)
}

func TestBuildOfferRounding(t *testing.T) {
	// 9.99 / 0.3 = 33.3 repeating, rounded to cents
	offer, ok := BuildOffer("Presunto", retailer.Candidate{
		Retailer:    "goodbom",
		DisplayName: "Presunto Cozido 300g",
		PriceText:   "R$ 9,99",
	})
	require.True(t, ok)
	require.True(t, offer.PricePerKg.Equal(decimal.RequireFromString("33.30")))
	require.Equal(t, int32(-2), offer.PricePerKg.Exponent())
}
