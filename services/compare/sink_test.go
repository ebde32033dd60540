package compare

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"precoradar/lib/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices", "compare.json")
	report := Report{
		GeneratedAt: time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
		BestOffers: []pricing.Offer{
			{
				Retailer:    "goodbom",
				Query:       "Bacon",
				DisplayName: "Bacon em Cubos 300g",
				Price:       decimal.RequireFromString("13.50"),
				WeightKg:    decimal.RequireFromString("0.3"),
				PricePerKg:  decimal.RequireFromString("45.00"),
			},
		},
		Unmatched:  []Unmatched{{Query: "Presunto Raro"}, {Query: "Picanha", TimedOut: true}},
		TotalSpend: decimal.RequireFromString("13.50"),
	}

	err := FileSink{Path: path}.Store(context.Background(), report)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "2025-03-09T12:00:00Z", decoded["generatedAt"])
	// decimals must serialize as numbers for the consuming page
	require.Equal(t, 13.5, decoded["totalSpend"])

	offers := decoded["bestOffers"].([]any)
	require.Len(t, offers, 1)
	offer := offers[0].(map[string]any)
	require.Equal(t, "goodbom", offer["retailerId"])
	require.Equal(t, 45.0, offer["pricePerKg"])

	unmatched := decoded["unmatched"].([]any)
	require.Len(t, unmatched, 2)
	first := unmatched[0].(map[string]any)
	_, hasMarker := first["timedOut"]
	require.False(t, hasMarker)
	second := unmatched[1].(map[string]any)
	require.Equal(t, true, second["timedOut"])
}
