package pricing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{text: "R$ 24,90", expected: "24.9"},
		{text: "R$ 12,90/kg", expected: "12.9"},
		{text: "R$ 7,49", expected: "7.49"},
		{text: "5,00", expected: "5"},
		{text: "  R$ 3,75 / un ", expected: "3.75"},
	}

	for _, test := range testCases {
		got, err := ParsePrice(test.text)
		require.NoError(t, err, test.text)
		require.True(
			t, got.Equal(decimal.RequireFromString(test.expected)),
			"%s: got %s, want %s", test.text, got, test.expected,
		)
	}
}

func TestParsePriceRoundTrip(t *testing.T) {
	for _, raw := range []string{"24.90", "0.99", "125.05"} {
		value := decimal.RequireFromString(raw)
		formatted := "R$ " + strings.ReplaceAll(value.StringFixed(2), ".", ",")
		parsed, err := ParsePrice(formatted)
		require.NoError(t, err)
		require.True(t, parsed.Equal(value))
	}
}

func TestParsePriceFailure(t *testing.T) {
	for _, text := range []string{"", "indisponível", "R$ --", "R$ /kg"} {
		_, err := ParsePrice(text)
		require.ErrorIs(t, err, ErrPriceParse, text)
	}
}
