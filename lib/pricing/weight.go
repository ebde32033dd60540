package pricing

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var gramsRegex = regexp.MustCompile(`(?i)(\d+)\s*g`)

var (
	oneKg      = decimal.NewFromInt(1)
	gramsPerKg = decimal.NewFromInt(1000)
)

// ExtractWeight reads the package weight in kilograms out of a product
// display name, e.g. "Bacon Defumado 500g" -> 0.5. Only the first gram
// marker counts. Names without one resolve to 1kg so their unit price
// still compares; a "0g" marker is treated the same way, it would divide
// by zero otherwise.
func ExtractWeight(displayName string) decimal.Decimal {
	m := gramsRegex.FindStringSubmatch(displayName)
	if m == nil {
		return oneKg
	}
	grams, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || grams == 0 {
		return oneKg
	}
	return decimal.NewFromInt(grams).Div(gramsPerKg)
}
