package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrPriceParse marks a price string the parser could not make sense of.
// Candidate-level only: callers skip the candidate and move on, one bad
// price never fails a whole retailer query.
var ErrPriceParse = errors.New("unparseable price text")

// ParsePrice reads a comma-decimal storefront price such as "R$ 12,90/kg"
// into an amount. The unit suffix after the first "/" is discarded.
func ParsePrice(text string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(text, " ", " ")
	s = strings.ReplaceAll(s, "R$", "")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrPriceParse, text)
	}
	return d, nil
}
