package pricing

import (
	"precoradar/lib/retailer"

	"github.com/shopspring/decimal"
)

// Offer is a normalized candidate: parsed price, package weight and the
// derived price per kilogram used for cross-retailer comparison. Offers
// are value types, never mutated after construction.
type Offer struct {
	Retailer    string          `json:"retailerId"`
	Query       string          `json:"productQuery"`
	DisplayName string          `json:"displayName"`
	Price       decimal.Decimal `json:"price"`
	WeightKg    decimal.Decimal `json:"weightKg"`
	PricePerKg  decimal.Decimal `json:"pricePerKg"`
}

// BuildOffer normalizes one raw candidate. The second return is false when
// the candidate should be skipped: unparseable or negative price.
func BuildOffer(query string, c retailer.Candidate) (Offer, bool) {
	price, err := ParsePrice(c.PriceText)
	if err != nil {
		return Offer{}, false
	}
	if price.IsNegative() {
		return Offer{}, false
	}
	weight := ExtractWeight(c.DisplayName)
	return Offer{
		Retailer:    c.Retailer,
		Query:       query,
		DisplayName: c.DisplayName,
		Price:       price,
		WeightKg:    weight,
		PricePerKg:  price.Div(weight).Round(2),
	}, true
}
