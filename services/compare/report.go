package compare

import (
	"time"

	"precoradar/lib/pricing"

	"github.com/shopspring/decimal"
)

func init() {
	// report decimals serialize as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Unmatched names a catalog product that produced no qualifying offer.
// TimedOut distinguishes products the run deadline cut off mid-flight
// from ones every retailer genuinely came back empty-handed for.
type Unmatched struct {
	Query    string `json:"productQuery"`
	TimedOut bool   `json:"timedOut,omitempty"`
}

// Report is the final result of one comparison run. BestOffers follows
// catalog order, not completion order. TotalSpend sums the price of every
// best offer, the cost of buying the whole matched basket at the winning
// retailers.
type Report struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	BestOffers  []pricing.Offer `json:"bestOffers"`
	Unmatched   []Unmatched     `json:"unmatched"`
	TotalSpend  decimal.Decimal `json:"totalSpend"`
}
