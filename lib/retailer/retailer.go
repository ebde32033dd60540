package retailer

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Candidate is one unprocessed search result from a retailer: the product
// name as displayed on the storefront and the price text exactly as
// rendered there (e.g. "R$ 12,90/kg").
type Candidate struct {
	Retailer    string
	DisplayName string
	PriceText   string
}

var (
	// ErrTransport marks network or retailer-availability failures.
	// The orchestrator retries these with backoff.
	ErrTransport = errors.New("retailer transport failure")
	// ErrNotFound marks a hard retailer-side "no such resource" response.
	// Not retryable; distinct from a search that simply returned nothing.
	ErrNotFound = errors.New("retailer resource not found")
	// ErrAuth marks rejected credentials. An adapter returning this is
	// disabled for the remainder of the run.
	ErrAuth = errors.New("retailer rejected credentials")
)

// Adapter is one retailer data source.
//
// Search returns at most limit candidates in the retailer's own relevance
// order. An empty result set is a normal outcome, not an error.
// Implementations never retry internally, retry policy belongs to the
// orchestrator. One instance owns one session (a browser tab, a bearer
// token); concurrent Search calls on the same instance are serialized by
// the implementation.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

type Mode string

const (
	Delivery Mode = "delivery"
	Pickup   Mode = "pickup"
)

// Options configures a concrete adapter session.
type Options struct {
	// BaseUrl overrides the retailer's production endpoint. Used in tests.
	BaseUrl string `json:"base_url"`
	// PostalCode is the delivery location set once per session before any
	// search runs. Storefront prices vary by region.
	PostalCode string `json:"postal_code"`
	Delivery   Mode   `json:"delivery_mode"`
	// RequestIntervalMs spaces out requests against one retailer.
	// Zero disables pacing.
	RequestIntervalMs int `json:"request_interval_ms"`
}

// NewLimiter builds the request pacer adapters apply before every
// storefront round trip.
func (o Options) NewLimiter() *rate.Limiter {
	if o.RequestIntervalMs <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	interval := time.Duration(o.RequestIntervalMs) * time.Millisecond
	return rate.NewLimiter(rate.Every(interval), 1)
}
