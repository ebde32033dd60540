package compare

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"precoradar/lib/pricing"
	"precoradar/lib/retailer"
	"precoradar/lib/textutil"
	"precoradar/lib/timezone"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("precoradar.services.compare")

type Config struct {
	// per-query cap on candidates requested from each retailer
	CandidateLimit int `json:"candidate_limit"`
	// attempts per adapter call before it stops contributing to a product
	MaxRetries    int `json:"max_retries"`
	BackoffBaseMs int `json:"backoff_base_ms"`
	// bound on products resolved in parallel
	Concurrency int `json:"concurrency"`
	// whole-run deadline; zero means the caller's context governs
	TimeoutSec int `json:"timeout_sec"`
}

func (c Config) withDefaults() Config {
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = 15
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffBaseMs <= 0 {
		c.BackoffBaseMs = 500
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

const maxBackoff = time.Second * 10

type productState int

const (
	statePending productState = iota
	stateMatched
	stateUnmatched
)

type productResult struct {
	state    productState
	timedOut bool
	offer    pricing.Offer
}

type runner struct {
	adapters []retailer.Adapter
	cfg      Config

	disabledMu sync.Mutex
	disabled   map[string]bool
}

// Run resolves every catalog product against every adapter and assembles
// the report. Individual retailer failures never abort the run: a product
// with no surviving offers lands in Unmatched and the pipeline moves on.
// The returned report is complete even when the deadline fires mid-run;
// unresolved products are reported as unmatched with the TimedOut marker.
func Run(ctx context.Context, catalog []string, adapters []retailer.Adapter, cfg Config) Report {
	cfg = cfg.withDefaults()
	if cfg.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSec)*time.Second)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "compare:Run", trace.WithAttributes(
		attribute.Int("products", len(catalog)),
		attribute.Int("adapters", len(adapters)),
	))
	defer span.End()

	r := &runner{
		adapters: adapters,
		cfg:      cfg,
		disabled: map[string]bool{},
	}

	// each worker writes only its own slot; order is fixed by catalog
	// position, never by completion time
	results := make([]productResult, len(catalog))
	sem := make(chan struct{}, cfg.Concurrency)
	var wg sync.WaitGroup
	for i, query := range catalog {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = productResult{state: stateUnmatched, timedOut: true}
				return
			}
			defer func() { <-sem }()
			results[i] = r.resolveProduct(ctx, query)
		}(i, query)
	}
	wg.Wait()

	report := Report{
		GeneratedAt: timezone.Now(),
		BestOffers:  []pricing.Offer{},
		Unmatched:   []Unmatched{},
		TotalSpend:  decimal.Zero,
	}
	for i, query := range catalog {
		res := results[i]
		if res.state == stateMatched {
			report.BestOffers = append(report.BestOffers, res.offer)
			report.TotalSpend = report.TotalSpend.Add(res.offer.Price)
			continue
		}
		report.Unmatched = append(report.Unmatched, Unmatched{
			Query:    query,
			TimedOut: res.timedOut,
		})
	}

	span.SetAttributes(
		attribute.Int("matched", len(report.BestOffers)),
		attribute.Int("unmatched", len(report.Unmatched)),
	)
	slog.InfoContext(ctx, "comparison run finished",
		"matched", len(report.BestOffers),
		"unmatched", len(report.Unmatched),
		"total_spend", report.TotalSpend.StringFixed(2),
	)
	return report
}

func (r *runner) resolveProduct(ctx context.Context, query string) productResult {
	ctx, span := tracer.Start(ctx, "compare:resolveProduct", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	term := textutil.SearchTerm(query)

	var offers []pricing.Offer
	for _, adapter := range r.adapters {
		if ctx.Err() != nil {
			return productResult{state: stateUnmatched, timedOut: true}
		}
		if r.isDisabled(adapter.Name()) {
			continue
		}

		candidates, err := r.fetchWithRetry(ctx, adapter, term)
		if err != nil {
			if errors.Is(err, retailer.ErrAuth) {
				r.disable(ctx, adapter.Name(), err)
				continue
			}
			if ctx.Err() != nil {
				return productResult{state: stateUnmatched, timedOut: true}
			}
			// retries exhausted: this retailer contributes nothing for
			// this product, the others still count
			slog.WarnContext(ctx, "adapter gave no contribution",
				"retailer", adapter.Name(), "query", query, "err", err)
			continue
		}

		for _, c := range candidates {
			if offer, ok := pricing.BuildOffer(query, c); ok {
				offers = append(offers, offer)
			}
		}
	}

	best, ok := pricing.SelectBest(term, offers)
	if !ok {
		return productResult{state: stateUnmatched}
	}
	return productResult{state: stateMatched, offer: best}
}

// fetchWithRetry runs one adapter query, retrying transport failures with
// doubling backoff. ErrNotFound collapses to an empty result set without
// retrying; everything else propagates for the caller to classify.
func (r *runner) fetchWithRetry(ctx context.Context, adapter retailer.Adapter, term string) ([]retailer.Candidate, error) {
	backoff := time.Duration(r.cfg.BackoffBaseMs) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		candidates, err := adapter.Search(ctx, term, r.cfg.CandidateLimit)
		if err == nil {
			return candidates, nil
		}
		if errors.Is(err, retailer.ErrNotFound) {
			slog.DebugContext(ctx, "retailer has no such product",
				"retailer", adapter.Name(), "query", term)
			return nil, nil
		}
		if !errors.Is(err, retailer.ErrTransport) {
			return nil, err
		}

		lastErr = err
		if attempt == r.cfg.MaxRetries {
			break
		}
		slog.WarnContext(ctx, "transport failure, backing off",
			"retailer", adapter.Name(), "attempt", attempt,
			"backoff", backoff, "err", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return nil, lastErr
}

func (r *runner) isDisabled(name string) bool {
	r.disabledMu.Lock()
	defer r.disabledMu.Unlock()
	return r.disabled[name]
}

func (r *runner) disable(ctx context.Context, name string, err error) {
	r.disabledMu.Lock()
	defer r.disabledMu.Unlock()
	if r.disabled[name] {
		return
	}
	r.disabled[name] = true
	slog.ErrorContext(ctx, "adapter disabled for the rest of the run",
		"retailer", name, "err", err)
}
