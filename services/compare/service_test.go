package compare

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"precoradar/lib/retailer"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeAdapter scripts per-query responses. Error values are consumed in
// order before candidates are served, which models flaky transports.
type fakeAdapter struct {
	name    string
	results map[string][]retailer.Candidate
	errs    map[string][]error
	delay   time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func newFakeAdapter(name string) *fakeAdapter {
	return &fakeAdapter{
		name:    name,
		results: map[string][]retailer.Candidate{},
		errs:    map[string][]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) addResult(query, displayName, priceText string) {
	f.results[query] = append(f.results[query], retailer.Candidate{
		Retailer:    f.name,
		DisplayName: displayName,
		PriceText:   priceText,
	})
}

func (f *fakeAdapter) Search(ctx context.Context, query string, limit int) ([]retailer.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[query]++

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", retailer.ErrTransport, ctx.Err())
		}
	}

	if pending := f.errs[query]; len(pending) > 0 {
		err := pending[0]
		f.errs[query] = pending[1:]
		return nil, err
	}

	candidates := f.results[query]
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (f *fakeAdapter) callCount(query string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[query]
}

func fastCfg() Config {
	return Config{
		CandidateLimit: 10,
		MaxRetries:     3,
		BackoffBaseMs:  1,
		Concurrency:    2,
	}
}

func TestRunPicksCheapestAcrossRetailers(t *testing.T) {
	tenda := newFakeAdapter("tenda")
	tenda.addResult("Bacon", "Bacon Defumado 500g", "R$ 24,90") // 49.80/kg
	goodbom := newFakeAdapter("goodbom")
	goodbom.addResult("Bacon", "Bacon em Cubos 300g", "R$ 13,50") // 45.00/kg

	report := Run(context.Background(), []string{"Bacon"}, []retailer.Adapter{tenda, goodbom}, fastCfg())

	require.Len(t, report.BestOffers, 1)
	require.Len(t, report.Unmatched, 0)
	best := report.BestOffers[0]
	require.Equal(t, "goodbom", best.Retailer)
	require.Equal(t, "Bacon", best.Query)
	require.True(t, best.PricePerKg.Equal(decimal.RequireFromString("45.00")))
	require.True(t, report.TotalSpend.Equal(decimal.RequireFromString("13.50")))
}

func TestRunUnmatchedProduct(t *testing.T) {
	tenda := newFakeAdapter("tenda")

	report := Run(context.Background(), []string{"Presunto Raro"}, []retailer.Adapter{tenda}, fastCfg())

	require.Len(t, report.BestOffers, 0)
	diff := cmp.Diff([]Unmatched{{Query: "Presunto Raro"}}, report.Unmatched)
	require.Empty(t, diff)
	require.True(t, report.TotalSpend.IsZero())
}

func TestRunRetriesTransportFailures(t *testing.T) {
	tenda := newFakeAdapter("tenda")
	tenda.errs["Bacon"] = []error{
		fmt.Errorf("%w: connection reset", retailer.ErrTransport),
		fmt.Errorf("%w: connection reset", retailer.ErrTransport),
	}
	tenda.addResult("Bacon", "Bacon Defumado 500g", "R$ 24,90")

	report := Run(context.Background(), []string{"Bacon"}, []retailer.Adapter{tenda}, fastCfg())

	// two failures then success, all within MaxRetries=3
	require.Equal(t, 3, tenda.callCount("Bacon"))
	require.Len(t, report.BestOffers, 1)
	require.Len(t, report.Unmatched, 0)
}

func TestRunExhaustedRetriesDontAbortRun(t *testing.T) {
	down := newFakeAdapter("tenda")
	down.errs["Bacon"] = []error{
		fmt.Errorf("%w: timeout", retailer.ErrTransport),
		fmt.Errorf("%w: timeout", retailer.ErrTransport),
		fmt.Errorf("%w: timeout", retailer.ErrTransport),
	}
	up := newFakeAdapter("goodbom")
	up.addResult("Bacon", "Bacon em Cubos 300g", "R$ 13,50")

	report := Run(context.Background(), []string{"Bacon"}, []retailer.Adapter{down, up}, fastCfg())

	require.Equal(t, 3, down.callCount("Bacon"))
	require.Len(t, report.BestOffers, 1)
	require.Equal(t, "goodbom", report.BestOffers[0].Retailer)
}

func TestRunNotFoundIsNotRetried(t *testing.T) {
	tenda := newFakeAdapter("tenda")
	tenda.errs["Bacon"] = []error{
		fmt.Errorf("%w: search endpoint gone", retailer.ErrNotFound),
	}

	report := Run(context.Background(), []string{"Bacon"}, []retailer.Adapter{tenda}, fastCfg())

	require.Equal(t, 1, tenda.callCount("Bacon"))
	require.Len(t, report.Unmatched, 1)
	require.False(t, report.Unmatched[0].TimedOut)
}

func TestRunAuthFailureDisablesAdapter(t *testing.T) {
	broken := newFakeAdapter("arena")
	broken.errs["Bacon"] = []error{
		fmt.Errorf("%w: credentials expired", retailer.ErrAuth),
	}
	broken.addResult("Presunto", "Presunto Cozido 200g", "R$ 8,00")
	healthy := newFakeAdapter("goodbom")
	healthy.addResult("Bacon", "Bacon em Cubos 300g", "R$ 13,50")
	healthy.addResult("Presunto", "Presunto Fatiado 200g", "R$ 9,00")

	cfg := fastCfg()
	cfg.Concurrency = 1
	report := Run(context.Background(), []string{"Bacon", "Presunto"}, []retailer.Adapter{broken, healthy}, cfg)

	// the disabled adapter is never consulted again, not even for the
	// product it has results for
	require.Equal(t, 1, broken.callCount("Bacon"))
	require.Equal(t, 0, broken.callCount("Presunto"))
	require.Len(t, report.BestOffers, 2)
	require.Equal(t, "goodbom", report.BestOffers[1].Retailer)
}

func TestRunPreservesCatalogOrder(t *testing.T) {
	catalog := make([]string, 8)
	adapter := newFakeAdapter("tenda")
	for i := range catalog {
		catalog[i] = fmt.Sprintf("Produto %d", i)
		adapter.addResult(catalog[i], fmt.Sprintf("Produto %d Embalado 500g", i), "R$ 10,00")
	}
	// stagger completions so catalog order cannot come out of scheduling
	// luck alone
	adapter.delay = time.Millisecond * 2

	cfg := fastCfg()
	cfg.Concurrency = 4
	report := Run(context.Background(), catalog, []retailer.Adapter{adapter}, cfg)

	require.Len(t, report.BestOffers, len(catalog))
	for i, offer := range report.BestOffers {
		require.Equal(t, catalog[i], offer.Query)
	}
}

func TestRunGlobalTimeout(t *testing.T) {
	slow := newFakeAdapter("tenda")
	slow.delay = time.Millisecond * 250
	catalog := make([]string, 10)
	for i := range catalog {
		catalog[i] = fmt.Sprintf("Produto %d", i)
		slow.addResult(catalog[i], fmt.Sprintf("Produto %d Pacote 500g", i), "R$ 10,00")
	}

	cfg := fastCfg()
	cfg.Concurrency = 1
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*600)
	defer cancel()
	report := Run(ctx, catalog, []retailer.Adapter{slow}, cfg)

	// the report is complete: every product is accounted for either way
	require.Equal(t, len(catalog), len(report.BestOffers)+len(report.Unmatched))
	require.NotEmpty(t, report.BestOffers)
	require.NotEmpty(t, report.Unmatched)
	for _, u := range report.Unmatched {
		require.True(t, u.TimedOut, u.Query)
	}
}

func TestRunStripsUnitWordsFromSearchTerm(t *testing.T) {
	tenda := newFakeAdapter("tenda")
	// the storefront is queried with the cleaned term
	tenda.addResult("Bacon", "Bacon Defumado 500g", "R$ 24,90")

	report := Run(context.Background(), []string{"Bacon kg"}, []retailer.Adapter{tenda}, fastCfg())

	require.Equal(t, 1, tenda.callCount("Bacon"))
	require.Len(t, report.BestOffers, 1)
	// the report keeps the catalog line verbatim
	require.Equal(t, "Bacon kg", report.BestOffers[0].Query)
}

func TestRunSkipsUnparseableCandidates(t *testing.T) {
	tenda := newFakeAdapter("tenda")
	tenda.addResult("Bacon", "Bacon Defumado 500g", "sob consulta")
	tenda.addResult("Bacon", "Bacon em Cubos 300g", "R$ 13,50")

	report := Run(context.Background(), []string{"Bacon"}, []retailer.Adapter{tenda}, fastCfg())

	require.Len(t, report.BestOffers, 1)
	require.Equal(t, "Bacon em Cubos 300g", report.BestOffers[0].DisplayName)
}
