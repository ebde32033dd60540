package tenda

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"precoradar/lib/retailer"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("precoradar.retailer.tenda")

const productionUrl = "https://www.tendaatacado.com.br"

const (
	navigateTimeout = time.Second * 60
	// how long to wait for product cards before concluding a search
	// returned nothing
	cardsTimeout = time.Second * 15
)

// card selectors on the storefront search page
const (
	postalCodeInput = "#shipping-cep"
	cardSelector    = "a.showcase-card-content"
)

// extraction runs inside the page, mirroring what the storefront renders:
// one anchor per product card with a title heading and a price block.
const cardsJS = `Array.from(document.querySelectorAll("a.showcase-card-content")).slice(0, %d).map((card) => ({
	name: (card.querySelector("h3.TitleCardComponent")?.innerText || "").trim(),
	price: (card.querySelector("div.SimplePriceComponent")?.innerText ||
		card.querySelector("[class*='Price']")?.innerText || "").trim(),
}))`

// clicks the delivery/pickup choice if the storefront asks for one
const pickModeJS = `(() => {
	const btn = document.querySelector("button.%s-option");
	if (btn) btn.click();
	return btn != null;
})()`

// Adapter drives a headless browser against the Tenda storefront. The
// storefront has no public search API and prices only render after a
// delivery postal code has been set on the session, so the adapter types
// the code into the landing page once and reuses the tab for every query.
type Adapter struct {
	opts    retailer.Options
	limiter *rate.Limiter
	baseUrl string

	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	// one tab, one in-flight search
	mu        sync.Mutex
	sessionUp bool
}

func New(opts retailer.Options) (*Adapter, error) {
	base := opts.BaseUrl
	if base == "" {
		base = productionUrl
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(
		context.Background(),
		append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"),
		)...,
	)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// launch eagerly so a missing chrome binary fails construction, not
	// the first search
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: launch browser: %v", retailer.ErrTransport, err)
	}

	return &Adapter{
		opts:          opts,
		limiter:       opts.NewLimiter(),
		baseUrl:       base,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

func (a *Adapter) Name() string { return "tenda" }

func (a *Adapter) Close() {
	a.cancelBrowser()
	a.cancelAlloc()
}

// run executes browser actions bounded by both the caller's context and a
// local timeout, without tearing down the shared tab.
func (a *Adapter) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(a.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// ensureSession types the delivery postal code into the landing page and
// picks the configured delivery mode. The storefront remembers both on
// the session, so this runs once per adapter instance. Callers hold the
// mutex.
func (a *Adapter) ensureSession(ctx context.Context) error {
	if a.sessionUp {
		return nil
	}

	err := a.run(ctx, navigateTimeout, chromedp.Navigate(a.baseUrl))
	if err != nil {
		return fmt.Errorf("%w: open storefront: %v", retailer.ErrTransport, err)
	}

	mode := a.opts.Delivery
	if mode == "" {
		mode = retailer.Delivery
	}
	err = a.run(ctx, cardsTimeout,
		chromedp.WaitVisible(postalCodeInput, chromedp.ByQuery),
		chromedp.SendKeys(postalCodeInput, a.opts.PostalCode+kb.Enter, chromedp.ByQuery),
		chromedp.Sleep(time.Second*4),
		chromedp.Evaluate(fmt.Sprintf(pickModeJS, mode), nil),
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: set postal code: %v", retailer.ErrTransport, ctx.Err())
		}
		// the form does not render when the session already has an
		// address; treat it as configured
		slog.WarnContext(ctx, "postal code form not found, assuming session is set", "retailer", a.Name(), "err", err)
	}

	a.sessionUp = true
	return nil
}

type extractedCard struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]retailer.Candidate, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, span := tracer.Start(ctx, "tenda:Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", retailer.ErrTransport, err)
	}
	if err := a.ensureSession(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session setup failed")
		return nil, err
	}

	searchUrl := fmt.Sprintf("%s/busca?q=%s", a.baseUrl, url.QueryEscape(query))
	err := a.run(ctx, navigateTimeout, chromedp.Navigate(searchUrl))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open search page")
		return nil, fmt.Errorf("%w: open search page: %v", retailer.ErrTransport, err)
	}

	err = a.run(ctx, cardsTimeout, chromedp.WaitVisible(cardSelector, chromedp.ByQuery))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: wait for results: %v", retailer.ErrTransport, ctx.Err())
		}
		// no cards within the window means the search came back empty
		slog.DebugContext(ctx, "no product cards rendered", "retailer", a.Name(), "query", query)
		return nil, nil
	}

	var cards []extractedCard
	err = a.run(ctx, cardsTimeout, chromedp.Evaluate(fmt.Sprintf(cardsJS, limit), &cards))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "card extraction failed")
		return nil, fmt.Errorf("%w: extract cards: %v", retailer.ErrTransport, err)
	}

	candidates := make([]retailer.Candidate, 0, len(cards))
	for _, card := range cards {
		if card.Name == "" || card.Price == "" {
			continue
		}
		candidates = append(candidates, retailer.Candidate{
			Retailer:    a.Name(),
			DisplayName: card.Name,
			PriceText:   card.Price,
		})
	}
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	return candidates, nil
}
