package goodbom

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"precoradar/lib/retailer"
	"precoradar/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("precoradar.retailer.goodbom")

const productionUrl = "https://www.goodbom.com.br"

// Adapter scrapes the GoodBom storefront search page. The store picks the
// region from the URL path, so there is no session to establish; each
// search is one GET plus html extraction.
type Adapter struct {
	http    *resty.Client
	opts    retailer.Options
	limiter *rate.Limiter
	region  string

	mu sync.Mutex
}

func New(opts retailer.Options) *Adapter {
	base := opts.BaseUrl
	if base == "" {
		base = productionUrl
	}

	client := resty.New()
	client.SetBaseURL(base)
	client.SetTimeout(time.Second * 30)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	telemetry.InstrumentResty(client, "precoradar.retailer.goodbom.http")

	return &Adapter{
		http:    client,
		opts:    opts,
		limiter: opts.NewLimiter(),
		region:  regionFromPostalCode(opts.PostalCode),
	}
}

// GoodBom routes by city slug rather than by an address session. The two
// regions the comparison covers map from their postal code prefixes.
func regionFromPostalCode(cep string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cep)
	if strings.HasPrefix(digits, "130") {
		return "campinas"
	}
	return "hortolandia"
}

func (g *Adapter) Name() string { return "goodbom" }

func (g *Adapter) Search(ctx context.Context, query string, limit int) ([]retailer.Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx, span := tracer.Start(ctx, "goodbom:Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", retailer.ErrTransport, err)
	}

	res, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get(fmt.Sprintf("/%s/busca", g.region))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, fmt.Errorf("%w: search: %v", retailer.ErrTransport, err)
	}
	switch res.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: search page returned 404", retailer.ErrNotFound)
	default:
		return nil, fmt.Errorf("%w: search returned %s", retailer.ErrTransport, res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse search page")
		return nil, fmt.Errorf("%w: parse search page: %v", retailer.ErrTransport, err)
	}

	candidates := extractCards(doc, g.Name(), limit)
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	return candidates, nil
}

// extractCards pulls (name, price) pairs out of the search results page.
// Each product card is an anchor wrapping a span.product-name and a
// span.price (or span.sale-price when discounted).
func extractCards(doc *goquery.Document, retailerId string, limit int) []retailer.Candidate {
	var candidates []retailer.Candidate
	doc.Find("span.product-name").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(candidates) == limit {
			return false
		}

		name := strings.TrimSpace(s.Text())
		card := s.Closest("a")
		if card.Length() == 0 {
			card = s.Parent()
		}
		priceText := strings.TrimSpace(card.Find("span.price").First().Text())
		if priceText == "" {
			priceText = strings.TrimSpace(card.Find("span.sale-price").First().Text())
		}
		if name == "" || priceText == "" {
			return true
		}

		candidates = append(candidates, retailer.Candidate{
			Retailer:    retailerId,
			DisplayName: name,
			PriceText:   priceText,
		})
		return true
	})
	return candidates
}
