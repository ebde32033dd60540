package arena

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"precoradar/lib/retailer"
	"precoradar/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("precoradar.retailer.arena")

const productionUrl = "https://www.arenaatacado.com.br"

// Adapter talks to the Arena storefront JSON API: a guest bearer token,
// a checkout session carrying the delivery postal code, then the catalog
// search endpoint.
type Adapter struct {
	http    *resty.Client
	opts    retailer.Options
	limiter *rate.Limiter

	// guards the session; one token, one search at a time
	mu        sync.Mutex
	sessionUp bool
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
	client.SetHeader("accept", "application/json")

	telemetry.InstrumentResty(client, "precoradar.retailer.arena.http")

	return &Adapter{
		http:    client,
		opts:    opts,
		limiter: opts.NewLimiter(),
	}
}

func (a *Adapter) Name() string { return "arena" }

type guestToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ensureSession obtains a guest bearer token and points the checkout
// session at the configured postal code. Runs once per adapter instance;
// callers hold the mutex.
func (a *Adapter) ensureSession(ctx context.Context) error {
	if a.sessionUp {
		return nil
	}

	res, err := a.http.R().
		SetContext(ctx).
		Post("/api/auth/guest")
	if err != nil {
		return fmt.Errorf("%w: guest auth: %v", retailer.ErrTransport, err)
	}
	switch res.StatusCode() {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: guest auth returned %s", retailer.ErrAuth, res.Status())
	default:
		return fmt.Errorf("%w: guest auth returned %s", retailer.ErrTransport, res.Status())
	}

	var token guestToken
	if err := json.Unmarshal(res.Body(), &token); err != nil {
		return fmt.Errorf("%w: decode guest token: %v", retailer.ErrTransport, err)
	}
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	a.http.SetHeader("authorization", fmt.Sprintf("%s %s", tokenType, token.AccessToken))

	res, err = a.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"postalCode": a.opts.PostalCode,
			"mode":       string(a.opts.Delivery),
		}).
		Put("/api/checkout/session")
	if err != nil {
		return fmt.Errorf("%w: set delivery address: %v", retailer.ErrTransport, err)
	}
	switch res.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: delivery address rejected: %s", retailer.ErrAuth, res.Status())
	default:
		return fmt.Errorf("%w: set delivery address returned %s", retailer.ErrTransport, res.Status())
	}

	a.sessionUp = true
	return nil
}

type searchResponse struct {
	Products []struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	} `json:"products"`
}

func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]retailer.Candidate, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, span := tracer.Start(ctx, "arena:Search")
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

	res, err := a.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetQueryParam("size", strconv.Itoa(limit)).
		Get("/api/catalog/search")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, fmt.Errorf("%w: search: %v", retailer.ErrTransport, err)
	}
	switch res.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: search endpoint returned 404", retailer.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		// token revoked mid-run
		a.sessionUp = false
		return nil, fmt.Errorf("%w: bearer token rejected: %s", retailer.ErrAuth, res.Status())
	default:
		return nil, fmt.Errorf("%w: search returned %s", retailer.ErrTransport, res.Status())
	}

	var payload searchResponse
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad search payload")
		return nil, fmt.Errorf("%w: decode search response: %v", retailer.ErrTransport, err)
	}

	candidates := make([]retailer.Candidate, 0, limit)
	for _, p := range payload.Products {
		if len(candidates) == limit {
			break
		}
		candidates = append(candidates, retailer.Candidate{
			Retailer:    a.Name(),
			DisplayName: p.Name,
			PriceText:   p.Price,
		})
	}
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	return candidates, nil
}
