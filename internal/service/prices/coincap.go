package prices

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"CallAudit/internal/domain/models"
	domrepo "CallAudit/internal/domain/repository"
	xhttp "CallAudit/pkg/http"
	xutil "CallAudit/pkg/util"
)

const (
	defaultCoinCapBaseURL = "https://rest.coincap.io/v3"
	historyInterval       = "m1"
)

// CoinCap is a PriceSource backed by the CoinCap REST API. Lookups resolve
// the ticker to an asset id once and then query minute-interval history.
// Transient failures are retried a bounded number of times with backoff at
// this boundary only; once retries run out the error is reported as
// ErrProviderUnavailable so batch callers can demote it to a per-item error.
type CoinCap struct {
	baseURL  string
	apiKey   string
	client   *xhttp.Client
	attempts int
	backoff  time.Duration

	mu       sync.Mutex
	assetIDs map[string]string
}

type CoinCapOption func(*CoinCap)

// WithBaseURL overrides the API endpoint (tests point this at a stub).
func WithBaseURL(u string) CoinCapOption {
	return func(c *CoinCap) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRetry sets the attempt count and initial backoff for transient errors.
func WithRetry(attempts int, backoff time.Duration) CoinCapOption {
	return func(c *CoinCap) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) CoinCapOption {
	return func(c *CoinCap) { c.client = xhttp.NewClient(xhttp.WithTimeout(d)) }
}

// NewCoinCap creates a CoinCap price source.
func NewCoinCap(apiKey string, opts ...CoinCapOption) *CoinCap {
	c := &CoinCap{
		baseURL:  defaultCoinCapBaseURL,
		apiKey:   apiKey,
		client:   xhttp.NewClient(xhttp.WithTimeout(15 * time.Second)),
		attempts: 3,
		backoff:  200 * time.Millisecond,
		assetIDs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ccAsset struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

type ccAssetsResp struct {
	Data []ccAsset `json:"data"`
}

type ccHistoryPoint struct {
	PriceUsd string `json:"priceUsd"`
	Time     int64  `json:"time"`
}

type ccHistoryResp struct {
	Data []ccHistoryPoint `json:"data"`
}

func (c *CoinCap) PriceAt(ctx context.Context, ticker string, at time.Time) (float64, error) {
	points, err := c.history(ctx, ticker, at, at.Add(time.Minute))
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, fmt.Errorf("%s at %s: %w", ticker, at.Format(time.RFC3339), models.ErrPriceUnavailable)
	}
	return points[0].Price, nil
}

func (c *CoinCap) PricePath(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error) {
	return c.history(ctx, ticker, from, to)
}

func (c *CoinCap) history(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error) {
	id, err := c.assetID(ctx, ticker)
	if err != nil {
		return nil, err
	}

	// m1 history is bucketed on minute boundaries.
	from, to = xutil.AlignFromTo(from, to, "1m")

	var resp ccHistoryResp
	err = c.getWithRetry(ctx, "/assets/"+id+"/history", map[string][]string{
		"interval": {historyInterval},
		"start":    {strconv.FormatInt(from.UnixMilli(), 10)},
		"end":      {strconv.FormatInt(to.UnixMilli(), 10)},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]models.PriceObservation, 0, len(resp.Data))
	for _, p := range resp.Data {
		price, perr := strconv.ParseFloat(p.PriceUsd, 64)
		if perr != nil || price <= 0 {
			continue
		}
		out = append(out, models.PriceObservation{
			Ticker:    ticker,
			Timestamp: time.UnixMilli(p.Time).UTC(),
			Price:     price,
		})
	}
	return out, nil
}

// assetID resolves a ticker symbol to a CoinCap asset id, preferring an
// exact symbol match over the first search hit. Resolutions are memoized.
func (c *CoinCap) assetID(ctx context.Context, ticker string) (string, error) {
	c.mu.Lock()
	if id, ok := c.assetIDs[ticker]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var resp ccAssetsResp
	err := c.getWithRetry(ctx, "/assets", map[string][]string{
		"search": {ticker},
		"limit":  {"10"},
	}, &resp)
	if err != nil {
		return "", err
	}

	id := ""
	for _, a := range resp.Data {
		if strings.EqualFold(a.Symbol, ticker) {
			id = a.ID
			break
		}
	}
	if id == "" && len(resp.Data) > 0 {
		id = resp.Data[0].ID
	}
	if id == "" {
		return "", fmt.Errorf("%s: %w", ticker, models.ErrUnsupportedAsset)
	}

	c.mu.Lock()
	c.assetIDs[ticker] = id
	c.mu.Unlock()
	return id, nil
}

func (c *CoinCap) getWithRetry(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var err error
	backoff := c.backoff
	for i := 1; i <= c.attempts; i++ {
		err = c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.baseURL + path,
			Headers:     headers,
			QueryParams: params,
		}, dest)
		if err == nil {
			return nil
		}
		if i == c.attempts {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("coincap %s: %v: %w", path, err, models.ErrProviderUnavailable)
}

var _ domrepo.PriceSource = (*CoinCap)(nil)
