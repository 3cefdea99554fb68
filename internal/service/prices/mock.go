package prices

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"CallAudit/internal/domain/models"
	domrepo "CallAudit/internal/domain/repository"
)

// quote is the synthetic anchor for one ticker: a base price and a
// volatility band the generator wiggles inside.
type quote struct {
	base float64
	vol  float64
}

// defaultQuotes mirrors the asset universe the upstream pipeline most often
// emits signals for.
var defaultQuotes = map[string]quote{
	"BTC":   {63500, 0.02},
	"ETH":   {3150, 0.03},
	"SOL":   {185, 0.04},
	"ADA":   {0.48, 0.05},
	"XRP":   {0.52, 0.03},
	"DOGE":  {0.08, 0.06},
	"MATIC": {0.95, 0.04},
	"DOT":   {8.50, 0.04},
	"UNI":   {7.00, 0.05},
	"LTC":   {85.00, 0.03},
	"LINK":  {14.50, 0.04},
	"AVAX":  {35.00, 0.05},
	"ATOM":  {8.20, 0.04},
	"BNB":   {320.00, 0.03},
	"NEAR":  {5.50, 0.06},
	"FTM":   {0.75, 0.07},
	"ALGO":  {0.25, 0.06},
	"ICP":   {12.50, 0.05},
	"APT":   {8.80, 0.06},
	"ARB":   {1.20, 0.05},
}

// Mock is a deterministic synthetic PriceSource: the same ticker and instant
// always produce the same price, so tests are reproducible. Unknown tickers
// fail with ErrUnsupportedAsset instead of defaulting to zero.
type Mock struct {
	quotes map[string]quote
	step   time.Duration
}

type MockOption func(*Mock)

// WithQuote adds or overrides a ticker in the synthetic universe.
func WithQuote(ticker string, base, volatility float64) MockOption {
	return func(m *Mock) { m.quotes[ticker] = quote{base: base, vol: volatility} }
}

// WithStep sets the observation interval for generated paths.
func WithStep(step time.Duration) MockOption {
	return func(m *Mock) {
		if step > 0 {
			m.step = step
		}
	}
}

// NewMock creates a mock price source over the default ticker table.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{quotes: make(map[string]quote, len(defaultQuotes)), step: time.Minute}
	for k, v := range defaultQuotes {
		m.quotes[k] = v
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mock) PriceAt(_ context.Context, ticker string, at time.Time) (float64, error) {
	q, ok := m.quotes[ticker]
	if !ok {
		return 0, models.ErrUnsupportedAsset
	}
	return m.priceFor(ticker, q, at), nil
}

func (m *Mock) PricePath(_ context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error) {
	q, ok := m.quotes[ticker]
	if !ok {
		return nil, models.ErrUnsupportedAsset
	}
	if to.Before(from) {
		return nil, nil
	}
	out := make([]models.PriceObservation, 0, int(to.Sub(from)/m.step)+1)
	for ts := from; !ts.After(to); ts = ts.Add(m.step) {
		out = append(out, models.PriceObservation{
			Ticker:    ticker,
			Timestamp: ts,
			Price:     m.priceFor(ticker, q, ts),
		})
	}
	return out, nil
}

// priceFor derives a price from the instant alone: the millisecond timestamp
// seeds a local PRNG that picks a variation inside the volatility band.
func (m *Mock) priceFor(ticker string, q quote, at time.Time) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))
	seed := at.UnixMilli()%1_000_000 + int64(h.Sum64()%1_000_000)
	rnd := rand.New(rand.NewSource(seed))
	variation := (rnd.Float64()*2 - 1) * q.vol
	return q.base * (1 + variation)
}

var _ domrepo.PriceSource = (*Mock)(nil)
