package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CallAudit/internal/domain/models"
)

var testT0 = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

// nopMetrics satisfies the Metrics interface for tests.
type nopMetrics struct{}

func (nopMetrics) RecordSimulation(string, string)       {}
func (nopMetrics) RecordValidation(string, string, bool) {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordLastPrice(string, float64)       {}
func (nopMetrics) RecordLatency(string, float64)         {}

// fakeSource serves scripted observations per ticker; unknown tickers fail
// like a real provider would.
type fakeSource struct {
	paths map[string][]models.PriceObservation
}

func newFakeSource() *fakeSource {
	return &fakeSource{paths: make(map[string][]models.PriceObservation)}
}

func (f *fakeSource) script(ticker string, start time.Time, prices ...float64) {
	obs := make([]models.PriceObservation, len(prices))
	for i, p := range prices {
		obs[i] = models.PriceObservation{Ticker: ticker, Timestamp: start.Add(time.Duration(i) * time.Minute), Price: p}
	}
	f.paths[ticker] = obs
}

func (f *fakeSource) PriceAt(_ context.Context, ticker string, at time.Time) (float64, error) {
	path, ok := f.paths[ticker]
	if !ok {
		return 0, models.ErrUnsupportedAsset
	}
	best := -1
	for i, obs := range path {
		if best == -1 || absDur(obs.Timestamp.Sub(at)) < absDur(path[best].Timestamp.Sub(at)) {
			best = i
		}
	}
	if best == -1 {
		return 0, models.ErrPriceUnavailable
	}
	// Anything more than an hour away from the nearest observation counts
	// as unavailable, like a provider with no data for that instant.
	if absDur(path[best].Timestamp.Sub(at)) > time.Hour {
		return 0, models.ErrPriceUnavailable
	}
	return path[best].Price, nil
}

func (f *fakeSource) PricePath(_ context.Context, ticker string, from, to time.Time) ([]models.PriceObservation, error) {
	path, ok := f.paths[ticker]
	if !ok {
		return nil, models.ErrUnsupportedAsset
	}
	var out []models.PriceObservation
	for _, obs := range path {
		if !obs.Timestamp.Before(from) && !obs.Timestamp.After(to) {
			out = append(out, obs)
		}
	}
	return out, nil
}

func absDur(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func TestSimulateBatchEmptyBatchHasZeroROI(t *testing.T) {
	sim := NewPositionSimulator(newFakeSource(), nopMetrics{}, 2)

	res := sim.SimulateBatch(context.Background(), nil, 100, 24*time.Hour)

	assert.Equal(t, 0, res.TotalCount)
	assert.Zero(t, res.TotalCapital)
	assert.Zero(t, res.ROIPercent)
}

func TestSimulateBatchIsolatesUnsupportedTicker(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 63000, 64000, 65000)

	signals := []models.Signal{
		{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 63000, Timestamp: testT0},
		{Ticker: "NOPE", Sentiment: models.SentimentLong, EntryPrice: 1, Timestamp: testT0},
	}

	sim := NewPositionSimulator(src, nopMetrics{}, 2)
	res := sim.SimulateBatch(context.Background(), signals, 100, 24*time.Hour)

	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, 1, res.SuccessfulCount)
	assert.Equal(t, 200.0, res.TotalCapital)

	require.Len(t, res.Outcomes, 2)
	assert.True(t, res.Outcomes[0].OK())
	assert.Equal(t, "BTC", res.Outcomes[0].Signal.Ticker)
	assert.False(t, res.Outcomes[1].OK())
	assert.NotEmpty(t, res.Outcomes[1].Error)

	// Totals reflect only the successful slot.
	assert.InDelta(t, res.Outcomes[0].Result.PnLDollar, res.TotalPnL, 1e-9)
	assert.InDelta(t, res.TotalPnL/200.0*100, res.ROIPercent, 1e-9)
}

func TestSimulateBatchFiltersSentimentOnlySignals(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 100, 110)

	signals := []models.Signal{
		{Ticker: "BTC", Sentiment: models.SentimentBullish, Timestamp: testT0},
		{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, Timestamp: testT0},
		{Ticker: "BTC", Sentiment: models.SentimentNeutral, Timestamp: testT0},
	}

	sim := NewPositionSimulator(src, nopMetrics{}, 2)
	res := sim.SimulateBatch(context.Background(), signals, 50, 24*time.Hour)

	assert.Equal(t, 1, res.TotalCount, "only the executable signal gets a slot")
	assert.Equal(t, 1, res.SuccessfulCount)
	assert.Equal(t, 1, res.LongCount)
}

func TestSimulateBatchPreservesOrder(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 100, 110)
	src.script("ETH", testT0, 3000, 2900)
	src.script("SOL", testT0, 150, 160)

	signals := []models.Signal{
		{Ticker: "SOL", Sentiment: models.SentimentLong, EntryPrice: 150, Timestamp: testT0},
		{Ticker: "BTC", Sentiment: models.SentimentShort, EntryPrice: 100, Timestamp: testT0},
		{Ticker: "ETH", Sentiment: models.SentimentLong, EntryPrice: 3000, Timestamp: testT0},
	}

	sim := NewPositionSimulator(src, nopMetrics{}, 3)
	res := sim.SimulateBatch(context.Background(), signals, 100, 24*time.Hour)

	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "SOL", res.Outcomes[0].Signal.Ticker)
	assert.Equal(t, "BTC", res.Outcomes[1].Signal.Ticker)
	assert.Equal(t, "ETH", res.Outcomes[2].Signal.Ticker)
	assert.Equal(t, 2, res.LongCount)
	assert.Equal(t, 1, res.ShortCount)
}

func TestSimulateBatchInvalidSignalGetsErrorSlot(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 100, 110)

	signals := []models.Signal{
		{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, TakeProfits: []float64{120, 110}, Timestamp: testT0},
	}

	sim := NewPositionSimulator(src, nopMetrics{}, 1)
	res := sim.SimulateBatch(context.Background(), signals, 100, 24*time.Hour)

	require.Len(t, res.Outcomes, 1)
	assert.False(t, res.Outcomes[0].OK())
	assert.Contains(t, res.Outcomes[0].Error, "invalid signal")
	assert.Equal(t, 0, res.SuccessfulCount)
	assert.Equal(t, 1, res.TotalCount)
}

func TestSimulateBatchCanceledContextReturnsErrorSlots(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 100, 110)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	signals := []models.Signal{
		{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, Timestamp: testT0},
		{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, Timestamp: testT0},
	}

	sim := NewPositionSimulator(src, nopMetrics{}, 2)
	res := sim.SimulateBatch(ctx, signals, 100, 24*time.Hour)

	assert.Equal(t, 2, res.TotalCount, "every slot is present even after abort")
	for _, o := range res.Outcomes {
		assert.NotEmpty(t, o.Error)
	}
	assert.Zero(t, res.TotalPnL)
}

func TestSimulateBatchLeverageAggregates(t *testing.T) {
	src := newFakeSource()
	src.script("BTC", testT0, 100, 110)
	src.script("ETH", testT0, 3000, 3300)

	signals := []models.Signal{
		{Ticker: "BTC", Sentiment: models.SentimentLong, Leverage: 10, EntryPrice: 100, Timestamp: testT0},
		{Ticker: "ETH", Sentiment: models.SentimentLong, Leverage: 2, EntryPrice: 3000, Timestamp: testT0},
	}

	sim := NewPositionSimulator(src, nopMetrics{}, 2)
	res := sim.SimulateBatch(context.Background(), signals, 100, 24*time.Hour)

	assert.Equal(t, 10.0, res.MaxLeverage)
	assert.InDelta(t, 6.0, res.AvgLeverage, 1e-9)
	assert.InDelta(t, 1200.0, res.TotalExposure, 1e-9)
	assert.Equal(t, 2, res.WinningCount)
	assert.InDelta(t, 100.0, res.WinRatePercent, 1e-9)
}
