package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CallAudit/internal/domain/models"
)

func pathFrom(ticker string, start time.Time, prices ...float64) []models.PriceObservation {
	obs := make([]models.PriceObservation, len(prices))
	for i, p := range prices {
		obs[i] = models.PriceObservation{
			Ticker:    ticker,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Price:     p,
		}
	}
	return obs
}

func f64(v float64) *float64 { return &v }

var t0 = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func TestSimulateEmptyPathReturnsNoData(t *testing.T) {
	sig := models.Signal{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 63000, Timestamp: t0}

	res, err := Simulate(sig, nil, 100)
	require.NoError(t, err)

	assert.Equal(t, models.ExitNoData, res.ExitReason)
	assert.Zero(t, res.PnLDollar)
	assert.Zero(t, res.PnLPercent)
}

func TestSimulateRejectsInvalidSignals(t *testing.T) {
	path := pathFrom("BTC", t0, 100, 101)

	_, err := Simulate(models.Signal{Sentiment: models.SentimentLong, EntryPrice: 1, Timestamp: t0}, path, 100)
	assert.True(t, models.IsInvalidSignal(err), "empty ticker must be rejected")

	_, err = Simulate(models.Signal{Ticker: "BTC", Sentiment: models.SentimentBullish, EntryPrice: 1, Timestamp: t0}, path, 100)
	assert.True(t, models.IsInvalidSignal(err), "sentiment-only signals are not positions")

	_, err = Simulate(models.Signal{
		Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100,
		TakeProfits: []float64{120, 110}, Timestamp: t0,
	}, path, 100)
	assert.True(t, models.IsInvalidSignal(err), "take profits must step away from entry")
}

func TestSimulateStopLossAfterFirstTakeProfit(t *testing.T) {
	// tp1 at 65000 is touched but does not close; the later stop at 60000 does.
	sig := models.Signal{
		Ticker:      "BTC",
		Sentiment:   models.SentimentLong,
		Leverage:    10,
		EntryPrice:  63000,
		StopLoss:    f64(60000),
		TakeProfits: []float64{65000, 67000},
		Timestamp:   t0,
	}
	path := pathFrom("BTC", t0, 63000, 64000, 65000, 62000, 60000, 67000)

	res, err := Simulate(sig, path, 100)
	require.NoError(t, err)

	assert.Equal(t, models.ExitStopLoss, res.ExitReason)
	assert.Equal(t, 1, res.TakeProfitsHit)
	assert.Equal(t, float64(60000), res.ExitPrice)
	assert.InDelta(t, (60000.0-63000.0)/63000.0*100*10, res.PnLPercent, 1e-9)
	assert.InDelta(t, 100*res.PnLPercent/100, res.PnLDollar, 1e-9)
}

func TestSimulateFinalTakeProfitCloses(t *testing.T) {
	sig := models.Signal{
		Ticker:      "ETH",
		Sentiment:   models.SentimentLong,
		EntryPrice:  3000,
		TakeProfits: []float64{3100, 3200},
		Timestamp:   t0,
	}
	path := pathFrom("ETH", t0, 3000, 3100, 3250, 2000)

	res, err := Simulate(sig, path, 100)
	require.NoError(t, err)

	assert.Equal(t, models.ExitTakeProfit, res.ExitReason)
	assert.Equal(t, 2, res.ExitLevel)
	assert.Equal(t, 2, res.TakeProfitsHit)
	assert.Equal(t, float64(3200), res.ExitPrice, "exit at the configured level, not the gapped print")
	assert.InDelta(t, (3200.0-3000.0)/3000.0*100, res.PnLPercent, 1e-9)
}

func TestSimulatePartialHitCreditedAtPathEnd(t *testing.T) {
	// Rising path crosses only the first of two levels before it ends:
	// the position closes as take_profit level 1.
	sig := models.Signal{
		Ticker:      "SOL",
		Sentiment:   models.SentimentLong,
		EntryPrice:  150,
		TakeProfits: []float64{160, 200},
		Timestamp:   t0,
	}
	path := pathFrom("SOL", t0, 150, 155, 161, 162)

	res, err := Simulate(sig, path, 100)
	require.NoError(t, err)

	assert.Equal(t, models.ExitTakeProfit, res.ExitReason)
	assert.Equal(t, 1, res.ExitLevel)
	assert.Equal(t, 1, res.TakeProfitsHit)
	assert.Equal(t, float64(160), res.ExitPrice)
}

func TestSimulateHorizonExpiry(t *testing.T) {
	sig := models.Signal{
		Ticker:     "BTC",
		Sentiment:  models.SentimentLong,
		EntryPrice: 63000,
		StopLoss:   f64(50000),
		Timestamp:  t0,
	}
	path := pathFrom("BTC", t0, 63000, 63500, 64000)

	res, err := Simulate(sig, path, 250)
	require.NoError(t, err)

	assert.Equal(t, models.ExitHorizonExpired, res.ExitReason)
	assert.Equal(t, float64(64000), res.ExitPrice)
	assert.Equal(t, path[2].Timestamp, res.ExitTime)
	assert.InDelta(t, (64000.0-63000.0)/63000.0*100, res.PnLPercent, 1e-9)
	assert.InDelta(t, 250*res.PnLPercent/100, res.PnLDollar, 1e-9)
}

func TestSimulateShortInvertsPnL(t *testing.T) {
	path := pathFrom("BTC", t0, 63000, 62000, 61000)
	long := models.Signal{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 63000, Timestamp: t0}
	short := models.Signal{Ticker: "BTC", Sentiment: models.SentimentShort, EntryPrice: 63000, Timestamp: t0}

	lres, err := Simulate(long, path, 100)
	require.NoError(t, err)
	sres, err := Simulate(short, path, 100)
	require.NoError(t, err)

	assert.InDelta(t, -lres.PnLPercent, sres.PnLPercent, 1e-9)
	assert.InDelta(t, -lres.PnLDollar, sres.PnLDollar, 1e-9)
	assert.Greater(t, sres.PnLDollar, 0.0)
}

func TestSimulateShortStopLossOnRise(t *testing.T) {
	sig := models.Signal{
		Ticker:      "ETH",
		Sentiment:   models.SentimentShort,
		EntryPrice:  3000,
		StopLoss:    f64(3150),
		TakeProfits: []float64{2900, 2800},
		Timestamp:   t0,
	}
	path := pathFrom("ETH", t0, 3000, 3050, 3160)

	res, err := Simulate(sig, path, 100)
	require.NoError(t, err)

	assert.Equal(t, models.ExitStopLoss, res.ExitReason)
	assert.Equal(t, float64(3150), res.ExitPrice)
	assert.Less(t, res.PnLDollar, 0.0)
}

func TestSimulateNoEntryPriceUsesFirstObservation(t *testing.T) {
	sig := models.Signal{Ticker: "BTC", Sentiment: models.SentimentLong, Timestamp: t0}
	path := pathFrom("BTC", t0, 50000, 55000)

	res, err := Simulate(sig, path, 100)
	require.NoError(t, err)

	assert.Equal(t, float64(50000), res.EntryPrice)
	assert.InDelta(t, 10.0, res.PnLPercent, 1e-9)
}

func TestSimulateLeverageDefaultsToOne(t *testing.T) {
	sig := models.Signal{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, Timestamp: t0}
	path := pathFrom("BTC", t0, 100, 110)

	res, err := Simulate(sig, path, 100)
	require.NoError(t, err)

	assert.Equal(t, float64(1), res.Leverage)
	assert.InDelta(t, 10.0, res.PnLPercent, 1e-9)
}

func TestSimulateTracksExcursions(t *testing.T) {
	sig := models.Signal{Ticker: "BTC", Sentiment: models.SentimentLong, EntryPrice: 100, Timestamp: t0}
	path := pathFrom("BTC", t0, 100, 120, 90, 95)

	res, err := Simulate(sig, path, 100)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, res.MaxGainDollar, 1e-9)
	assert.InDelta(t, -10.0, res.MaxLossDollar, 1e-9)
}
