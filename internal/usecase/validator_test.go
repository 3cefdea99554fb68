package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CallAudit/internal/domain/models"
)

// scriptAt pins a single observation at an exact instant, for horizon
// sampling tests where minute spacing is too coarse.
func (f *fakeSource) scriptAt(ticker string, at time.Time, price float64) {
	f.paths[ticker] = append(f.paths[ticker], models.PriceObservation{Ticker: ticker, Timestamp: at, Price: price})
}

func fixedNow(at time.Time) func() time.Time { return func() time.Time { return at } }

func TestValidateScoresAllElapsedHorizons(t *testing.T) {
	src := newFakeSource()
	src.scriptAt("BTC", testT0, 100)
	src.scriptAt("BTC", testT0.Add(time.Hour), 101)
	src.scriptAt("BTC", testT0.Add(24*time.Hour), 103)
	src.scriptAt("BTC", testT0.Add(7*24*time.Hour), 105)

	v := NewSentimentValidator(src, nopMetrics{}, fixedNow(testT0.Add(8*24*time.Hour)))
	sig := models.Signal{Account: "trader_a", Ticker: "BTC", Sentiment: models.SentimentBullish, Timestamp: testT0}

	records, err := v.Validate(context.Background(), sig)
	require.NoError(t, err)
	require.Len(t, records, 3)

	oneHour := records[0]
	assert.Equal(t, models.Horizon1h, oneHour.Horizon)
	assert.InDelta(t, 1.0, oneHour.PercentChange, 1e-9)
	assert.Equal(t, models.DirectionNeutral, oneHour.RealizedDirection)
	assert.False(t, oneHour.IsCorrect, "a +1% move does not confirm a bullish call")

	day := records[1]
	assert.Equal(t, models.Horizon24h, day.Horizon)
	assert.Equal(t, models.DirectionBullish, day.RealizedDirection)
	assert.True(t, day.IsCorrect)
	assert.InDelta(t, 80.0, day.AccuracyScore, 1e-9)

	week := records[2]
	assert.Equal(t, models.Horizon7d, week.Horizon)
	assert.True(t, week.IsCorrect)
	assert.InDelta(t, 100.0, week.AccuracyScore, 1e-9, "a +5% move saturates the score")
	assert.InDelta(t, 5.0, week.PercentChange, 1e-9)
}

func TestValidateSkipsUnElapsedHorizons(t *testing.T) {
	src := newFakeSource()
	src.scriptAt("BTC", testT0, 100)
	src.scriptAt("BTC", testT0.Add(time.Hour), 104)

	v := NewSentimentValidator(src, nopMetrics{}, fixedNow(testT0.Add(2*time.Hour)))
	sig := models.Signal{Ticker: "BTC", Sentiment: models.SentimentBullish, Timestamp: testT0}

	records, err := v.Validate(context.Background(), sig)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.Horizon1h, records[0].Horizon)
}

func TestValidateOmitsUnavailableHorizonPrices(t *testing.T) {
	src := newFakeSource()
	src.scriptAt("BTC", testT0, 100)
	src.scriptAt("BTC", testT0.Add(time.Hour), 97)
	// No observations anywhere near 24h or 7d.

	v := NewSentimentValidator(src, nopMetrics{}, fixedNow(testT0.Add(8*24*time.Hour)))
	sig := models.Signal{Ticker: "BTC", Sentiment: models.SentimentBearish, Timestamp: testT0}

	records, err := v.Validate(context.Background(), sig)
	require.NoError(t, err)
	require.Len(t, records, 1, "horizons without data are omitted, not defaulted")

	rec := records[0]
	assert.Equal(t, models.DirectionBearish, rec.RealizedDirection)
	assert.True(t, rec.IsCorrect)
	assert.InDelta(t, 80.0, rec.AccuracyScore, 1e-9)
}

func TestValidateUnsupportedTicker(t *testing.T) {
	v := NewSentimentValidator(newFakeSource(), nopMetrics{}, fixedNow(testT0.Add(time.Hour)))
	sig := models.Signal{Ticker: "NOPE", Sentiment: models.SentimentBullish, Timestamp: testT0}

	_, err := v.Validate(context.Background(), sig)
	assert.ErrorIs(t, err, models.ErrUnsupportedAsset)
}

func TestValidateNeutralCallWithinBand(t *testing.T) {
	src := newFakeSource()
	src.scriptAt("BTC", testT0, 100)
	src.scriptAt("BTC", testT0.Add(time.Hour), 101)

	v := NewSentimentValidator(src, nopMetrics{}, fixedNow(testT0.Add(2*time.Hour)))
	sig := models.Signal{Ticker: "BTC", Sentiment: models.SentimentNeutral, Timestamp: testT0}

	records, err := v.Validate(context.Background(), sig)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsCorrect)
	assert.InDelta(t, 80.0, records[0].AccuracyScore, 1e-9)
}

func TestValidateBatchIsolatesFailures(t *testing.T) {
	src := newFakeSource()
	src.scriptAt("BTC", testT0, 100)
	src.scriptAt("BTC", testT0.Add(time.Hour), 105)

	signals := []models.Signal{
		{Ticker: "BTC", Sentiment: models.SentimentBullish, Timestamp: testT0},
		{Ticker: "NOPE", Sentiment: models.SentimentBullish, Timestamp: testT0},
		{Ticker: "BTC", Sentiment: models.SentimentBearish, Timestamp: testT0},
	}

	v := NewSentimentValidator(src, nopMetrics{}, fixedNow(testT0.Add(2*time.Hour)))
	outcomes := v.ValidateBatch(context.Background(), signals)

	require.Len(t, outcomes, 3)
	assert.Empty(t, outcomes[0].Error)
	assert.Len(t, outcomes[0].Records, 1)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.Empty(t, outcomes[1].Records)
	assert.Empty(t, outcomes[2].Error)
	assert.False(t, outcomes[2].Records[0].IsCorrect, "bearish call on a +5% move")

	flat := FlattenRecords(outcomes)
	assert.Len(t, flat, 2)
}
