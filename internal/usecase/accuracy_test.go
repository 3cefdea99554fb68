package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CallAudit/internal/domain/models"
)

func rec(h models.Horizon, correct bool, score float64) models.ValidationRecord {
	return models.ValidationRecord{Account: "trader_a", Ticker: "BTC", Horizon: h, IsCorrect: correct, AccuracyScore: score}
}

func TestAggregateAccuracyEmptyRecords(t *testing.T) {
	rep := AggregateAccuracy("trader_a", nil)

	assert.Equal(t, "trader_a", rep.Account)
	assert.Equal(t, models.TierUnreliable, rep.Tier)
	require.Len(t, rep.Horizons, 3)
	for _, h := range rep.Horizons {
		assert.Zero(t, h.EvaluatedCount)
		assert.Zero(t, h.AccuracyPercent)
		assert.Zero(t, h.AvgScore)
	}
}

func TestAggregateAccuracySeparatesHorizons(t *testing.T) {
	records := []models.ValidationRecord{
		rec(models.Horizon1h, true, 90),
		rec(models.Horizon1h, false, 20),
		rec(models.Horizon24h, true, 70),
		rec(models.Horizon7d, false, 10),
	}

	rep := AggregateAccuracy("trader_a", records)

	require.Len(t, rep.Horizons, 3)
	oneHour := rep.Horizons[0]
	assert.Equal(t, models.Horizon1h, oneHour.Horizon)
	assert.Equal(t, 2, oneHour.EvaluatedCount)
	assert.Equal(t, 1, oneHour.CorrectCount)
	assert.InDelta(t, 50.0, oneHour.AccuracyPercent, 1e-9)
	assert.InDelta(t, 55.0, oneHour.AvgScore, 1e-9)

	day := rep.Horizons[1]
	assert.Equal(t, 1, day.EvaluatedCount)
	assert.InDelta(t, 100.0, day.AccuracyPercent, 1e-9)

	week := rep.Horizons[2]
	assert.Equal(t, 1, week.EvaluatedCount)
	assert.Zero(t, week.AccuracyPercent)
	assert.InDelta(t, 10.0, week.AvgScore, 1e-9)
}

func TestAggregateAccuracyTierReliable(t *testing.T) {
	records := []models.ValidationRecord{
		rec(models.Horizon24h, true, 80),
		rec(models.Horizon24h, true, 70),
		rec(models.Horizon24h, false, 30),
	}

	rep := AggregateAccuracy("trader_a", records)
	// 66.7% accuracy, avg score 60: both thresholds met.
	assert.Equal(t, models.TierReliable, rep.Tier)
}

func TestAggregateAccuracyTierMixedWhenScoreTooLow(t *testing.T) {
	records := []models.ValidationRecord{
		rec(models.Horizon24h, true, 55),
		rec(models.Horizon24h, true, 55),
		rec(models.Horizon24h, false, 20),
	}

	rep := AggregateAccuracy("trader_a", records)
	// Accuracy clears the reliable bar but the mean score does not.
	assert.Equal(t, models.TierMixed, rep.Tier)
}

func TestAggregateAccuracyTierUnreliable(t *testing.T) {
	records := []models.ValidationRecord{
		rec(models.Horizon24h, false, 20),
		rec(models.Horizon24h, false, 10),
		rec(models.Horizon24h, true, 90),
	}

	rep := AggregateAccuracy("trader_a", records)
	assert.Equal(t, models.TierUnreliable, rep.Tier)
}

func TestAggregateAccuracyTierUsesOnlyDayHorizon(t *testing.T) {
	records := []models.ValidationRecord{
		rec(models.Horizon1h, true, 100),
		rec(models.Horizon7d, true, 100),
		rec(models.Horizon24h, false, 10),
	}

	rep := AggregateAccuracy("trader_a", records)
	assert.Equal(t, models.TierUnreliable, rep.Tier, "perfect 1h and 7d records do not lift the tier")
}
