package usecase

import (
	"CallAudit/internal/domain/models"
)

// Recommendation tier bands, applied to the 24h horizon. Policy constants,
// not logic: retune here.
const (
	ReliableMinAccuracyPercent = 65.0
	ReliableMinAvgScore        = 60.0
	MixedMinAccuracyPercent    = 50.0
)

// AggregateAccuracy rolls validation records into an account-level report:
// per-horizon accuracy percentage and mean score, plus a qualitative tier
// derived from the 24h horizon. Ratios over empty horizons report zero.
func AggregateAccuracy(account string, records []models.ValidationRecord) *models.AccountAccuracyReport {
	rep := &models.AccountAccuracyReport{
		Account: account,
		Records: records,
		Tier:    models.TierUnreliable,
	}

	for _, h := range models.Horizons() {
		agg := models.HorizonAccuracy{Horizon: h}
		var scoreSum float64
		for _, rec := range records {
			if rec.Horizon != h {
				continue
			}
			agg.EvaluatedCount++
			if rec.IsCorrect {
				agg.CorrectCount++
			}
			scoreSum += rec.AccuracyScore
		}
		if agg.EvaluatedCount > 0 {
			agg.AccuracyPercent = float64(agg.CorrectCount) / float64(agg.EvaluatedCount) * 100
			agg.AvgScore = scoreSum / float64(agg.EvaluatedCount)
		}
		rep.Horizons = append(rep.Horizons, agg)

		if h == models.Horizon24h {
			rep.Tier = tierFor(agg)
		}
	}
	return rep
}

func tierFor(day models.HorizonAccuracy) models.AccuracyTier {
	switch {
	case day.AccuracyPercent >= ReliableMinAccuracyPercent && day.AvgScore >= ReliableMinAvgScore:
		return models.TierReliable
	case day.AccuracyPercent >= MixedMinAccuracyPercent:
		return models.TierMixed
	default:
		return models.TierUnreliable
	}
}
