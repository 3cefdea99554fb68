package engine

import (
	"CallAudit/internal/domain/models"
)

// Classification and scoring policy. The band constants are a product
// choice; retune them here without touching the logic.
const (
	// NeutralBandPercent is the half-width of the neutral band: a move has
	// to be strictly beyond ±2% to count as directional.
	NeutralBandPercent = 2.0

	// SaturationPercent is the move magnitude at which a directional score
	// saturates at 100 (or bottoms out at 0 against the call).
	SaturationPercent = 5.0
)

// directionalSlope maps a signed move in [-Saturation, +Saturation] onto
// [0, 100] around a 50-point midpoint.
const directionalSlope = 100 / (2 * SaturationPercent)

// neutralSlope decays a neutral call's score from 100 at a flat price to 0
// at the saturation magnitude.
const neutralSlope = 100 / SaturationPercent

// Classify maps a realized percent change onto a direction. The comparison
// is strict: exactly +2.00% is still neutral.
func Classify(percentChange float64) models.Direction {
	switch {
	case percentChange > NeutralBandPercent:
		return models.DirectionBullish
	case percentChange < -NeutralBandPercent:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

// Score rates how well a realized percent change agrees with the predicted
// direction, from 0 (saturated against the call) to 100 (saturated with it).
// It is monotonic in the move signed relative to the prediction.
func Score(predicted models.Direction, percentChange float64) float64 {
	if predicted == models.DirectionNeutral {
		return clamp(100 - abs(percentChange)*neutralSlope)
	}
	signed := percentChange
	if predicted == models.DirectionBearish {
		signed = -signed
	}
	return clamp(50 + signed*directionalSlope)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
