package models

import "time"

// Direction is the realized (or predicted) price direction over a horizon.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Horizon is a fixed forward offset at which a prediction is scored.
type Horizon string

const (
	Horizon1h  Horizon = "1h"
	Horizon24h Horizon = "24h"
	Horizon7d  Horizon = "7d"
)

// Horizons lists the scored horizons in ascending order.
func Horizons() []Horizon { return []Horizon{Horizon1h, Horizon24h, Horizon7d} }

// Duration returns the forward offset the horizon represents.
func (h Horizon) Duration() time.Duration {
	switch h {
	case Horizon1h:
		return time.Hour
	case Horizon24h:
		return 24 * time.Hour
	case Horizon7d:
		return 7 * 24 * time.Hour
	}
	return 0
}

// ValidationRecord scores one signal at one horizon.
type ValidationRecord struct {
	Account            string    `json:"account,omitempty"`
	Ticker             string    `json:"ticker"`
	Horizon            Horizon   `json:"horizon"`
	SignalTime         time.Time `json:"signal_time"`
	PriceAtSignal      float64   `json:"price_at_signal"`
	PriceAtHorizon     float64   `json:"price_at_horizon"`
	PercentChange      float64   `json:"percent_change"`
	PredictedDirection Direction `json:"predicted_direction"`
	RealizedDirection  Direction `json:"realized_direction"`
	IsCorrect          bool      `json:"is_correct"`
	AccuracyScore      float64   `json:"accuracy_score"`
}

// ValidationOutcome is one slot of a validation batch: the records produced
// for a signal, or the error that kept it from being scored. Horizons that
// have not elapsed yet are simply absent from Records.
type ValidationOutcome struct {
	Signal  Signal             `json:"signal"`
	Records []ValidationRecord `json:"records,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// HorizonAccuracy aggregates validation records for a single horizon.
type HorizonAccuracy struct {
	Horizon         Horizon `json:"horizon"`
	EvaluatedCount  int     `json:"evaluated_count"`
	CorrectCount    int     `json:"correct_count"`
	AccuracyPercent float64 `json:"accuracy_percent"`
	AvgScore        float64 `json:"avg_score"`
}

// AccuracyTier is the qualitative recommendation derived from the 24h
// horizon.
type AccuracyTier string

const (
	TierReliable   AccuracyTier = "reliable"
	TierMixed      AccuracyTier = "mixed"
	TierUnreliable AccuracyTier = "unreliable"
)

// AccountAccuracyReport rolls per-signal validation records into one
// account-level view.
type AccountAccuracyReport struct {
	Account  string             `json:"account"`
	Horizons []HorizonAccuracy  `json:"horizons"`
	Tier     AccuracyTier       `json:"tier"`
	Records  []ValidationRecord `json:"records"`
}
