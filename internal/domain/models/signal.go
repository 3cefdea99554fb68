package models

import "time"

// Sentiment is the directional call extracted from a post. Long and short
// describe an executable position; bullish, bearish and neutral are
// sentiment-only calls scored by the validator but never simulated.
type Sentiment string

const (
	SentimentLong    Sentiment = "long"
	SentimentShort   Sentiment = "short"
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// IsExecutable reports whether the sentiment implies an actual position.
func (s Sentiment) IsExecutable() bool {
	return s == SentimentLong || s == SentimentShort
}

// Valid reports whether s is one of the known sentiment values.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentLong, SentimentShort, SentimentBullish, SentimentBearish, SentimentNeutral:
		return true
	}
	return false
}

// PredictedDirection maps the sentiment onto the direction the caller
// expects the price to move.
func (s Sentiment) PredictedDirection() Direction {
	switch s {
	case SentimentLong, SentimentBullish:
		return DirectionBullish
	case SentimentShort, SentimentBearish:
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}

// Signal is one extracted trading call. Signals are produced by the upstream
// extraction pipeline and are read-only here: tickers arrive normalized to
// uppercase and timestamps in UTC.
type Signal struct {
	Account     string    `json:"account,omitempty"`
	Ticker      string    `json:"ticker"`
	Sentiment   Sentiment `json:"sentiment"`
	Leverage    float64   `json:"leverage,omitempty"`
	EntryPrice  float64   `json:"entry_price,omitempty"`
	StopLoss    *float64  `json:"stop_loss,omitempty"`
	TakeProfits []float64 `json:"take_profits,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// EffectiveLeverage returns the leverage multiplier, defaulting to 1x when
// the signal does not carry one.
func (s Signal) EffectiveLeverage() float64 {
	if s.Leverage <= 0 {
		return 1
	}
	return s.Leverage
}

// Validate checks the invariants every signal must hold regardless of how it
// will be consumed.
func (s Signal) Validate() error {
	if s.Ticker == "" {
		return &InvalidSignalError{Reason: "ticker is empty"}
	}
	if !s.Sentiment.Valid() {
		return &InvalidSignalError{Ticker: s.Ticker, Reason: "unknown sentiment " + string(s.Sentiment)}
	}
	if s.Timestamp.IsZero() {
		return &InvalidSignalError{Ticker: s.Ticker, Reason: "timestamp is zero"}
	}
	return nil
}

// ValidateExecutable checks the extra invariants a signal must hold before
// it can be simulated as a position: a long/short sentiment, a positive
// entry price when set, and take-profit levels ordered strictly away from
// entry in the favorable direction (ties allowed between levels).
func (s Signal) ValidateExecutable() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !s.Sentiment.IsExecutable() {
		return &InvalidSignalError{Ticker: s.Ticker, Reason: "sentiment " + string(s.Sentiment) + " is not executable"}
	}
	if s.EntryPrice < 0 {
		return &InvalidSignalError{Ticker: s.Ticker, Reason: "entry price is negative"}
	}
	if s.EntryPrice > 0 && len(s.TakeProfits) > 0 {
		prev := s.EntryPrice
		for _, tp := range s.TakeProfits {
			favorable := tp >= prev
			if s.Sentiment == SentimentShort {
				favorable = tp <= prev
			}
			if tp <= 0 || !favorable || tp == s.EntryPrice {
				return &InvalidSignalError{Ticker: s.Ticker, Reason: "take profits are not ordered away from entry"}
			}
			prev = tp
		}
	}
	return nil
}

// PriceObservation is one (ticker, timestamp, price) sample. Observations in
// a path are ordered by timestamp.
type PriceObservation struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}
