package usecase

import (
	"context"
	"fmt"
	"time"

	"CallAudit/internal/domain/models"
	domrepo "CallAudit/internal/domain/repository"
	"CallAudit/internal/engine"
	applogger "CallAudit/pkg/logger"
)

// SentimentValidator scores whether a signal's directional call came true at
// the fixed horizons (1h, 24h, 7d). It samples the price source at the
// signal instant and at each horizon offset; horizons whose future price is
// unavailable are omitted rather than defaulted.
type SentimentValidator struct {
	prices  domrepo.PriceSource
	metrics domrepo.Metrics
	now     func() time.Time
	l       *applogger.Logger
}

// NewSentimentValidator creates a validator. now is the clock used to skip
// horizons that have not elapsed yet; pass nil for time.Now.
func NewSentimentValidator(prices domrepo.PriceSource, metrics domrepo.Metrics, now func() time.Time) *SentimentValidator {
	if now == nil {
		now = time.Now
	}
	return &SentimentValidator{prices: prices, metrics: metrics, now: now}
}

// SetLogger injects a structured logger.
func (v *SentimentValidator) SetLogger(l *applogger.Logger) { v.l = l }

// Validate scores one signal at every elapsed horizon.
func (v *SentimentValidator) Validate(ctx context.Context, sig models.Signal) ([]models.ValidationRecord, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	base, err := v.prices.PriceAt(ctx, sig.Ticker, sig.Timestamp)
	if err != nil {
		return nil, err
	}
	if base <= 0 {
		return nil, fmt.Errorf("%s: non-positive base price: %w", sig.Ticker, models.ErrPriceUnavailable)
	}

	predicted := sig.Sentiment.PredictedDirection()
	now := v.now()

	records := make([]models.ValidationRecord, 0, 3)
	for _, h := range models.Horizons() {
		target := sig.Timestamp.Add(h.Duration())
		if target.After(now) {
			continue // horizon not elapsed yet
		}
		price, perr := v.prices.PriceAt(ctx, sig.Ticker, target)
		if perr != nil || price <= 0 {
			v.metrics.RecordError("validate_horizon_price")
			if v.l != nil {
				v.l.Warn("horizon price unavailable",
					applogger.String("ticker", sig.Ticker),
					applogger.String("horizon", string(h)),
					applogger.Error(perr),
				)
			}
			continue
		}

		pct := (price - base) / base * 100
		realized := engine.Classify(pct)
		rec := models.ValidationRecord{
			Account:            sig.Account,
			Ticker:             sig.Ticker,
			Horizon:            h,
			SignalTime:         sig.Timestamp,
			PriceAtSignal:      base,
			PriceAtHorizon:     price,
			PercentChange:      pct,
			PredictedDirection: predicted,
			RealizedDirection:  realized,
			IsCorrect:          predicted == realized,
			AccuracyScore:      engine.Score(predicted, pct),
		}
		v.metrics.RecordValidation(sig.Ticker, string(h), rec.IsCorrect)
		records = append(records, rec)
	}
	return records, nil
}

// ValidateBatch scores every signal, isolating per-item failures: the
// returned slice always has one outcome per input signal, in input order.
func (v *SentimentValidator) ValidateBatch(ctx context.Context, signals []models.Signal) []models.ValidationOutcome {
	start := time.Now()
	outcomes := make([]models.ValidationOutcome, len(signals))
	for i, sig := range signals {
		if ctx.Err() != nil {
			outcomes[i] = models.ValidationOutcome{Signal: sig, Error: "aborted: " + ctx.Err().Error()}
			continue
		}
		records, err := v.Validate(ctx, sig)
		if err != nil {
			v.metrics.RecordError("validate_signal")
			outcomes[i] = models.ValidationOutcome{Signal: sig, Error: err.Error()}
			continue
		}
		outcomes[i] = models.ValidationOutcome{Signal: sig, Records: records}
	}
	v.metrics.RecordLatency("validate_batch", time.Since(start).Seconds())
	return outcomes
}

// FlattenRecords collects the records of successful outcomes in order.
func FlattenRecords(outcomes []models.ValidationOutcome) []models.ValidationRecord {
	out := make([]models.ValidationRecord, 0, len(outcomes)*3)
	for _, o := range outcomes {
		out = append(out, o.Records...)
	}
	return out
}
