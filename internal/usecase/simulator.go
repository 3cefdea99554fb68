package usecase

import (
	"context"
	"sync"
	"time"

	"CallAudit/internal/domain/models"
	domrepo "CallAudit/internal/domain/repository"
	"CallAudit/internal/engine"
	applogger "CallAudit/pkg/logger"
)

// PositionSimulator resolves batches of executable signals against the
// price source and aggregates the portfolio outcome. Signals are simulated
// independently: one worker per slot writes its outcome exactly once and the
// aggregate is computed after the join, so a failure or an early abort never
// corrupts totals.
type PositionSimulator struct {
	prices  domrepo.PriceSource
	metrics domrepo.Metrics
	workers int
	l       *applogger.Logger
}

// NewPositionSimulator creates a simulator. workers bounds the number of
// concurrent price-path lookups.
func NewPositionSimulator(prices domrepo.PriceSource, metrics domrepo.Metrics, workers int) *PositionSimulator {
	if workers <= 0 {
		workers = 4
	}
	return &PositionSimulator{prices: prices, metrics: metrics, workers: workers}
}

// SetLogger injects a structured logger.
func (s *PositionSimulator) SetLogger(l *applogger.Logger) { s.l = l }

// SimulateBatch simulates every executable signal over [timestamp,
// timestamp + horizon]. Sentiment-only signals are not positions and are
// filtered out before slots are allocated; every executable signal gets
// exactly one outcome slot, in input order. A canceled context stops new
// work and marks the unfinished slots as errors while keeping completed
// ones.
func (s *PositionSimulator) SimulateBatch(ctx context.Context, signals []models.Signal, capitalPerPosition float64, horizon time.Duration) *models.PortfolioResult {
	start := time.Now()

	executable := make([]models.Signal, 0, len(signals))
	for _, sig := range signals {
		if sig.Sentiment.IsExecutable() {
			executable = append(executable, sig)
		}
	}

	outcomes := make([]models.PositionOutcome, len(executable))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, sig := range executable {
		if ctx.Err() != nil {
			outcomes[i] = models.PositionOutcome{Signal: sig, Error: "aborted: " + ctx.Err().Error()}
			continue
		}
		wg.Add(1)
		go func(i int, sig models.Signal) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.simulateOne(ctx, sig, capitalPerPosition, horizon)
		}(i, sig)
	}
	wg.Wait()

	res := aggregate(outcomes, capitalPerPosition)
	s.metrics.RecordLatency("simulate_batch", time.Since(start).Seconds())
	if s.l != nil {
		s.l.Info("batch simulated",
			applogger.Int("total", res.TotalCount),
			applogger.Int("successful", res.SuccessfulCount),
			applogger.Float64("roi_percent", res.ROIPercent),
		)
	}
	return res
}

func (s *PositionSimulator) simulateOne(ctx context.Context, sig models.Signal, capital float64, horizon time.Duration) models.PositionOutcome {
	if err := sig.ValidateExecutable(); err != nil {
		s.metrics.RecordError("simulate_invalid_signal")
		return models.PositionOutcome{Signal: sig, Error: err.Error()}
	}

	path, err := s.prices.PricePath(ctx, sig.Ticker, sig.Timestamp, sig.Timestamp.Add(horizon))
	if err != nil {
		s.metrics.RecordError("simulate_price_path")
		if s.l != nil {
			s.l.Warn("price path lookup failed",
				applogger.String("ticker", sig.Ticker),
				applogger.Error(err),
			)
		}
		return models.PositionOutcome{Signal: sig, Error: err.Error()}
	}

	result, err := engine.Simulate(sig, path, capital)
	if err != nil {
		s.metrics.RecordError("simulate_invalid_signal")
		return models.PositionOutcome{Signal: sig, Error: err.Error()}
	}

	s.metrics.RecordSimulation(sig.Ticker, string(result.ExitReason))
	return models.PositionOutcome{Signal: sig, Result: &result}
}

// aggregate folds the outcome slots into portfolio totals. Every ratio is
// guarded: an empty or fully-failed batch reports zeros, never a division
// fault.
func aggregate(outcomes []models.PositionOutcome, capitalPerPosition float64) *models.PortfolioResult {
	res := &models.PortfolioResult{
		TotalCount: len(outcomes),
		Outcomes:   outcomes,
	}
	res.TotalCapital = capitalPerPosition * float64(res.TotalCount)

	var leverageSum float64
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		r := o.Result
		res.SuccessfulCount++
		res.TotalPnL += r.PnLDollar
		if r.PnLDollar > 0 {
			res.WinningCount++
		} else if r.PnLDollar < 0 {
			res.LosingCount++
		}
		switch r.Sentiment {
		case models.SentimentLong:
			res.LongCount++
		case models.SentimentShort:
			res.ShortCount++
		}
		if r.Leverage > res.MaxLeverage {
			res.MaxLeverage = r.Leverage
		}
		leverageSum += r.Leverage
		res.TotalExposure += r.CapitalAllocated * r.Leverage
	}

	if res.TotalCapital > 0 {
		res.ROIPercent = res.TotalPnL / res.TotalCapital * 100
	}
	if res.SuccessfulCount > 0 {
		res.WinRatePercent = float64(res.WinningCount) / float64(res.SuccessfulCount) * 100
		res.AvgLeverage = leverageSum / float64(res.SuccessfulCount)
	}
	return res
}
