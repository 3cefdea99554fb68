package engine

import (
	"CallAudit/internal/domain/models"
)

// Simulate walks a time-ordered price path and resolves the position a
// signal describes. The walk stops at the first of: a stop-loss breach, the
// last configured take-profit level, or path exhaustion. Lower take-profit
// levels are counted when touched but do not close the position; only the
// final level does. The function is pure: it never touches a price source
// and returns an error only for malformed signals.
func Simulate(signal models.Signal, path []models.PriceObservation, capital float64) (models.SimulationResult, error) {
	if err := signal.ValidateExecutable(); err != nil {
		return models.SimulationResult{}, err
	}

	leverage := signal.EffectiveLeverage()
	res := models.SimulationResult{
		Ticker:           signal.Ticker,
		Sentiment:        signal.Sentiment,
		Leverage:         leverage,
		EntryPrice:       signal.EntryPrice,
		CapitalAllocated: capital,
	}

	if len(path) == 0 {
		res.ExitReason = models.ExitNoData
		return res, nil
	}

	entry := signal.EntryPrice
	if entry == 0 {
		// No entry price on the signal: enter at the first observed price.
		entry = path[0].Price
	}
	if entry <= 0 {
		res.ExitReason = models.ExitNoData
		return res, nil
	}
	res.EntryPrice = entry

	short := signal.Sentiment == models.SentimentShort
	tps := signal.TakeProfits

	walk := func(price float64) float64 {
		diff := price - entry
		if short {
			diff = -diff
		}
		return diff / entry * leverage * 100
	}

	nextTP := 0
	for _, obs := range path {
		price := obs.Price

		pct := walk(price)
		dollar := capital * pct / 100
		if dollar > res.MaxGainDollar {
			res.MaxGainDollar = dollar
		}
		if dollar < res.MaxLossDollar {
			res.MaxLossDollar = dollar
		}

		// Stop-loss wins when it and a target are touched by the same
		// observation.
		if sl := signal.StopLoss; sl != nil {
			breached := price <= *sl
			if short {
				breached = price >= *sl
			}
			if breached {
				res.ExitReason = models.ExitStopLoss
				res.ExitPrice = *sl
				res.ExitTime = obs.Timestamp
				finish(&res, entry, *sl, short, leverage, capital)
				return res, nil
			}
		}

		for nextTP < len(tps) {
			reached := price >= tps[nextTP]
			if short {
				reached = price <= tps[nextTP]
			}
			if !reached {
				break
			}
			nextTP++
			res.TakeProfitsHit = nextTP
		}
		if len(tps) > 0 && nextTP == len(tps) {
			last := tps[len(tps)-1]
			res.ExitReason = models.ExitTakeProfit
			res.ExitLevel = len(tps)
			res.ExitPrice = last
			res.ExitTime = obs.Timestamp
			finish(&res, entry, last, short, leverage, capital)
			return res, nil
		}
	}

	lastObs := path[len(path)-1]
	if res.TakeProfitsHit > 0 {
		// The path ran out with the position still open but with levels
		// already touched: credit the highest hit level as the exit.
		level := tps[res.TakeProfitsHit-1]
		res.ExitReason = models.ExitTakeProfit
		res.ExitLevel = res.TakeProfitsHit
		res.ExitPrice = level
		res.ExitTime = lastObs.Timestamp
		finish(&res, entry, level, short, leverage, capital)
		return res, nil
	}
	res.ExitReason = models.ExitHorizonExpired
	res.ExitPrice = lastObs.Price
	res.ExitTime = lastObs.Timestamp
	finish(&res, entry, lastObs.Price, short, leverage, capital)
	return res, nil
}

func finish(res *models.SimulationResult, entry, exit float64, short bool, leverage, capital float64) {
	diff := exit - entry
	if short {
		diff = -diff
	}
	res.PnLPercent = diff / entry * leverage * 100
	res.PnLDollar = capital * res.PnLPercent / 100
}
